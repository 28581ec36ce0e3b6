package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer returns a gRPC server exposing the standard health service
// (overall and per ServiceName) plus reflection for grpcurl.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)
	return grpcServer, hs
}

// MarkNotServing flips every status before a graceful stop.
func MarkNotServing(hs *health.Server) {
	hs.Shutdown()
}
