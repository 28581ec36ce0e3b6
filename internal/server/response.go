package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err onto a status through the sentinel chain. Internal
// details of 5xx errors are logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	detail := errorDetail{Code: common.ErrorCode(err), Message: err.Error()}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		detail.Message = appErr.Message
	}
	logger := common.LoggerFromContext(r.Context(), nil)
	if status >= http.StatusInternalServerError {
		logger.Error("http.request.failed", "path", r.URL.Path, "err", err)
		detail.Message = http.StatusText(status)
	} else {
		logger.Warn("http.request.rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func badRequest(code, msg string) error {
	return common.NewAppError(code, msg, common.ErrInvalidInput)
}
