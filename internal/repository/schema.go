package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

const (
	reportsTableName     = "reports"
	extractJobsTableName = "extract_jobs"
)

var (
	reportsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "generated_at", Type: field.TypeTime},
		{Name: "source", Type: field.TypeString, Default: ""},
		{Name: "total_invoices", Type: field.TypeInt},
		{Name: "valid_invoices", Type: field.TypeInt},
		{Name: "invalid_invoices", Type: field.TypeInt},
		{Name: "payload", Type: field.TypeJSON},
	}
	reportsTable = &schema.Table{
		Name:       reportsTableName,
		Columns:    reportsColumns,
		PrimaryKey: []*schema.Column{reportsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "report_generated_at", Columns: []*schema.Column{reportsColumns[1]}},
		},
	}

	extractJobsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "source", Type: field.TypeString},
		{Name: "content_hash", Type: field.TypeString, Nullable: true},
		{Name: "profile", Type: field.TypeString},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "invoice_id", Type: field.TypeString, Nullable: true},
		{Name: "error_message", Type: field.TypeString, Nullable: true, Size: 2048},
		{Name: "cache_hit", Type: field.TypeBool, Default: false},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "finished_at", Type: field.TypeTime, Nullable: true},
	}
	extractJobsTable = &schema.Table{
		Name:       extractJobsTableName,
		Columns:    extractJobsColumns,
		PrimaryKey: []*schema.Column{extractJobsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "extractjob_content_hash", Columns: []*schema.Column{extractJobsColumns[2]}},
		},
	}

	tables = []*schema.Table{reportsTable, extractJobsTable}
)

// Migrate creates or upgrades the store's tables.
func (d *DB) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(d.drv)
	if err != nil {
		return common.NewAppError("DB_MIGRATE", "init migrator", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if err := m.Create(ctx, tables...); err != nil {
		d.logger.Error("repository.migrate.failed", "err", err)
		return common.NewAppError("DB_MIGRATE", "create tables", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	d.logger.Info("repository.migrate.ok", "tables", len(tables))
	return nil
}
