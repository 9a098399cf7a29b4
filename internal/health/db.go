package health

import (
	"context"

	"github.com/onnwee/collegefit/internal/tracing"
)

// Pinger is the part of *sql.DB the database checker needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DBChecker implements health checking for SQL databases.
type DBChecker struct {
	db Pinger
}

// NewDBChecker creates a new database health checker.
func NewDBChecker(db Pinger) *DBChecker {
	return &DBChecker{
		db: db,
	}
}

// HealthCheck pings the database inside a traced span.
func (d *DBChecker) HealthCheck(ctx context.Context) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "", tracing.DBOperationPing)
	defer func() { endSpan(err) }()

	return d.db.PingContext(ctx)
}
