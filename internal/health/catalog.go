package health

import (
	"context"
	"errors"
)

// ErrCatalogEmpty is returned when the in-memory catalog holds no colleges.
var ErrCatalogEmpty = errors.New("catalog is empty")

// Sizer reports how many records a catalog holds.
type Sizer interface {
	Len() int
}

// CatalogChecker reports unhealthy until a seeded in-memory catalog has
// records, so that traffic is not routed to an instance that would answer
// every recommendation with no matches.
type CatalogChecker struct {
	catalog Sizer
}

// NewCatalogChecker creates a new catalog health checker.
func NewCatalogChecker(catalog Sizer) *CatalogChecker {
	return &CatalogChecker{catalog: catalog}
}

// HealthCheck implements the checker interface.
func (c *CatalogChecker) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.catalog.Len() == 0 {
		return ErrCatalogEmpty
	}
	return nil
}
