package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos use Tx when set and fall back to their own handle otherwise.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Or returns the transaction when present, otherwise db, bound to Ctx.
func (c Context) Or(db *gorm.DB) *gorm.DB {
	txx := c.Tx
	if txx == nil {
		txx = db
	}
	if c.Ctx == nil {
		return txx.WithContext(context.Background())
	}
	return txx.WithContext(c.Ctx)
}
