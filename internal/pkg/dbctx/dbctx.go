package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context and, inside InTx, the open transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// On returns the handle a repo should query: the transaction when one is open,
// otherwise db, bound to Ctx.
func (c Context) On(db *gorm.DB) *gorm.DB {
	h := c.Tx
	if h == nil {
		h = db
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return h.WithContext(ctx)
}
