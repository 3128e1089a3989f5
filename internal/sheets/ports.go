// Package sheets defines the contract for the spreadsheet mirror.
package sheets

import (
	"context"

	"registro/internal/core"
)

// RowAppender appends one transaction as a spreadsheet row and returns
// a reference to the written range.
type RowAppender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) (string, error)
}
