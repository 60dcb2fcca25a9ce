package repository

import (
	"context"
	"errors"

	"law-reports-backend/internal/models"
)

// ErrSheetNotFound is wrapped in a fatal store error when a tab does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// SheetStore is the remote tabular store. Sheet names are remote tab titles.
type SheetStore interface {
	ListSheets(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, sheet string) (bool, error)
	Read(ctx context.Context, sheet string) (models.Table, error)
	// Append adds rows after the last row of an existing sheet.
	Append(ctx context.Context, sheet string, rows [][]string) error
	// Overwrite replaces header and rows, creating the sheet when absent.
	Overwrite(ctx context.Context, sheet string, table models.Table) error
}
