package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
)

// GormStore persists sheets as rows of the sheet_rows table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Expose DB if needed
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) ListSheets(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.SheetRow{}).
		Where("position = ?", models.HeaderPosition).
		Order("created_at").
		Pluck("sheet", &names).Error
	if err != nil {
		return nil, classify("list sheets", err)
	}
	return names, nil
}

func (s *GormStore) Exists(ctx context.Context, sheet string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.SheetRow{}).
		Where("sheet = ? AND position = ?", sheet, models.HeaderPosition).
		Count(&n).Error
	if err != nil {
		return false, classify("exists "+sheet, err)
	}
	return n > 0, nil
}

func (s *GormStore) Read(ctx context.Context, sheet string) (models.Table, error) {
	var rows []models.SheetRow
	err := s.db.WithContext(ctx).
		Where("sheet = ?", sheet).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return models.Table{}, classify("read "+sheet, err)
	}
	if len(rows) == 0 || rows[0].Position != models.HeaderPosition {
		return models.Table{}, apperr.Fatal("read "+sheet, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet))
	}

	var t models.Table
	for i, r := range rows {
		var cells []string
		if err := json.Unmarshal(r.Cells, &cells); err != nil {
			return models.Table{}, apperr.Fatal("read "+sheet, fmt.Errorf("row %d: %w", r.Position, err))
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func (s *GormStore) Append(ctx context.Context, sheet string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last struct{ Max *int }
		if err := tx.Model(&models.SheetRow{}).
			Select("MAX(position) AS max").
			Where("sheet = ?", sheet).
			Scan(&last).Error; err != nil {
			return err
		}
		if last.Max == nil {
			return fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
		}
		batch, err := sheetRows(sheet, *last.Max+1, rows)
		if err != nil {
			return err
		}
		return tx.CreateInBatches(batch, 500).Error
	})
	if err != nil {
		return classify("append "+sheet, err)
	}
	return nil
}

func (s *GormStore) Overwrite(ctx context.Context, sheet string, table models.Table) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sheet = ?", sheet).Delete(&models.SheetRow{}).Error; err != nil {
			return err
		}
		all := append([][]string{table.Header}, table.Rows...)
		batch, err := sheetRows(sheet, models.HeaderPosition, all)
		if err != nil {
			return err
		}
		return tx.CreateInBatches(batch, 500).Error
	})
	if err != nil {
		return classify("overwrite "+sheet, err)
	}
	return nil
}

func sheetRows(sheet string, start int, rows [][]string) ([]models.SheetRow, error) {
	out := make([]models.SheetRow, 0, len(rows))
	for i, r := range rows {
		cells, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SheetRow{
			ID:       uuid.New(),
			Sheet:    sheet,
			Position: start + i,
			Cells:    datatypes.JSON(cells),
		})
	}
	return out, nil
}

// classify maps database failures onto the store error taxonomy.
func classify(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrSheetNotFound):
		return apperr.Fatal(op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, driver.ErrBadConn):
		return apperr.Transient(op, err)
	case errors.As(err, &netErr):
		return apperr.Transient(op, err)
	}
	return apperr.Fatal(op, err)
}
