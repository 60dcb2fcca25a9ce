package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SheetRow is one row of a logical sheet when the store is backed by Postgres.
// Position keeps append order; the header is stored as position -1.
type SheetRow struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Sheet     string         `gorm:"index:idx_sheet_position,priority:1"`
	Position  int            `gorm:"index:idx_sheet_position,priority:2"`
	Cells     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
}

const HeaderPosition = -1
