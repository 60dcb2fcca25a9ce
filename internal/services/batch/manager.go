// Package batch creates, stamps, lists and removes upload batches.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/datamanager"
)

// ResetConfirmation must be passed verbatim to MasterReset.
const ResetConfirmation = "RESET"

const idPrefix = "batch_"

type Manager struct {
	data  *datamanager.Manager
	locks *Locks
	log   *zap.Logger
	now   func() time.Time
}

func NewManager(data *datamanager.Manager, locks *Locks, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if locks == nil {
		locks = NewLocks()
	}
	return &Manager{data: data, locks: locks, log: log, now: time.Now}
}

// NewID returns "batch_" followed by a UUIDv7, so ids sort by creation time.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating batch id: %w", err)
	}
	return idPrefix + id.String(), nil
}

// CreateBatch validates the period and allocates a new batch.
func (m *Manager) CreateBatch(report models.Report, uploadDate, periodStart, periodEnd time.Time) (models.Batch, error) {
	period := models.Period{Start: models.Day(periodStart), End: models.Day(periodEnd)}
	if err := period.Validate(); err != nil {
		return models.Batch{}, err
	}
	id, err := NewID()
	if err != nil {
		return models.Batch{}, err
	}
	if uploadDate.IsZero() {
		uploadDate = m.now()
	}
	return models.Batch{
		ID:          id,
		Report:      report,
		UploadDate:  models.Day(uploadDate),
		UploadedAt:  m.now().UTC().Truncate(time.Second),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
	}, nil
}

// Stamp attaches the batch metadata to every record.
func Stamp(records []models.Record, b models.Batch) []models.StampedRecord {
	s := b.Stamp()
	out := make([]models.StampedRecord, len(records))
	for i, r := range records {
		out[i] = models.StampedRecord{Report: b.Report, Record: r, Stamp: s}
	}
	return out
}

// RemoveBatch deletes a batch and its rows. Removing an unknown id returns 0.
func (m *Manager) RemoveBatch(ctx context.Context, sess *datamanager.Session, report models.Report, batchID string) (int, error) {
	if err := sess.Authorize("remove batch"); err != nil {
		return 0, err
	}
	unlock := m.locks.Lock(report)
	defer unlock()

	n, err := m.data.RemoveBatchRows(ctx, sess, report, batchID)
	if err != nil {
		return n, err
	}
	m.log.Info("batch removed",
		zap.String("report", string(report)),
		zap.String("batch_id", batchID),
		zap.Int("rows", n),
		zap.String("user", sess.Identity.Username))
	return n, nil
}

// MasterReset clears every sheet, keeping headers. confirm must equal ResetConfirmation.
func (m *Manager) MasterReset(ctx context.Context, sess *datamanager.Session, confirm string) error {
	if err := sess.Authorize("master reset"); err != nil {
		return err
	}
	if confirm != ResetConfirmation {
		return apperr.Validation("master reset requires confirmation %q", ResetConfirmation)
	}
	unlock := m.locks.LockAll()
	defer unlock()

	m.log.Warn("master reset requested", zap.String("user", sess.Identity.Username))
	return m.data.ClearAll(ctx, sess)
}

// Sync rebuilds every report sheet from master while holding all report locks,
// so no upload or removal lands between the read of master and the rewrite.
func (m *Manager) Sync(ctx context.Context, sess *datamanager.Session) (datamanager.SyncResult, error) {
	if err := sess.Authorize("sync"); err != nil {
		return datamanager.SyncResult{}, err
	}
	unlock := m.locks.LockAll()
	defer unlock()

	res, err := m.data.SyncMasterToReports(ctx, sess)
	if err != nil {
		return res, err
	}
	m.log.Info("reports resynced",
		zap.Int("rewritten", len(res.Rewritten)),
		zap.String("user", sess.Identity.Username))
	return res, nil
}

// AssignOrphans gives master rows of report without a batch id the given id,
// or a fresh one when batchID is empty, and registers that batch.
func (m *Manager) AssignOrphans(ctx context.Context, sess *datamanager.Session, report models.Report, batchID string) (string, int, error) {
	if err := sess.Authorize("assign orphans"); err != nil {
		return "", 0, err
	}
	unlock := m.locks.Lock(report)
	defer unlock()

	if batchID == "" {
		id, err := NewID()
		if err != nil {
			return "", 0, err
		}
		batchID = id
	}
	n, err := m.data.AssignOrphanRows(ctx, sess, report, batchID)
	if err != nil || n == 0 {
		return batchID, n, err
	}

	existing, err := m.data.ReadBatches(ctx, sess, report)
	if err != nil {
		return batchID, n, err
	}
	for _, b := range existing {
		if b.ID == batchID {
			return batchID, n, nil
		}
	}
	now := m.now()
	reg := models.Batch{
		ID:         batchID,
		Report:     report,
		Filename:   "(orphaned rows)",
		UploadedBy: sess.Identity.Username,
		UploadDate: models.Day(now),
		UploadedAt: now.UTC().Truncate(time.Second),
		RowCount:   n,
	}
	if err := m.data.AppendBatch(ctx, sess, reg, nil, true); err != nil {
		return batchID, n, err
	}
	m.log.Info("orphan rows assigned",
		zap.String("report", string(report)), zap.String("batch_id", batchID), zap.Int("rows", n))
	return batchID, n, nil
}

// ListBatches returns registered batches, newest first. An empty report lists all.
func (m *Manager) ListBatches(ctx context.Context, sess *datamanager.Session, report models.Report) ([]models.Batch, error) {
	batches, err := m.data.ReadBatches(ctx, sess, report)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(batches)-1; i < j; i, j = i+1, j-1 {
		batches[i], batches[j] = batches[j], batches[i]
	}
	return batches, nil
}
