// Package ingestion runs an upload end to end: parse, dedupe, normalize,
// batch, persist and archive.
package ingestion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/archive"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/batch"
	"law-reports-backend/internal/services/datamanager"
	"law-reports-backend/internal/services/normalizer"
	"law-reports-backend/internal/services/upload"
)

type UploadRequest struct {
	Report      models.Report
	Filename    string
	Content     []byte
	PeriodStart time.Time
	PeriodEnd   time.Time
	// UploadDate defaults to today.
	UploadDate time.Time
	// ConfirmDuplicate lets a byte-identical file through. It replaces the
	// batches previously ingested from the same content.
	ConfirmDuplicate bool
}

type UploadResult struct {
	Batch      models.Batch       `json:"batch"`
	Normalized *normalizer.Result `json:"normalized"`
	// Replaced lists the batches removed by a confirmed duplicate.
	Replaced []string `json:"replaced,omitempty"`
}

type Service struct {
	data       *datamanager.Manager
	batches    *batch.Manager
	normalizer *normalizer.Normalizer
	archiver   archive.Archiver
	locks      *batch.Locks
	log        *zap.Logger
}

func NewService(
	data *datamanager.Manager,
	batches *batch.Manager,
	norm *normalizer.Normalizer,
	archiver archive.Archiver,
	locks *batch.Locks,
	log *zap.Logger,
) *Service {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	if locks == nil {
		locks = batch.NewLocks()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		data:       data,
		batches:    batches,
		normalizer: norm,
		archiver:   archiver,
		locks:      locks,
		log:        log,
	}
}

// Upload ingests one file synchronously. Anything that fails before AppendBatch
// leaves the store untouched.
func (s *Service) Upload(ctx context.Context, sess *datamanager.Session, req UploadRequest) (*UploadResult, error) {
	if err := sess.Authorize("upload"); err != nil {
		return nil, err
	}
	if _, err := models.ParseReport(string(req.Report)); err != nil {
		return nil, apperr.Validation("%v", err)
	}

	unlock := s.locks.Lock(req.Report)
	defer unlock()

	log := s.log.With(
		zap.String("report", string(req.Report)),
		zap.String("filename", req.Filename),
		zap.String("user", sess.Identity.Username))

	raw, err := upload.ReadTable(req.Filename, req.Content)
	if err != nil {
		return nil, err
	}

	fingerprint := datamanager.Fingerprint(req.Content)
	if !req.ConfirmDuplicate {
		existing, err := s.data.FindByFingerprint(ctx, sess, req.Report, fingerprint)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			log.Info("duplicate upload rejected", zap.String("existing_batch_id", existing.ID))
			return nil, &apperr.DuplicateUploadError{
				Report:          string(req.Report),
				Fingerprint:     fingerprint,
				ExistingBatchID: existing.ID,
			}
		}
	}

	period := models.Period{Start: models.Day(req.PeriodStart), End: models.Day(req.PeriodEnd)}
	res, err := s.normalizer.Normalize(req.Report, raw, period)
	if err != nil {
		return nil, err
	}

	b, err := s.batches.CreateBatch(req.Report, req.UploadDate, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	b.Fingerprint = fingerprint
	b.Filename = req.Filename
	b.UploadedBy = sess.Identity.Username
	b.RowCount = len(res.Records)

	var replaced []string
	if req.ConfirmDuplicate {
		if replaced, err = s.replace(ctx, sess, req.Report, fingerprint); err != nil {
			return nil, err
		}
		if len(replaced) > 0 {
			log.Info("confirmed duplicate replaces earlier batches", zap.Strings("replaced", replaced))
		}
	}

	if err := s.data.AppendBatch(ctx, sess, b, batch.Stamp(res.Records, b), req.ConfirmDuplicate); err != nil {
		return nil, err
	}

	log.Info("upload ingested",
		zap.String("batch_id", b.ID),
		zap.Int("rows", b.RowCount),
		zap.Int("dropped", len(res.Dropped)),
		zap.Int("excluded", res.Excluded),
		zap.Int("out_of_range", res.OutOfRange))

	if err := s.archiver.Archive(ctx, archive.Upload{Batch: b, Filename: req.Filename, Content: req.Content}); err != nil {
		log.Warn("archiving upload failed", zap.String("batch_id", b.ID), zap.Error(err))
	}
	return &UploadResult{Batch: b, Normalized: res, Replaced: replaced}, nil
}

// replace removes every batch of report ingested from the same content.
// The caller holds the report lock.
func (s *Service) replace(ctx context.Context, sess *datamanager.Session, report models.Report, fingerprint string) ([]string, error) {
	batches, err := s.data.ReadBatches(ctx, sess, report)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, b := range batches {
		if b.Fingerprint != fingerprint {
			continue
		}
		if _, err := s.data.RemoveBatchRows(ctx, sess, report, b.ID); err != nil {
			return removed, err
		}
		removed = append(removed, b.ID)
	}
	return removed, nil
}
