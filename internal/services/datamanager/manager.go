// Package datamanager owns every read and write against the remote sheet store:
// the append-only master sheet, the batch registry and the per-report sheets.
package datamanager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/pkg/retry"
	"law-reports-backend/internal/repository"
)

type Manager struct {
	store repository.SheetStore
	retry *retry.Policy
	log   *zap.Logger

	// generation is bumped on every write; cached tables from older generations are stale
	generation atomic.Uint64

	mu   sync.Mutex
	tabs map[string]string // logical sheet -> resolved tab title
}

func New(store repository.SheetStore, policy *retry.Policy, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if policy == nil {
		policy = retry.NewPolicy(0, 0, 0, log)
	}
	return &Manager{
		store: store,
		retry: policy,
		log:   log,
		tabs:  make(map[string]string),
	}
}

// Fingerprint identifies upload content: SHA-256 of the raw bytes, hex encoded.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// EnsureSheets creates any missing sheet with its canonical header.
// A sheet already present under a legacy title is adopted instead.
func (m *Manager) EnsureSheets(ctx context.Context) error {
	m.mu.Lock()
	m.tabs = make(map[string]string)
	m.mu.Unlock()

	for name, header := range models.AllSheets() {
		tab, exists, err := m.resolve(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		err = m.retry.Do(ctx, "create "+tab, func(ctx context.Context, _ int) error {
			return m.store.Overwrite(ctx, tab, models.Table{Header: header})
		})
		if err != nil {
			return err
		}
		m.log.Info("created sheet", zap.String("sheet", name), zap.String("tab", tab))
	}
	m.bump()
	return nil
}

// resolve finds the tab for a logical sheet, checking legacy titles when the
// canonical one is absent.
func (m *Manager) resolve(ctx context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	tab, ok := m.tabs[name]
	m.mu.Unlock()
	if ok {
		return tab, true, nil
	}

	candidates := append([]string{models.TabTitle(name)}, models.TabFallbacks(name)...)
	for _, c := range candidates {
		var exists bool
		err := m.retry.Do(ctx, "exists "+c, func(ctx context.Context, _ int) (err error) {
			exists, err = m.store.Exists(ctx, c)
			return err
		})
		if err != nil {
			return "", false, err
		}
		if exists {
			m.mu.Lock()
			m.tabs[name] = c
			m.mu.Unlock()
			return c, true, nil
		}
	}
	return models.TabTitle(name), false, nil
}

func (m *Manager) tab(ctx context.Context, name string) (string, error) {
	tab, exists, err := m.resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", apperr.Fatal("resolve "+name, fmt.Errorf("%w: %s", repository.ErrSheetNotFound, tab))
	}
	return tab, nil
}

func (m *Manager) bump() {
	m.generation.Add(1)
}

// ReadSheet returns a logical sheet, served from the session cache when fresh.
func (m *Manager) ReadSheet(ctx context.Context, sess *Session, name string) (models.Table, error) {
	gen := m.generation.Load()
	if sess != nil {
		if t, ok := sess.get(name, gen); ok {
			return t, nil
		}
	}

	tab, err := m.tab(ctx, name)
	if err != nil {
		return models.Table{}, err
	}
	var t models.Table
	err = m.retry.Do(ctx, "read "+tab, func(ctx context.Context, _ int) (err error) {
		t, err = m.store.Read(ctx, tab)
		return err
	})
	if err != nil {
		return models.Table{}, err
	}
	if sess != nil {
		sess.put(name, t, gen)
	}
	return t, nil
}

// WriteSheet replaces a logical sheet and invalidates the caches.
func (m *Manager) WriteSheet(ctx context.Context, sess *Session, name string, t models.Table) error {
	tab, _, err := m.resolve(ctx, name)
	if err != nil {
		return err
	}
	defer m.invalidate(sess)
	return m.retry.Do(ctx, "overwrite "+tab, func(ctx context.Context, _ int) error {
		return m.store.Overwrite(ctx, tab, t)
	})
}

func (m *Manager) invalidate(sess *Session) {
	m.bump()
	if sess != nil {
		sess.Invalidate()
	}
}

// ReadRecords decodes the master rows of one report, in master order.
func (m *Manager) ReadRecords(ctx context.Context, sess *Session, report models.Report) ([]models.StampedRecord, error) {
	master, err := m.ReadSheet(ctx, sess, models.SheetMaster)
	if err != nil {
		return nil, err
	}
	return m.decodeReport(master, report), nil
}

func (m *Manager) decodeReport(master models.Table, report models.Report) []models.StampedRecord {
	reportIdx := master.ColumnIndex(models.ColReport)
	var out []models.StampedRecord
	for i, row := range master.Rows {
		if reportIdx < 0 || reportIdx >= len(row) || row[reportIdx] != string(report) {
			continue
		}
		rec, err := models.DecodeRow(master.Header, row)
		if err != nil {
			m.log.Warn("skipping undecodable master row",
				zap.String("report", string(report)), zap.Int("row", i+2), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ReadBatches lists the registry, optionally restricted to one report.
func (m *Manager) ReadBatches(ctx context.Context, sess *Session, report models.Report) ([]models.Batch, error) {
	reg, err := m.ReadSheet(ctx, sess, models.SheetBatches)
	if err != nil {
		return nil, err
	}
	var out []models.Batch
	for i, row := range reg.Rows {
		b, err := models.ParseBatchRow(reg.Header, row)
		if err != nil {
			m.log.Warn("skipping bad registry row", zap.Int("row", i+2), zap.Error(err))
			continue
		}
		if report != "" && b.Report != report {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// FindByFingerprint returns the registered batch with the same content, if any.
func (m *Manager) FindByFingerprint(ctx context.Context, sess *Session, report models.Report, fingerprint string) (*models.Batch, error) {
	batches, err := m.ReadBatches(ctx, sess, report)
	if err != nil {
		return nil, err
	}
	for i := range batches {
		if batches[i].Fingerprint == fingerprint {
			return &batches[i], nil
		}
	}
	return nil, nil
}

// AppendBatch persists a stamped batch: registry entry first, then the rows at the
// end of the master sheet, then a resync of the report sheet. A retried append
// first removes whatever the failed attempt managed to land.
func (m *Manager) AppendBatch(ctx context.Context, sess *Session, batch models.Batch, stamped []models.StampedRecord, confirmDuplicate bool) error {
	if batch.Fingerprint != "" && !confirmDuplicate {
		existing, err := m.FindByFingerprint(ctx, sess, batch.Report, batch.Fingerprint)
		if err != nil {
			return err
		}
		if existing != nil {
			return &apperr.DuplicateUploadError{
				Report:          string(batch.Report),
				Fingerprint:     batch.Fingerprint,
				ExistingBatchID: existing.ID,
			}
		}
	}
	defer m.invalidate(sess)

	regTab, err := m.tab(ctx, models.SheetBatches)
	if err != nil {
		return err
	}
	if err := m.appendOnce(ctx, regTab, "batch_id", batch.ID, [][]string{batch.Row()}); err != nil {
		return fmt.Errorf("registering batch %s: %w", batch.ID, err)
	}

	masterTab, err := m.tab(ctx, models.SheetMaster)
	if err != nil {
		return err
	}
	header, err := m.masterHeader(ctx, masterTab)
	if err != nil {
		return err
	}
	rows := make([][]string, len(stamped))
	for i, r := range stamped {
		r.Report = batch.Report
		rows[i] = models.EncodeRow(header, r)
	}
	if err := m.appendOnce(ctx, masterTab, models.ColBatchID, batch.ID, rows); err != nil {
		m.log.Error("master append failed, rolling back batch",
			zap.String("batch_id", batch.ID), zap.Error(err))
		// The registry entry goes only once master holds none of the batch's rows;
		// otherwise it stays so the fingerprint keeps blocking a re-upload.
		if rbErr := m.removeRows(ctx, masterTab, models.ColBatchID, batch.ID); rbErr != nil {
			m.log.Error("removing partial master rows failed, batch stays registered",
				zap.String("batch_id", batch.ID), zap.Error(rbErr))
		} else if rbErr := m.removeRows(ctx, regTab, "batch_id", batch.ID); rbErr != nil {
			m.log.Error("unregistering batch failed", zap.String("batch_id", batch.ID), zap.Error(rbErr))
		}
		m.bump()
		return fmt.Errorf("appending batch %s: %w", batch.ID, err)
	}

	m.log.Info("batch appended",
		zap.String("batch_id", batch.ID),
		zap.String("report", string(batch.Report)),
		zap.Int("rows", len(rows)))

	m.bump()
	if _, err := m.SyncReport(ctx, sess, batch.Report); err != nil {
		return fmt.Errorf("syncing %s after batch %s: %w", batch.Report, batch.ID, err)
	}
	return nil
}

// appendOnce appends rows tagged with id in column col. Retries clear a partial
// landing of the same id before appending again, so rows never double up.
func (m *Manager) appendOnce(ctx context.Context, tab, col, id string, rows [][]string) error {
	return m.retry.Do(ctx, "append "+tab, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			t, err := m.store.Read(ctx, tab)
			if err != nil {
				return err
			}
			kept, removed := withoutID(t, col, id)
			if removed > 0 {
				m.log.Warn("removing partial append before retry",
					zap.String("tab", tab), zap.String("id", id), zap.Int("rows", removed))
				if err := m.store.Overwrite(ctx, tab, kept); err != nil {
					return err
				}
			}
		}
		return m.store.Append(ctx, tab, rows)
	})
}

func (m *Manager) removeRows(ctx context.Context, tab, col, id string) error {
	return m.retry.Do(ctx, "remove "+id, func(ctx context.Context, _ int) error {
		t, err := m.store.Read(ctx, tab)
		if err != nil {
			return err
		}
		kept, removed := withoutID(t, col, id)
		if removed == 0 {
			return nil
		}
		return m.store.Overwrite(ctx, tab, kept)
	})
}

// masterHeader reads the live master header, writing the canonical one into an
// empty sheet. A header missing canonical columns is a fatal store error.
func (m *Manager) masterHeader(ctx context.Context, tab string) ([]string, error) {
	var t models.Table
	err := m.retry.Do(ctx, "read "+tab, func(ctx context.Context, _ int) (err error) {
		t, err = m.store.Read(ctx, tab)
		return err
	})
	if err != nil {
		return nil, err
	}
	canonical := models.MasterHeader()
	if len(t.Header) == 0 && len(t.Rows) == 0 {
		err := m.retry.Do(ctx, "overwrite "+tab, func(ctx context.Context, _ int) error {
			return m.store.Overwrite(ctx, tab, models.Table{Header: canonical})
		})
		return canonical, err
	}

	var missing []string
	for _, c := range canonical {
		if (models.Table{Header: t.Header}).ColumnIndex(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Fatal("append "+tab, fmt.Errorf("master header is missing columns %v", missing))
	}
	return t.Header, nil
}

// withoutID returns t minus rows whose col equals id.
func withoutID(t models.Table, col, id string) (models.Table, int) {
	idx := t.ColumnIndex(col)
	out := models.Table{Header: t.Header, Rows: make([][]string, 0, len(t.Rows))}
	if idx < 0 {
		out.Rows = append(out.Rows, t.Rows...)
		return out, 0
	}
	removed := 0
	for _, r := range t.Rows {
		if idx < len(r) && r[idx] == id {
			removed++
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, removed
}

// IsNotFound reports whether err is a missing sheet.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrSheetNotFound)
}
