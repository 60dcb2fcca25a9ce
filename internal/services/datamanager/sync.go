package datamanager

import (
	"context"

	"go.uber.org/zap"

	"law-reports-backend/internal/models"
)

// SyncResult reports which report sheets were rewritten by a resync.
type SyncResult struct {
	Rewritten []models.Report `json:"rewritten"`
	Unchanged []models.Report `json:"unchanged"`
}

// SyncMasterToReports recomputes every report sheet from the master rows.
// Running it twice leaves the sheets identical; unchanged sheets are not written.
func (m *Manager) SyncMasterToReports(ctx context.Context, sess *Session) (SyncResult, error) {
	var res SyncResult
	for _, r := range models.Reports {
		changed, err := m.SyncReport(ctx, sess, r)
		if err != nil {
			return res, err
		}
		if changed {
			res.Rewritten = append(res.Rewritten, r)
		} else {
			res.Unchanged = append(res.Unchanged, r)
		}
	}
	return res, nil
}

// SyncReport rewrites one report sheet from master when its content differs.
func (m *Manager) SyncReport(ctx context.Context, sess *Session, report models.Report) (bool, error) {
	master, err := m.ReadSheet(ctx, sess, models.SheetMaster)
	if err != nil {
		return false, err
	}
	want := models.Table{Header: report.Header(), Rows: [][]string{}}
	for _, rec := range m.decodeReport(master, report) {
		want.Rows = append(want.Rows, models.EncodeRow(want.Header, rec))
	}

	current, err := m.ReadSheet(ctx, sess, string(report))
	if err != nil && !IsNotFound(err) {
		return false, err
	}
	if err == nil && current.Equal(want) {
		return false, nil
	}
	if err := m.WriteSheet(ctx, sess, string(report), want); err != nil {
		return false, err
	}
	m.log.Info("report sheet synced", zap.String("report", string(report)), zap.Int("rows", len(want.Rows)))
	return true, nil
}

// RemoveBatchRows deletes a batch from master and the registry and resyncs the
// report. Unknown ids remove nothing and are not an error.
func (m *Manager) RemoveBatchRows(ctx context.Context, sess *Session, report models.Report, batchID string) (int, error) {
	master, err := m.ReadSheet(ctx, sess, models.SheetMaster)
	if err != nil {
		return 0, err
	}
	kept, removed := withoutBatch(master, report, batchID)

	reg, err := m.ReadSheet(ctx, sess, models.SheetBatches)
	if err != nil {
		return 0, err
	}
	regKept, regRemoved := withoutRegistered(reg, report, batchID)

	if removed == 0 && regRemoved == 0 {
		return 0, nil
	}
	if removed > 0 {
		if err := m.WriteSheet(ctx, sess, models.SheetMaster, kept); err != nil {
			return 0, err
		}
	}
	if regRemoved > 0 {
		if err := m.WriteSheet(ctx, sess, models.SheetBatches, regKept); err != nil {
			return removed, err
		}
	}
	if _, err := m.SyncReport(ctx, sess, report); err != nil {
		return removed, err
	}
	return removed, nil
}

func withoutBatch(t models.Table, report models.Report, batchID string) (models.Table, int) {
	idIdx, repIdx := t.ColumnIndex(models.ColBatchID), t.ColumnIndex(models.ColReport)
	out := models.Table{Header: t.Header, Rows: make([][]string, 0, len(t.Rows))}
	removed := 0
	for _, r := range t.Rows {
		if idIdx >= 0 && repIdx >= 0 && idIdx < len(r) && repIdx < len(r) &&
			r[idIdx] == batchID && r[repIdx] == string(report) {
			removed++
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, removed
}

// withoutRegistered drops the registry row of batchID only when it belongs to report.
func withoutRegistered(t models.Table, report models.Report, batchID string) (models.Table, int) {
	idIdx, repIdx := t.ColumnIndex("batch_id"), t.ColumnIndex("report")
	out := models.Table{Header: t.Header, Rows: make([][]string, 0, len(t.Rows))}
	removed := 0
	for _, r := range t.Rows {
		if idIdx >= 0 && repIdx >= 0 && idIdx < len(r) && repIdx < len(r) &&
			r[idIdx] == batchID && r[repIdx] == string(report) {
			removed++
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, removed
}

// AssignOrphanRows stamps batchID onto master rows of report that have no batch id.
func (m *Manager) AssignOrphanRows(ctx context.Context, sess *Session, report models.Report, batchID string) (int, error) {
	master, err := m.ReadSheet(ctx, sess, models.SheetMaster)
	if err != nil {
		return 0, err
	}
	idIdx, repIdx := master.ColumnIndex(models.ColBatchID), master.ColumnIndex(models.ColReport)
	if idIdx < 0 || repIdx < 0 {
		return 0, nil
	}

	assigned := 0
	for i, r := range master.Rows {
		if repIdx >= len(r) || r[repIdx] != string(report) {
			continue
		}
		for len(r) <= idIdx {
			r = append(r, "")
		}
		if r[idIdx] != "" {
			continue
		}
		r[idIdx] = batchID
		master.Rows[i] = r
		assigned++
	}
	if assigned == 0 {
		return 0, nil
	}
	if err := m.WriteSheet(ctx, sess, models.SheetMaster, master); err != nil {
		return 0, err
	}
	if _, err := m.SyncReport(ctx, sess, report); err != nil {
		return assigned, err
	}
	return assigned, nil
}

// ClearAll empties every sheet but keeps its header. Store calls here are not retried.
func (m *Manager) ClearAll(ctx context.Context, sess *Session) error {
	defer m.invalidate(sess)
	for name, canonical := range models.AllSheets() {
		tab, exists, err := m.resolve(ctx, name)
		if err != nil {
			return err
		}
		header := canonical
		if exists {
			t, err := m.store.Read(ctx, tab)
			if err != nil {
				return err
			}
			if len(t.Header) > 0 {
				header = t.Header
			}
		}
		if err := m.store.Overwrite(ctx, tab, models.Table{Header: header}); err != nil {
			return err
		}
		m.log.Warn("sheet cleared", zap.String("sheet", name), zap.String("tab", tab))
	}
	return nil
}
