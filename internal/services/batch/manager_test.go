package batch

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/repository"
	"law-reports-backend/internal/services/datamanager"
)

func newTestManager(t *testing.T) (*Manager, *datamanager.Manager, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	data := datamanager.New(store, nil, nil)
	require.NoError(t, data.EnsureSheets(context.Background()))
	return NewManager(data, nil, nil), data, store
}

func signedIn() *datamanager.Session {
	return datamanager.NewSession("s1", models.Identity{Username: "jdoe", Authenticated: true}, time.Minute)
}

func jan(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

func TestNewIDIsPrefixedAndOrdered(t *testing.T) {
	var ids []string
	for i := 0; i < 50; i++ {
		id, err := NewID()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(id, "batch_"))
		ids = append(ids, id)
	}
	assert.True(t, sort.StringsAreSorted(ids))

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestCreateBatchValidatesPeriod(t *testing.T) {
	m, _, _ := newTestManager(t)

	b, err := m.CreateBatch(models.ReportCalls, time.Time{}, jan(1), jan(31))
	require.NoError(t, err)
	assert.Equal(t, models.ReportCalls, b.Report)
	assert.Equal(t, "2024-01", b.Period().Key())
	assert.False(t, b.UploadDate.IsZero())

	_, err = m.CreateBatch(models.ReportCalls, time.Time{}, jan(20), time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC))
	var ip *apperr.InvalidPeriodError
	assert.ErrorAs(t, err, &ip)
}

func TestStamp(t *testing.T) {
	b := models.Batch{ID: "batch_x", Report: models.ReportLeads, PeriodStart: jan(1), PeriodEnd: jan(31), UploadDate: jan(31)}
	out := Stamp([]models.Record{{Name: "A"}, {Name: "B"}}, b)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, "batch_x", r.BatchID)
		assert.Equal(t, models.ReportLeads, r.Report)
		assert.Equal(t, jan(1), r.BatchStart)
	}
}

func appendBatch(t *testing.T, m *Manager, data *datamanager.Manager, sess *datamanager.Session, fp string, n int) models.Batch {
	t.Helper()
	b, err := m.CreateBatch(models.ReportCalls, jan(31), jan(1), jan(31))
	require.NoError(t, err)
	b.Fingerprint = fp
	recs := make([]models.Record, n)
	for i := range recs {
		recs[i] = models.Record{Name: "Jane Doe", Category: "Intake", Period: "2024-01", Total: 1}
	}
	b.RowCount = n
	require.NoError(t, data.AppendBatch(context.Background(), sess, b, Stamp(recs, b), false))
	return b
}

func TestRemoveBatchTwice(t *testing.T) {
	m, data, _ := newTestManager(t)
	sess := signedIn()
	ctx := context.Background()
	b := appendBatch(t, m, data, sess, "fp", 3)

	n, err := m.RemoveBatch(ctx, sess, models.ReportCalls, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.RemoveBatch(ctx, sess, models.ReportCalls, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = m.RemoveBatch(ctx, sess, models.ReportCalls, "batch_unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMutationsRequireIdentity(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	anon := datamanager.NewSession("anon", models.Anonymous, time.Minute)

	_, err := m.RemoveBatch(ctx, anon, models.ReportCalls, "batch_1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	err = m.MasterReset(ctx, nil, ResetConfirmation)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, _, err = m.AssignOrphans(ctx, anon, models.ReportCalls, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestMasterResetRequiresConfirmation(t *testing.T) {
	m, data, store := newTestManager(t)
	sess := signedIn()
	ctx := context.Background()
	appendBatch(t, m, data, sess, "fp", 2)

	err := m.MasterReset(ctx, sess, "reset")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, m.MasterReset(ctx, sess, ResetConfirmation))
	master, err := store.Read(ctx, "Ingestion_Master")
	require.NoError(t, err)
	assert.Equal(t, models.MasterHeader(), master.Header)
	assert.Empty(t, master.Rows)

	batches, err := m.ListBatches(ctx, sess, "")
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestAssignOrphansRegistersBatch(t *testing.T) {
	m, _, store := newTestManager(t)
	sess := signedIn()
	ctx := context.Background()

	orphan := models.StampedRecord{Report: models.ReportCalls, Record: models.Record{Name: "Jane Doe", Category: "Intake", Period: "2023-12", Total: 4}}
	require.NoError(t, store.Append(ctx, "Ingestion_Master", [][]string{
		models.EncodeRow(models.MasterHeader(), orphan),
		models.EncodeRow(models.MasterHeader(), orphan),
	}))

	id, n, err := m.AssignOrphans(ctx, sess, models.ReportCalls, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(id, "batch_"))

	batches, err := m.ListBatches(ctx, sess, models.ReportCalls)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, id, batches[0].ID)
	assert.Equal(t, 2, batches[0].RowCount)

	removed, err := m.RemoveBatch(ctx, sess, models.ReportCalls, id)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestListBatchesNewestFirst(t *testing.T) {
	m, data, _ := newTestManager(t)
	sess := signedIn()
	first := appendBatch(t, m, data, sess, "a", 1)
	second := appendBatch(t, m, data, sess, "b", 1)

	batches, err := m.ListBatches(context.Background(), sess, models.ReportCalls)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, second.ID, batches[0].ID)
	assert.Equal(t, first.ID, batches[1].ID)
}

func TestLocksSerializeWriters(t *testing.T) {
	l := NewLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(models.ReportCalls)
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)

	unlockAll := l.LockAll()
	unlockAll()
}

func TestSyncWaitsForReportLocks(t *testing.T) {
	m, data, _ := newTestManager(t)
	sess := signedIn()
	appendBatch(t, m, data, sess, "fp", 2)

	unlock := m.locks.Lock(models.ReportCalls)
	done := make(chan error, 1)
	go func() {
		_, err := m.Sync(context.Background(), sess)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("sync finished while a report lock was held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sync did not finish after the lock was released")
	}
}

func TestSyncRequiresIdentity(t *testing.T) {
	m, _, _ := newTestManager(t)
	anon := datamanager.NewSession("anon", models.Anonymous, time.Minute)

	_, err := m.Sync(context.Background(), anon)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
