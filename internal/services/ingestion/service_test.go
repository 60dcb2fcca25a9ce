package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/archive"
	"law-reports-backend/internal/config"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/repository"
	"law-reports-backend/internal/services/aggregator"
	"law-reports-backend/internal/services/batch"
	"law-reports-backend/internal/services/datamanager"
	"law-reports-backend/internal/services/normalizer"
)

type recordingArchiver struct {
	uploads []archive.Upload
	err     error
}

func (r *recordingArchiver) Archive(_ context.Context, u archive.Upload) error {
	r.uploads = append(r.uploads, u)
	return r.err
}

type fixture struct {
	svc      *Service
	data     *datamanager.Manager
	store    *repository.MemoryStore
	archiver *recordingArchiver
	sess     *datamanager.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	data := datamanager.New(store, nil, nil)
	require.NoError(t, data.EnsureSheets(context.Background()))

	locks := batch.NewLocks()
	norm := normalizer.New(config.RostersConfig{
		Staff: config.RosterConfig{
			Allowed:    []string{"Jane Doe", "John Roe"},
			Categories: map[string]string{"Jane Doe": "Intake", "John Roe": "Receptionist"},
		},
	}, config.IngestConfig{}, nil)
	arch := &recordingArchiver{}

	return &fixture{
		svc:      NewService(data, batch.NewManager(data, locks, nil), norm, arch, locks, nil),
		data:     data,
		store:    store,
		archiver: arch,
		sess:     datamanager.NewSession("s1", models.Identity{Username: "jdoe", Authenticated: true}, time.Minute),
	}
}

const janeCSV = "Name,Total Calls,Completed Calls,Avg Call Time\nJane Doe,10,8,5m\nJane Doe,5,5,3m\nStranger,3,3,1m\n"

func request(content string) UploadRequest {
	return UploadRequest{
		Report:      models.ReportCalls,
		Filename:    "calls.csv",
		Content:     []byte(content),
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestUploadEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, f.sess, request(janeCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Batch.RowCount)
	assert.Equal(t, 1, res.Normalized.Excluded)
	assert.Equal(t, "jdoe", res.Batch.UploadedBy)
	assert.Len(t, res.Batch.Fingerprint, 64)
	require.Len(t, f.archiver.uploads, 1)

	records, err := f.data.ReadRecords(ctx, f.sess, models.ReportCalls)
	require.NoError(t, err)
	plain := make([]models.Record, len(records))
	for i, r := range records {
		plain[i] = r.Record
		assert.Equal(t, res.Batch.ID, r.BatchID)
	}

	rows := aggregator.Aggregate(plain, models.DimPeriod, models.DimCategory, models.DimName)
	require.Len(t, rows, 1)
	assert.Equal(t, 15, rows[0].Total)
	assert.Equal(t, 13, rows[0].Completed)
	assert.Equal(t, 86.67, rows[0].CompletionPct)
	assert.InDelta(t, 260, rows[0].AvgSeconds, 1e-9)
}

func TestUploadDuplicateDetection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, f.sess, request(janeCSV))
	require.NoError(t, err)

	_, err = f.svc.Upload(ctx, f.sess, request(janeCSV))
	var dup *apperr.DuplicateUploadError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.Batch.ID, dup.ExistingBatchID)

	changed, err := f.svc.Upload(ctx, f.sess, request(janeCSV+" "))
	require.NoError(t, err)
	assert.NotEqual(t, first.Batch.ID, changed.Batch.ID)

	req := request(janeCSV)
	req.ConfirmDuplicate = true
	forced, err := f.svc.Upload(ctx, f.sess, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Batch.ID, forced.Batch.ID)
	assert.Equal(t, []string{first.Batch.ID}, forced.Replaced)

	// the replaced batch is gone, so totals are not doubled
	records, err := f.data.ReadRecords(ctx, f.sess, models.ReportCalls)
	require.NoError(t, err)
	byBatch := map[string]int{}
	for _, r := range records {
		byBatch[r.BatchID] += r.Total
	}
	assert.Equal(t, map[string]int{changed.Batch.ID: 15, forced.Batch.ID: 15}, byBatch)

	batches, err := f.data.ReadBatches(ctx, f.sess, models.ReportCalls)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}

func TestUploadFailuresLeaveStoreUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := map[string]UploadRequest{
		"missing columns": request("Name,Total Calls\nJane Doe,1\n"),
		"empty file":      request(""),
		"two months": func() UploadRequest {
			r := request(janeCSV)
			r.PeriodEnd = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
			return r
		}(),
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Upload(ctx, f.sess, req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	master, err := f.store.Read(ctx, "Ingestion_Master")
	require.NoError(t, err)
	assert.Empty(t, master.Rows)
	reg, err := f.store.Read(ctx, "Batch_Registry")
	require.NoError(t, err)
	assert.Empty(t, reg.Rows)
}

func TestUploadRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), nil, request(janeCSV))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestUploadUnknownReport(t *testing.T) {
	f := newFixture(t)
	req := request(janeCSV)
	req.Report = "payroll"
	_, err := f.svc.Upload(context.Background(), f.sess, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestArchiveFailureDoesNotFailUpload(t *testing.T) {
	f := newFixture(t)
	f.archiver.err = errors.New("s3 down")
	_, err := f.svc.Upload(context.Background(), f.sess, request(janeCSV))
	assert.NoError(t, err)
}
