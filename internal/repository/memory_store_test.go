package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Overwrite(ctx, "Ingestion_Master", models.Table{Header: []string{"Name"}}))
	require.NoError(t, s.Append(ctx, "Ingestion_Master", [][]string{{"Jane"}, {"John"}}))

	got, err := s.Read(ctx, "Ingestion_Master")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Jane"}, {"John"}}, got.Rows)

	names, err := s.ListSheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ingestion_Master"}, names)
}

func TestMemoryStoreReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Overwrite(ctx, "t", models.Table{Header: []string{"a"}, Rows: [][]string{{"1"}}}))

	got, err := s.Read(ctx, "t")
	require.NoError(t, err)
	got.Rows[0][0] = "changed"

	again, err := s.Read(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "1", again.Rows[0][0])
}

func TestMemoryStoreMissingSheet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Read(ctx, "missing")
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.ErrorIs(t, err, apperr.ErrStoreFatal)

	err = s.Append(ctx, "missing", [][]string{{"x"}})
	assert.ErrorIs(t, err, ErrSheetNotFound)

	ok, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
