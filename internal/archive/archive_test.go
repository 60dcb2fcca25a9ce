package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "law-reports-backend/internal/config"
	"law-reports-backend/internal/models"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func testUpload() Upload {
	return Upload{
		Batch: models.Batch{
			ID:          "batch_1",
			Report:      models.ReportCalls,
			Fingerprint: "abc123",
			UploadedBy:  "jdoe",
			PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		Filename: "Calls.CSV",
		Content:  []byte("Name\nJane\n"),
	}
}

func TestS3ArchiverPutsObject(t *testing.T) {
	fake := &fakeS3{}
	a := NewS3Archiver(fake, "reports-bucket", "/uploads/", nil)

	require.NoError(t, a.Archive(context.Background(), testUpload()))
	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "reports-bucket", aws.ToString(fake.inputs[0].Bucket))
	assert.Equal(t, "uploads/calls/2024-01/abc123.csv", aws.ToString(fake.inputs[0].Key))
	assert.Equal(t, "batch_1", fake.inputs[0].Metadata["batch-id"])
	assert.Equal(t, "Name\nJane\n", string(fake.bodies[0]))
}

func TestS3ArchiverWrapsError(t *testing.T) {
	a := NewS3Archiver(&fakeS3{err: errors.New("access denied")}, "b", "", nil)
	err := a.Archive(context.Background(), testUpload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewDisabledIsNop(t *testing.T) {
	a, err := New(context.Background(), appconfig.ArchiveConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, a)
	assert.NoError(t, a.Archive(context.Background(), testUpload()))
}
