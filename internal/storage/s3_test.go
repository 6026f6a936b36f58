package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestReportArchiveStore(t *testing.T) {
	fake := &fakeS3{}
	a := newReportArchive(fake, "reports", nil)

	loc, err := a.Store(context.Background(), "e1", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/exports/e1.json", loc)
	assert.Equal(t, "reports", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "application/json", aws.ToString(fake.in.ContentType))
	assert.Equal(t, `{"a":1}`, string(fake.body))
}

func TestReportArchiveStoreError(t *testing.T) {
	a := newReportArchive(&fakeS3{err: errors.New("access denied")}, "reports", nil)
	_, err := a.Store(context.Background(), "e1", []byte(`{}`))
	assert.ErrorContains(t, err, "access denied")
}

func TestNewReportArchiveRequiresBucket(t *testing.T) {
	_, err := NewReportArchive(context.Background(), S3Config{}, nil)
	assert.Error(t, err)
}
