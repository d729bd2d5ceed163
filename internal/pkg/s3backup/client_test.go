package s3backup

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts          []*s3.PutObjectInput
	bodies        [][]byte
	putErr        error
	headErr       error
	createdBucket *s3.CreateBucketInput
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createdBucket = in
	return &s3.CreateBucketOutput{}, nil
}

func TestGetObjectKey(t *testing.T) {
	cfg := &Config{Prefix: "webhooks"}
	receivedAt := time.Date(2025, time.March, 7, 23, 30, 0, 0, time.FixedZone("BRT", -3*3600))

	assert.Equal(t, "webhooks/2025/03/08/abc.json", cfg.GetObjectKey("abc", receivedAt))
}

func TestArchiveWebhookPayload(t *testing.T) {
	fake := &fakeS3{}
	client := &Client{s3Client: fake, config: &Config{BucketName: "archive", Prefix: "webhooks"}}
	receivedAt := time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)

	err := client.ArchiveWebhookPayload(context.Background(), "sha256:abc", receivedAt, []byte(`{"id":"tx_1"}`))
	require.NoError(t, err)
	require.Len(t, fake.puts, 1)

	put := fake.puts[0]
	assert.Equal(t, "archive", aws.ToString(put.Bucket))
	assert.Regexp(t, regexp.MustCompile(`^webhooks/2025/01/02/[0-9a-f-]{36}\.json$`), aws.ToString(put.Key))
	assert.Equal(t, "application/json", aws.ToString(put.ContentType))
	assert.Equal(t, "sha256:abc", put.Metadata["event-key"])
	assert.Equal(t, `{"id":"tx_1"}`, string(fake.bodies[0]))
}

func TestArchiveWebhookPayload_Error(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("access denied")}
	client := &Client{s3Client: fake, config: &Config{BucketName: "archive", Prefix: "webhooks"}}

	err := client.ArchiveWebhookPayload(context.Background(), "k", time.Now(), []byte(`{}`))
	assert.ErrorContains(t, err, "access denied")
}

func TestTestConnection_CreatesMissingBucketOutsideProd(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	fake := &fakeS3{headErr: errors.New("not found")}
	client := &Client{s3Client: fake, config: &Config{BucketName: "archive", Region: "sa-east-1"}}

	require.NoError(t, client.testConnection(context.Background()))
	require.NotNil(t, fake.createdBucket)
	assert.Equal(t, "archive", aws.ToString(fake.createdBucket.Bucket))
	require.NotNil(t, fake.createdBucket.CreateBucketConfiguration)
}

func TestTestConnection_FailsInProd(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	fake := &fakeS3{headErr: errors.New("not found")}
	client := &Client{s3Client: fake, config: &Config{BucketName: "archive"}}

	assert.Error(t, client.testConnection(context.Background()))
	assert.Nil(t, fake.createdBucket)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("S3_ARCHIVE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "")
	t.Setenv("S3_BUCKET_NAME", "archive")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "S3_SECRET_ACCESS_KEY")

	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, "webhooks", cfg.Prefix)
}
