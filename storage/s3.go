package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// S3Backend archives audit records in Amazon S3 or a compatible object
// store. Audit trails of fiscal transmissions are retained for dispute
// resolution, so objects are written private; there is no public-read path.
type S3Backend struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Backend creates a new S3 audit backend. Credentials may be empty, in
// which case the SDK's default credential chain applies (instance roles,
// environment, shared config).
func NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, prefix, region)
	}
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		// Compatible stores (MinIO, localstack) require path-style access.
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Backend{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.TrimSuffix(prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Store uploads the record as a JSON object keyed by the record ID.
func (b *S3Backend) Store(ctx context.Context, record interfaces.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize audit record: %w", err)
	}

	key := b.objectKey(record.ID)
	_, err = b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload audit record to S3: %w", err)
	}

	b.log.Debug("Stored audit record in S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)))
	return nil
}

// Fetch retrieves a record by ID. Returns ErrRecordNotFound if the object
// does not exist.
func (b *S3Backend) Fetch(ctx context.Context, id string) (interfaces.AuditRecord, error) {
	start := time.Now()
	key := b.objectKey(id)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return interfaces.AuditRecord{}, interfaces.ErrRecordNotFound
		}
		return interfaces.AuditRecord{}, fmt.Errorf("failed to get audit record from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return interfaces.AuditRecord{}, fmt.Errorf("failed to read audit record body: %w", err)
	}

	var record interfaces.AuditRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return interfaces.AuditRecord{}, fmt.Errorf("failed to decode audit record: %w", err)
	}

	b.log.Debug("Fetched audit record from S3",
		slog.String("key", key),
		slog.Duration("duration", time.Since(start)))
	return record, nil
}

// Available checks if the bucket is reachable.
func (b *S3Backend) Available(ctx context.Context) bool {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Warn("S3 audit backend unavailable",
			slog.String("bucket", b.bucketName), "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this backend.
func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

// LocationURI returns the URI that identifies this backend, with credentials
// masked.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

func (b *S3Backend) objectKey(id string) string {
	return path.Join(b.prefix, id+".json")
}
