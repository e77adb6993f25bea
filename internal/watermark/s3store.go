package watermark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store persists watermarks as one text object per table at the well-known
// metadata key (etl-metadata/<table>/last_processed_timestamp.txt) inside the
// data lake bucket.
type S3Store struct {
	api    s3iface.S3API
	bucket string
}

// NewS3Store creates an S3-backed watermark store for the given bucket.
func NewS3Store(api s3iface.S3API, bucket string) *S3Store {
	return &S3Store{api: api, bucket: bucket}
}

// Read returns the stored watermark for a table, or ErrNotFound.
func (s *S3Store) Read(ctx context.Context, table string) (Watermark, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(Key(table)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return Watermark{}, ErrNotFound
		}
		return Watermark{}, fmt.Errorf("failed to read watermark for %s: %w", table, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Watermark{}, fmt.Errorf("failed to read watermark body for %s: %w", table, err)
	}

	w, err := Parse(string(data))
	if err != nil {
		return Watermark{}, fmt.Errorf("failed to parse watermark for %s: %w", table, err)
	}
	return w, nil
}

// Write overwrites the stored watermark object for a table.
func (s *S3Store) Write(ctx context.Context, table string, w Watermark) error {
	_, err := s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(Key(table)),
		Body:        bytes.NewReader([]byte(w.String())),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("failed to write watermark for %s: %w", table, err)
	}
	return nil
}

// Delete removes the stored watermark object for a table.
func (s *S3Store) Delete(ctx context.Context, table string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(Key(table)),
	})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("failed to delete watermark for %s: %w", table, err)
	}
	return nil
}

// isNoSuchKey reports whether err is a missing-object error from S3.
func isNoSuchKey(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		code := aerr.Code()
		return code == s3.ErrCodeNoSuchKey || code == "NotFound"
	}
	return false
}
