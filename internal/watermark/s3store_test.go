package watermark

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3 is an in-memory object store behind the S3 API surface.
type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.StringValue(input.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(input.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreReadMissing(t *testing.T) {
	store := NewS3Store(newFakeS3(), "test-bucket")

	_, err := store.Read(context.Background(), "orders")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3StoreWriteReadRoundTrip(t *testing.T) {
	api := newFakeS3()
	store := NewS3Store(api, "test-bucket")
	ctx := context.Background()

	w := New(time.Date(2026, 8, 27, 10, 30, 45, 0, time.UTC))
	if err := store.Write(ctx, "orders", w); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Stored at the well-known metadata key
	if _, ok := api.objects["etl-metadata/orders/last_processed_timestamp.txt"]; !ok {
		t.Fatal("expected watermark object at metadata key")
	}

	got, err := store.Read(ctx, "orders")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != w {
		t.Errorf("expected %v, got %v", w, got)
	}
}

func TestS3StoreReadCorrupt(t *testing.T) {
	api := newFakeS3()
	api.objects[Key("orders")] = []byte("garbage")
	store := NewS3Store(api, "test-bucket")

	_, err := store.Read(context.Background(), "orders")
	if err == nil {
		t.Fatal("expected error for corrupt watermark")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("corrupt watermark must not map to ErrNotFound")
	}
}

func TestS3StoreReadTransportError(t *testing.T) {
	api := newFakeS3()
	api.getErr = awserr.New("InternalError", "boom", nil)
	store := NewS3Store(api, "test-bucket")

	_, err := store.Read(context.Background(), "orders")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("transport error must not map to ErrNotFound")
	}
}

func TestS3StoreDelete(t *testing.T) {
	api := newFakeS3()
	store := NewS3Store(api, "test-bucket")
	ctx := context.Background()

	w := New(time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC))
	if err := store.Write(ctx, "orders", w); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := store.Delete(ctx, "orders"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Read(ctx, "orders"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
