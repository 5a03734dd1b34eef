package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return b
}

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	if _, err := s.Put(ctx, "../escape.pdf", "application/pdf", []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}

	info, err := s.Put(ctx, "reports/a.pdf", "application/pdf", []byte("%PDF-a"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 6 {
		t.Errorf("expected size 6, got %d", info.Size)
	}

	rc, got, err := s.Get(ctx, "reports/a.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(readAll(t, rc), []byte("%PDF-a")) {
		t.Error("content mismatch")
	}
	if got.ContentType != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", got.ContentType)
	}

	if _, err := s.Put(ctx, "other/b.xlsx", ContentTypeFor("b.xlsx"), []byte("PK")); err != nil {
		t.Fatalf("put: %v", err)
	}
	items, err := s.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Key != "reports/a.pdf" {
		t.Errorf("unexpected list result %+v", items)
	}

	if err := s.Delete(ctx, "reports/a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := s.Get(ctx, "reports/a.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_DeleteMissing(t *testing.T) {
	if err := NewMemoryStore().Delete(context.Background(), "nope.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	_, _ = s.Put(ctx, "r/1.pdf", "application/pdf", nil)
	_, _ = s.Put(ctx, "r/2.pdf", "application/pdf", nil)

	items, _ := s.List(ctx, "")
	if len(items) != 2 || items[0].Key != "r/2.pdf" {
		t.Errorf("expected newest first, got %+v", items)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, s)
}

func TestFileStore_IgnoresPartialFiles(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "half.pdf.123"+tmpSuffix), []byte("%PDF"), 0o600); err != nil {
		t.Fatal(err)
	}
	items, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected temp files to be hidden, got %+v", items)
	}
}

func TestValidateKey(t *testing.T) {
	good := []string{"a.pdf", "reports/2024/a.pdf"}
	bad := []string{"", "/abs.pdf", "a/../b.pdf", "..", `a\b.pdf`, "a//b.pdf"}
	for _, k := range good {
		if err := ValidateKey(k); err != nil {
			t.Errorf("%q: unexpected error %v", k, err)
		}
	}
	for _, k := range bad {
		if err := ValidateKey(k); err == nil {
			t.Errorf("%q: expected error", k)
		}
	}
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = b
	f.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(b)),
		ContentType:   aws.String(f.types[*in.Key]),
		ContentLength: aws.Int64(int64(len(b))),
		LastModified:  aws.Time(time.Now()),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	prefix := aws.ToString(in.Prefix)
	for k, b := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out.Contents = append(out.Contents, s3types.Object{
				Key:          aws.String(k),
				Size:         aws.Int64(int64(len(b))),
				LastModified: aws.Time(time.Now()),
			})
		}
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	exerciseStore(t, NewS3Store(newFakeS3(), "ward-exports"))
}
