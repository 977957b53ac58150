package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type stubPut struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (s *stubPut) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.input = in
	s.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, s.err
}

func TestArchiveWritesDatedKey(t *testing.T) {
	put := &stubPut{}
	a := &S3Archiver{
		api:    put,
		bucket: "hooks",
		now:    func() time.Time { return time.Date(2030, 1, 15, 9, 0, 0, 0, time.UTC) },
	}

	if err := a.Archive(context.Background(), "evt_1", []byte(`{"id":"evt_1"}`)); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if *put.input.Bucket != "hooks" || *put.input.Key != "webhooks/stripe/2030/01/15/evt_1.json" {
		t.Fatalf("unexpected object: %s/%s", *put.input.Bucket, *put.input.Key)
	}
	if string(put.body) != `{"id":"evt_1"}` {
		t.Fatalf("body = %s", put.body)
	}
}

func TestArchiveWrapsErrors(t *testing.T) {
	boom := errors.New("denied")
	a := &S3Archiver{api: &stubPut{err: boom}, bucket: "hooks", now: time.Now}

	if err := a.Archive(context.Background(), "evt_1", nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
