package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStore keeps the ledger as a single CSV object in a GCS bucket. Appends
// use optimistic concurrency: read the object and its generation, rewrite
// the whole CSV guarded by IfGenerationMatch (DoesNotExist on first write),
// and retry with backoff when the precondition fails because another CI run
// won the race.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
	retry  RetryPolicy
}

// NewGCSStore dials GCS. credentialsFile may be empty to use ambient
// credentials (workload identity in CI).
func NewGCSStore(ctx context.Context, bucket, object, credentialsFile string, retry RetryPolicy) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, object: object, retry: retry}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) ReadAll(ctx context.Context) (*Ledger, error) {
	l, _, err := s.snapshot(ctx)
	return l, err
}

// snapshot reads the current ledger and the object generation it came from.
// A missing object is an empty ledger at generation zero.
func (s *GCSStore) snapshot(ctx context.Context) (*Ledger, int64, error) {
	rd, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return New(), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading gs://%s/%s: %w", s.bucket, s.object, err)
	}
	defer func() { _ = rd.Close() }()

	gen := rd.Attrs.Generation
	l, err := Decode(rd)
	if err != nil {
		return nil, 0, fmt.Errorf("gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return l, gen, nil
}

func (s *GCSStore) Append(ctx context.Context, rec Record) (AppendResult, error) {
	var result AppendResult

	attempt := func() error {
		l, gen, err := s.snapshot(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if l.Contains(rec.CommitSHA) {
			result = SkippedDuplicate
			return nil
		}
		l.Add(rec)

		var buf bytes.Buffer
		if err := l.Encode(&buf); err != nil {
			return backoff.Permanent(err)
		}

		cond := storage.Conditions{GenerationMatch: gen}
		if gen == 0 {
			cond = storage.Conditions{DoesNotExist: true}
		}
		w := s.client.Bucket(s.bucket).Object(s.object).If(cond).NewWriter(ctx)
		w.ContentType = "text/csv"
		w.CacheControl = "no-cache, no-store, must-revalidate"
		if _, err := w.Write(buf.Bytes()); err != nil {
			_ = w.Close()
			return fmt.Errorf("writing gs://%s/%s: %w", s.bucket, s.object, err)
		}
		if err := w.Close(); err != nil {
			if isPreconditionFailed(err) {
				return fmt.Errorf("%w: generation %d superseded", ErrConflict, gen)
			}
			return fmt.Errorf("committing gs://%s/%s: %w", s.bucket, s.object, err)
		}
		result = Appended
		return nil
	}

	if err := backoff.Retry(attempt, s.retry.newBackOff(ctx)); err != nil {
		return 0, fmt.Errorf("appending %s: %w", rec.ShortSHA(), err)
	}
	return result, nil
}

func isPreconditionFailed(err error) bool {
	var ge *googleapi.Error
	return errors.As(err, &ge) && ge.Code == http.StatusPreconditionFailed
}
