package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
)

// FileStore keeps the ledger in a local CSV file. Writers serialize through
// an exclusive lock file (acquired with O_EXCL, retried with backoff) and
// publish with a write-to-temp-then-rename so a partial write is never
// visible as a final state. Used for local runs and tests; CI uses GCSStore.
type FileStore struct {
	path  string
	retry RetryPolicy
}

func NewFileStore(path string, retry RetryPolicy) *FileStore {
	return &FileStore{path: path, retry: retry}
}

func (s *FileStore) ReadAll(ctx context.Context) (*Ledger, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

func (s *FileStore) Append(ctx context.Context, rec Record) (AppendResult, error) {
	if err := s.lock(ctx); err != nil {
		return 0, err
	}
	defer s.unlock()

	l, err := s.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	if l.Contains(rec.CommitSHA) {
		return SkippedDuplicate, nil
	}
	l.Add(rec)

	if err := s.publish(l); err != nil {
		return 0, err
	}
	return Appended, nil
}

func (s *FileStore) lockPath() string { return s.path + ".lock" }

func (s *FileStore) lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	acquire := func() error {
		f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if os.IsExist(err) {
			return fmt.Errorf("%w: lock held at %s", ErrConflict, s.lockPath())
		}
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating lock %s: %w", s.lockPath(), err))
		}
		return f.Close()
	}
	if err := backoff.Retry(acquire, s.retry.newBackOff(ctx)); err != nil {
		return fmt.Errorf("acquiring ledger lock: %w", err)
	}
	return nil
}

func (s *FileStore) unlock() {
	_ = os.Remove(s.lockPath())
}

func (s *FileStore) publish(l *Ledger) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := l.Encode(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("publishing ledger: %w", err)
	}
	return nil
}
