package ledger

import (
	"bytes"
	"context"
	"sync"
)

// MemStore is an in-memory Store used by tests and dry runs. It round-trips
// every write through the CSV codec so it exercises the same schema and
// widening paths as the real stores.
type MemStore struct {
	mu  sync.Mutex
	csv []byte

	// FailAppends makes every Append return ErrConflict, for exercising
	// the pipeline's degraded path.
	FailAppends bool
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) ReadAll(ctx context.Context) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decode()
}

func (s *MemStore) Append(ctx context.Context, rec Record) (AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAppends {
		return 0, ErrConflict
	}

	l, err := s.decode()
	if err != nil {
		return 0, err
	}
	if l.Contains(rec.CommitSHA) {
		return SkippedDuplicate, nil
	}
	l.Add(rec)

	var buf bytes.Buffer
	if err := l.Encode(&buf); err != nil {
		return 0, err
	}
	s.csv = buf.Bytes()
	return Appended, nil
}

func (s *MemStore) decode() (*Ledger, error) {
	if len(s.csv) == 0 {
		return New(), nil
	}
	return Decode(bytes.NewReader(s.csv))
}
