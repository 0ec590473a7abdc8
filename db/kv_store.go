// ABOUTME: Document store over the charm KV client
// ABOUTME: Keys records as pursuit/<collection>/<id> and serializes writes with a process-local lock
package db

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pursuit/charm"
)

const kvKeyPrefix = "pursuit/"

// KVStore keeps each record as a JSON value. Conditional writes are atomic
// within this process only; concurrent devices reconcile via charm sync.
type KVStore struct {
	client *charm.Client
	now    func() time.Time
	mu     sync.Mutex
}

// NewKVStore wraps an open charm client.
func NewKVStore(client *charm.Client, now func() time.Time) *KVStore {
	if now == nil {
		now = time.Now
	}
	return &KVStore{client: client, now: now}
}

// Client exposes the charm client for sync commands.
func (s *KVStore) Client() *charm.Client {
	return s.client
}

func (s *KVStore) Close() error {
	return s.client.Close()
}

func kvKey(c Collection, id string) []byte {
	return []byte(kvKeyPrefix + string(c) + "/" + id)
}

func (s *KVStore) read(c Collection, id string) (Record, error) {
	data, err := s.client.Get(kvKey(c, id))
	if err != nil {
		if charm.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	r, err := unmarshalRecord(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c, id, err)
	}
	return r, nil
}

func (s *KVStore) write(c Collection, r Record) error {
	data, err := marshalRecord(r)
	if err != nil {
		return err
	}
	return s.client.Set(kvKey(c, r.ID()), data)
}

func (s *KVStore) Get(_ context.Context, c Collection, id string) (Record, error) {
	return s.read(c, id)
}

func (s *KVStore) List(ctx context.Context, c Collection, filter Filter) ([]Record, error) {
	prefix := kvKeyPrefix + string(c) + "/"
	keys, err := s.client.KeysWithPrefix([]byte(prefix))
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.read(c, strings.TrimPrefix(string(k), prefix))
		if err != nil {
			return nil, err
		}
		if r != nil && filter.Matches(r) {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *KVStore) Create(_ context.Context, c Collection, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := mergeFields(nil, fields)
	id, _ := fields[FieldID].(string)
	if id == "" {
		id = uuid.New().String()
	}
	existing, err := s.read(c, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("create %s/%s: duplicate id", c, id)
	}

	stamp := FormatRevision(s.now())
	r[FieldID] = id
	r[FieldCreatedAt] = stamp
	r[FieldUpdatedAt] = stamp
	if err := s.write(c, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *KVStore) Update(_ context.Context, c Collection, id string, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(c, id, nil, fields)
}

func (s *KVStore) UpdateIf(_ context.Context, c Collection, id string, expected time.Time, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(c, id, &expected, fields)
}

func (s *KVStore) updateLocked(c Collection, id string, expected *time.Time, fields Record) (Record, error) {
	cur, err := s.read(c, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	rev, err := cur.Revision()
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", c, id, ErrInvalidRecord)
	}
	if expected != nil && !rev.Equal(*expected) {
		return nil, ErrRevisionMismatch
	}

	r := mergeFields(cur, fields)
	r[FieldUpdatedAt] = FormatRevision(nextRevision(rev, s.now()))
	if err := s.write(c, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *KVStore) Delete(_ context.Context, c Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(c, id, nil)
}

func (s *KVStore) DeleteIf(_ context.Context, c Collection, id string, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(c, id, &expected)
}

func (s *KVStore) deleteLocked(c Collection, id string, expected *time.Time) error {
	cur, err := s.read(c, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return ErrNotFound
	}
	if expected != nil {
		rev, err := cur.Revision()
		if err != nil || !rev.Equal(*expected) {
			return ErrRevisionMismatch
		}
	}
	return s.client.Delete(kvKey(c, id))
}

var _ ConditionalStore = (*KVStore)(nil)
