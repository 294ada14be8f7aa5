// Package memory is an in-process implementation of the repositories with
// the same transaction contract as the Mongo adapter: a unit of work either
// commits every write or leaves the store byte-identical to its prior state.
//
// Documents are kept BSON-encoded, so callers never share memory with the
// store and snapshots are cheap map copies.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CollectionUsers         = "users"
	CollectionPosts         = "posts"
	CollectionComments      = "comments"
	CollectionActivities    = "activities"
	CollectionNotifications = "notifications"
)

var collections = []string{CollectionUsers, CollectionPosts, CollectionComments, CollectionActivities, CollectionNotifications}

// ErrInjected is the default error returned by an armed fault.
var ErrInjected = errors.New("injected fault")

type table struct {
	docs  map[primitive.ObjectID][]byte
	order []primitive.ObjectID
}

func newTable() *table {
	return &table{docs: make(map[primitive.ObjectID][]byte)}
}

func (t *table) clone() *table {
	c := &table{
		docs:  make(map[primitive.ObjectID][]byte, len(t.docs)),
		order: append([]primitive.ObjectID(nil), t.order...),
	}
	for id, raw := range t.docs {
		c.docs[id] = raw
	}
	return c
}

func (t *table) remove(id primitive.ObjectID) bool {
	if _, ok := t.docs[id]; !ok {
		return false
	}
	delete(t.docs, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func put[T any](t *table, id primitive.ObjectID, doc *T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, ok := t.docs[id]; !ok {
		t.order = append(t.order, id)
	}
	t.docs[id] = raw
	return nil
}

func get[T any](t *table, id primitive.ObjectID) (*T, error) {
	raw, ok := t.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// scan decodes every document in insertion order and keeps those matching.
func scan[T any](t *table, match func(*T) bool) ([]T, error) {
	var out []T
	for _, id := range t.order {
		doc, err := get[T](t, id)
		if err != nil {
			return nil, err
		}
		if match == nil || match(doc) {
			out = append(out, *doc)
		}
	}
	return out, nil
}

type txKey struct{}

// unit is the private working copy of an open transaction. It replaces the
// committed state on success and is dropped on failure.
type unit struct {
	data map[string]*table
}

func unitOf(ctx context.Context) *unit {
	u, _ := ctx.Value(txKey{}).(*unit)
	return u
}

// Store holds every collection. The zero value is not usable; call NewStore.
//
// Reads outside a transaction see the last committed state. Writes outside a
// transaction wait for the open unit of work, if any, and apply directly.
type Store struct {
	txMu sync.Mutex // serializes units of work and single writes
	mu   sync.RWMutex
	data map[string]*table // committed state

	faults map[string]error
	writes int
}

func NewStore() *Store {
	s := &Store{
		data:   make(map[string]*table, len(collections)),
		faults: make(map[string]error),
	}
	for _, c := range collections {
		s.data[c] = newTable()
	}
	return s
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repositories.Store {
	return repositories.Store{
		Tx:            s,
		Users:         &userRepository{s: s},
		Posts:         &postRepository{s: s},
		Comments:      &commentRepository{s: s},
		Activities:    &activityRepository{s: s},
		Notifications: &notificationRepository{s: s},
	}
}

// WithTransaction runs fn against a private copy of the store while holding
// the unit-of-work lock. The copy becomes the committed state only when fn
// succeeds. Nested calls join the outer unit.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if unitOf(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	u := &unit{data: s.snapshot()}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, u)); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = u.data
	s.mu.Unlock()
	return nil
}

func (s *Store) snapshot() map[string]*table {
	snap := make(map[string]*table, len(s.data))
	for name, t := range s.data {
		snap[name] = t.clone()
	}
	return snap
}

// FailNext arms a one-shot fault for op, named "<collection>.<verb>"
// (for example "notifications.create"). A nil err uses ErrInjected.
func (s *Store) FailNext(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	s.writes++
	return nil
}

// Writes counts successful write calls since the store was created.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Dump returns the raw encoded state of every collection, sorted by id.
// Two dumps are equal exactly when the stores hold identical bytes.
func (s *Store) Dump() map[string][][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][][]byte, len(s.data))
	for name, t := range s.data {
		ids := make([]primitive.ObjectID, 0, len(t.docs))
		for id := range t.docs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
		docs := make([][]byte, 0, len(ids))
		for _, id := range ids {
			docs = append(docs, t.docs[id])
		}
		out[name] = docs
	}
	return out
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection].docs)
}

func (s *Store) read(ctx context.Context, collection string, fn func(t *table) error) error {
	if u := unitOf(ctx); u != nil {
		return fn(u.data[collection])
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data[collection])
}

func (s *Store) write(ctx context.Context, collection, verb string, fn func(t *table) error) error {
	if err := s.fault(collection + "." + verb); err != nil {
		return err
	}
	if u := unitOf(ctx); u != nil {
		return fn(u.data[collection])
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data[collection])
}
