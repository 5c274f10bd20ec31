package repository

import (
	"context"
	"errors"
	"sync"

	"messageboard/internal/microservices/http-api/models"
)

var (
	ErrStoreNotFound    = errors.New("table not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// MessageRepository is bound to exactly one tenant table.
type MessageRepository interface {
	// Table returns the physical table name this repository is bound to.
	Table() string
	// Exists reports whether the table exists. It never creates it.
	Exists(ctx context.Context) (bool, error)
	// Get returns nil, nil when no record has the id.
	Get(ctx context.Context, id string) (*models.Message, error)
	// Put is an unconditional upsert.
	Put(ctx context.Context, message *models.Message) error
	// Delete succeeds when the record is absent.
	Delete(ctx context.Context, id string) error
	// RangeQuery returns a room's records with start <= timestamp <= end,
	// ascending by timestamp. Never nil.
	RangeQuery(ctx context.Context, roomID string, start, end int64) ([]models.Message, error)
}

// StoreFactory opens a repository for a table name.
type StoreFactory func(table string) MessageRepository

// Registry caches one repository per table name for the life of the process.
// The tenant set is small and stable, so entries are never evicted.
type Registry struct {
	open   StoreFactory
	stores sync.Map // table name -> MessageRepository
}

func NewRegistry(open StoreFactory) *Registry {
	return &Registry{open: open}
}

// Get returns the cached repository for table, opening it on first use.
// Concurrent first calls may both open; the first stored handle wins.
func (r *Registry) Get(table string) MessageRepository {
	if repo, ok := r.stores.Load(table); ok {
		return repo.(MessageRepository)
	}
	repo, _ := r.stores.LoadOrStore(table, r.open(table))
	return repo.(MessageRepository)
}

// Len returns the number of cached handles.
func (r *Registry) Len() int {
	n := 0
	r.stores.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
