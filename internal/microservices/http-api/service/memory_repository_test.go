package service

import (
	"context"
	"sort"
	"sync"

	"messageboard/internal/microservices/http-api/models"
	"messageboard/internal/microservices/http-api/repository"
	"messageboard/internal/notify"
	"messageboard/internal/tenant"
)

// memoryRepository is an in-memory MessageRepository for one table.
type memoryRepository struct {
	mu      sync.Mutex
	table   string
	exists  bool
	records map[string]models.Message
	err     error // returned by every store call when set
}

func (r *memoryRepository) Table() string { return r.table }

func (r *memoryRepository) Exists(ctx context.Context) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.exists, nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *memoryRepository) Put(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records[message.ID] = *message
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.records, id)
	return nil
}

func (r *memoryRepository) RangeQuery(ctx context.Context, roomID string, start, end int64) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Message, 0)
	for _, m := range r.records {
		if m.RoomID == roomID && m.Timestamp >= start && m.Timestamp <= end {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// memoryStore hands out memoryRepositories. Only tables passed to
// newMemoryStore exist.
type memoryStore struct {
	mu     sync.Mutex
	tables map[string]*memoryRepository
}

func newMemoryStore(existing ...string) *memoryStore {
	s := &memoryStore{tables: map[string]*memoryRepository{}}
	for _, name := range existing {
		s.tables[name] = &memoryRepository{table: name, exists: true, records: map[string]models.Message{}}
	}
	return s
}

func (s *memoryStore) open(table string) repository.MessageRepository {
	s.mu.Lock()
	defer s.mu.Unlock()
	if repo, ok := s.tables[table]; ok {
		return repo
	}
	repo := &memoryRepository{table: table, records: map[string]models.Message{}}
	s.tables[table] = repo
	return repo
}

func (s *memoryStore) table(name string) *memoryRepository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[name]
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

func acmeScope() tenant.Input {
	return tenant.Input{Query: map[string]string{"tenant": "acme"}}
}
