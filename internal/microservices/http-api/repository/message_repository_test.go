package repository

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type stubRepository struct {
	MessageRepository
	table string
}

func (s *stubRepository) Table() string { return s.table }

func TestRegistry_GetOrCreate(t *testing.T) {
	var opened atomic.Int32
	reg := NewRegistry(func(table string) MessageRepository {
		opened.Add(1)
		return &stubRepository{table: table}
	})

	a := reg.Get("message_assistance_acme")
	b := reg.Get("message_assistance_acme")
	c := reg.Get("message_assistance_globex")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "message_assistance_globex", c.Table())
	assert.Equal(t, int32(2), opened.Load())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	reg := NewRegistry(func(table string) MessageRepository {
		return &stubRepository{table: table}
	})

	const workers = 50
	got := make([]MessageRepository, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = reg.Get("message_assistance_acme")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.Equal(t, 1, reg.Len())
}

func TestMapPostgresError(t *testing.T) {
	err := mapPostgresError("message_assistance_acme", &pgconn.PgError{Code: pgUndefinedTable, Message: "relation does not exist"})
	assert.ErrorIs(t, err, ErrStoreNotFound)
	assert.Contains(t, err.Error(), "message_assistance_acme")

	err = mapPostgresError("t", &pgconn.PgError{Code: "57P01", Message: "terminating connection"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	cause := errors.New("dial tcp: connection refused")
	err = mapPostgresError("t", cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
}
