package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messageboard/internal/microservices/http-api/repository"
	"messageboard/internal/notify"
	"messageboard/internal/tenant"
)

const acmeTable = "message_assistance_acme"

type serviceFixture struct {
	store     *memoryStore
	publisher *recordingPublisher
	svc       *messageService
	clock     time.Time
}

func newServiceFixture(t *testing.T, tables ...string) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		store:     newMemoryStore(tables...),
		publisher: &recordingPublisher{},
		clock:     time.Unix(1700000000, 0),
	}
	svc := NewMessageService(
		repository.NewRegistry(f.store.open),
		tenant.NewResolver("message_assistance_"),
		f.publisher,
		zap.NewNop(),
	).(*messageService)

	seq := 0
	svc.now = func() time.Time { return f.clock }
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("%s-%d", IDPrefix, seq)
	}
	f.svc = svc
	return f
}

func TestMessageService_Create(t *testing.T) {
	f := newServiceFixture(t, acmeTable)

	msg, err := f.svc.Create(context.Background(), acmeScope(), CreateInput{
		Sender:  "alice",
		Content: "hi",
		RoomID:  "r1",
	})

	require.NoError(t, err)
	assert.Equal(t, "mess-1", msg.ID)
	assert.Equal(t, int64(1700000000), msg.Timestamp)
	assert.False(t, msg.IsCorrected)

	stored, _ := f.store.table(acmeTable).Get(context.Background(), msg.ID)
	require.NotNil(t, stored)
	assert.Equal(t, *msg, *stored)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventMessageCreated, events[0].Type)
	assert.Equal(t, acmeTable, events[0].Table)
	assert.Equal(t, msg.ID, events[0].MessageID)
}

func TestMessageService_DefaultIDHasPrefix(t *testing.T) {
	svc := NewMessageService(nil, nil, nil, zap.NewNop()).(*messageService)

	a, b := svc.newID(), svc.newID()
	assert.True(t, len(a) > len(IDPrefix))
	assert.Equal(t, IDPrefix, a[:len(IDPrefix)])
	assert.NotEqual(t, a, b)
}

func TestMessageService_MissingTable(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Create(context.Background(), acmeScope(), CreateInput{Sender: "alice", Content: "hi"})

	assert.ErrorIs(t, err, repository.ErrStoreNotFound)
	assert.Equal(t, 404, StatusFor(err))
	assert.Empty(t, f.publisher.Events())
	assert.Empty(t, f.store.table(acmeTable).records, "table must not be created on the request path")
}

func TestMessageService_UnresolvedTenant(t *testing.T) {
	f := newServiceFixture(t, acmeTable)

	_, err := f.svc.GetByID(context.Background(), tenant.Input{}, "mess-1")

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, tenant.ErrMissingTenant)
}

func TestMessageService_GetByID_NotFound(t *testing.T) {
	f := newServiceFixture(t, acmeTable)

	_, err := f.svc.GetByID(context.Background(), acmeScope(), "mess-unknown")

	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.Equal(t, 404, StatusFor(err))
}

func TestMessageService_Update(t *testing.T) {
	f := newServiceFixture(t, acmeTable)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, acmeScope(), CreateInput{Sender: "alice", Content: "hi", RoomID: "r1"})
	require.NoError(t, err)

	t.Run("OtherSenderRejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, acmeScope(), UpdateInput{ID: created.ID, Sender: "bob", Content: "x"})

		assert.ErrorIs(t, err, ErrUnauthorized)
		stored, _ := f.store.table(acmeTable).Get(ctx, created.ID)
		assert.Equal(t, "hi", stored.Content)
		assert.False(t, stored.IsCorrected)
	})

	t.Run("AuthorUpdates", func(t *testing.T) {
		f.clock = f.clock.Add(time.Hour)

		updated, err := f.svc.Update(ctx, acmeScope(), UpdateInput{ID: created.ID, Sender: "alice", Content: "hi there"})

		require.NoError(t, err)
		assert.Equal(t, "hi there", updated.Content)
		assert.True(t, updated.IsCorrected)
		assert.Equal(t, created.Timestamp, updated.Timestamp)
		assert.Equal(t, created.RoomID, updated.RoomID)
		assert.Equal(t, created.Sender, updated.Sender)
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := f.svc.Update(ctx, acmeScope(), UpdateInput{ID: "mess-nope", Sender: "alice", Content: "x"})

		assert.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestMessageService_Delete(t *testing.T) {
	f := newServiceFixture(t, acmeTable)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, acmeScope(), CreateInput{Sender: "alice", Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, acmeScope(), created.ID))

	_, err = f.svc.GetByID(ctx, acmeScope(), created.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	err = f.svc.Delete(ctx, acmeScope(), created.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMessageService_ListByRoom(t *testing.T) {
	f := newServiceFixture(t, acmeTable)
	ctx := context.Background()

	for i, room := range []string{"r1", "r2", "r1", "r1"} {
		f.clock = time.Unix(int64(100+i*10), 0)
		_, err := f.svc.Create(ctx, acmeScope(), CreateInput{Sender: "alice", Content: "m", RoomID: room})
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		window RoomWindow
		want   []int64
	}{
		{"WholeRoom", RoomWindow{RoomID: "r1", Start: 0, End: 1 << 62}, []int64{100, 120, 130}},
		{"InclusiveBounds", RoomWindow{RoomID: "r1", Start: 120, End: 130}, []int64{120, 130}},
		{"OtherRoom", RoomWindow{RoomID: "r2", Start: 0, End: 200}, []int64{110}},
		{"NoMatch", RoomWindow{RoomID: "r3", Start: 0, End: 200}, []int64{}},
		{"InvertedWindow", RoomWindow{RoomID: "r1", Start: 200, End: 100}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.ListByRoom(ctx, acmeScope(), tt.window)

			require.NoError(t, err)
			require.NotNil(t, got)
			stamps := make([]int64, 0, len(got))
			for _, m := range got {
				stamps = append(stamps, m.Timestamp)
			}
			assert.Equal(t, tt.want, stamps)
		})
	}
}

func TestMessageService_StoreFailure(t *testing.T) {
	f := newServiceFixture(t, acmeTable)
	f.store.table(acmeTable).err = fmt.Errorf("%w: connection reset", repository.ErrStoreUnavailable)

	_, err := f.svc.GetByID(context.Background(), acmeScope(), "mess-1")

	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Equal(t, 500, StatusFor(err))
}
