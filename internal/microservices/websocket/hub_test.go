package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messageboard/internal/notify"
	"messageboard/internal/tenant"
)

const acmeTable = "message_assistance_acme"

func event(room, id string) notify.Event {
	return notify.Event{
		Type:      notify.EventMessageCreated,
		Table:     acmeTable,
		MessageID: id,
		RoomID:    room,
		Sender:    "alice",
		Content:   "hi",
		Timestamp: 1700000000,
	}
}

func TestHub_BroadcastsToRoomOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	r1 := NewClient("c1", RoomKey{acmeTable, "r1"}, nil, hub)
	r2 := NewClient("c2", RoomKey{acmeTable, "r2"}, nil, hub)
	other := NewClient("c3", RoomKey{"message_assistance_globex", "r1"}, nil, hub)
	hub.Register(r1)
	hub.Register(r2)
	hub.Register(other)

	require.NoError(t, hub.Notify(context.Background(), event("r1", "mess-1")))

	require.Len(t, r1.SendChannel, 1)
	assert.Len(t, r2.SendChannel, 0)
	assert.Len(t, other.SendChannel, 0, "rooms are scoped to the tenant table")

	var got Message
	require.NoError(t, json.Unmarshal(<-r1.SendChannel, &got))
	assert.Equal(t, TypeCreated, got.Type)
	assert.Equal(t, "mess-1", got.MessageID)
	assert.Equal(t, "r1", got.RoomID)
}

func TestHub_IgnoresRoomlessAndUnwatched(t *testing.T) {
	hub := NewHub(zap.NewNop())

	assert.NoError(t, hub.Notify(context.Background(), event("", "mess-1")))
	assert.NoError(t, hub.Notify(context.Background(), event("r9", "mess-2")))
}

func TestHub_UnregisterDropsEmptyRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := NewClient("c1", RoomKey{acmeTable, "r1"}, nil, hub)
	hub.Register(c)
	require.Equal(t, 1, hub.RoomCount())

	hub.Unregister(c)
	hub.Unregister(c)

	assert.Equal(t, 0, hub.RoomCount())
	_, open := <-c.SendChannel
	assert.False(t, open)
}

func TestHub_DisconnectsSlowClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := NewClient("c1", RoomKey{acmeTable, "r1"}, nil, hub)
	hub.Register(c)

	for i := 0; i <= SendBuffer; i++ {
		require.NoError(t, hub.Notify(context.Background(), event("r1", "mess")))
	}

	assert.Equal(t, 0, hub.RoomCount())
}

func TestHub_RegisterWhileLastSubscriberLeaves(t *testing.T) {
	for i := 0; i < 200; i++ {
		hub := NewHub(zap.NewNop())
		leaving := NewClient("a", RoomKey{acmeTable, "r1"}, nil, hub)
		joining := NewClient("b", RoomKey{acmeTable, "r1"}, nil, hub)
		hub.Register(leaving)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Register(joining)
		}()
		go func() {
			defer wg.Done()
			hub.Unregister(leaving)
		}()
		wg.Wait()

		require.Equal(t, 1, hub.RoomCount())
		require.NoError(t, hub.Notify(context.Background(), event("r1", "mess-1")))
		require.Len(t, joining.SendChannel, 1, "iteration %d", i)
	}
}

func TestWSHandler_SubscribedFrameComesFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zap.NewNop())
	defer hub.Close()
	r := gin.New()
	r.GET("/stream", WSHandler(hub, tenant.NewResolver("message_assistance_"), nil, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				hub.Notify(context.Background(), event("r1", "mess-busy"))
			}
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream?tenant=acme&roomId=r1"
	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, TypeSystem, msg.Type)
		conn.Close()
	}
}

func TestWSHandler_Feed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zap.NewNop())
	defer hub.Close()
	r := gin.New()
	r.GET("/stream", WSHandler(hub, tenant.NewResolver("message_assistance_"), nil, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream?tenant=acme&roomId=r1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeSystem, msg.Type)

	require.NoError(t, hub.Notify(context.Background(), event("r1", "mess-42")))

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeCreated, msg.Type)
	assert.Equal(t, "mess-42", msg.MessageID)
}

func TestWSHandler_Rejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stream", WSHandler(NewHub(zap.NewNop()), tenant.NewResolver("message_assistance_"), nil, zap.NewNop()))

	tests := []struct {
		name  string
		query string
	}{
		{"MissingRoom", "?tenant=acme"},
		{"MissingTenant", "?roomId=r1"},
		{"InvalidTenant", "?roomId=r1&tenant=a%20b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
