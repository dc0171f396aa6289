package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	mine, cancelMine := h.Subscribe("u1", 4)
	defer cancelMine()
	other, cancelOther := h.Subscribe("u2", 4)
	defer cancelOther()

	h.Publish(Event{Type: TypePosted, UserID: "u1", ScheduleID: "u1_A"})

	select {
	case e := <-mine:
		if e.ScheduleID != "u1_A" || e.At.IsZero() {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("owner did not receive event")
	}

	select {
	case e := <-other:
		t.Errorf("other user received %+v", e)
	default:
	}
}

func TestHub_DropsWhenFull(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	ch, cancel := h.Subscribe("u1", 1)
	defer cancel()

	h.Publish(Event{Type: TypePosted, UserID: "u1"})
	h.Publish(Event{Type: TypeFailed, UserID: "u1"}) // dropped, must not block

	if e := <-ch; e.Type != TypePosted {
		t.Errorf("first event = %q", e.Type)
	}
	if len(ch) != 0 {
		t.Error("second event should have been dropped")
	}
}

func TestHub_CancelUnsubscribes(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	ch, cancel := h.Subscribe("u1", 1)
	cancel()
	cancel() // idempotent

	if h.Subscribers() != 0 {
		t.Errorf("subscribers = %d", h.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	h.Publish(Event{UserID: "u1"})
}

func TestServeWS_StreamsEvents(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(context.Background(), w, r, "u1")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	for h.Subscribers() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	h.Publish(Event{Type: TypeFailed, UserID: "u1", ScheduleID: "u1_A", Error: "boom"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatal(err)
	}
	if e.Type != TypeFailed || e.Error != "boom" {
		t.Errorf("event = %+v", e)
	}
}
