package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizha-server/internal/domain"
	"quizha-server/internal/infra/memory"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type stubActivities map[int64]domain.Activity

func (s stubActivities) Activity(_ context.Context, id int64) (domain.Activity, error) {
	a, ok := s[id]
	if !ok {
		return domain.Activity{}, domain.ErrActivityNotFound
	}
	return a, nil
}

func newSocketServer(t *testing.T, hub *memory.Hub, activities stubActivities) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/ws/activity/{id:[0-9]+}", NewWSHandler(hub, activities).ServeActivity)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func dialActivity(t *testing.T, server *httptest.Server, id int64) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + fmt.Sprintf("/ws/activity/%d", id)
	return websocket.DefaultDialer.Dial(u, nil)
}

func waitForSubscribers(t *testing.T, hub *memory.Hub, id int64, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count(id) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers on activity %d, got %d", want, id, hub.Count(id))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSocketReceivesBroadcasts(t *testing.T) {
	hub := memory.NewHub()
	server := newSocketServer(t, hub, stubActivities{7: {ID: 7}})

	first, _, err := dialActivity(t, server, 7)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()
	second, _, err := dialActivity(t, server, 7)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()
	waitForSubscribers(t, hub, 7, 2)

	hub.Broadcast(context.Background(), 7, domain.StatusPaused)
	hub.Broadcast(context.Background(), 8, domain.StatusOngoing)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(msg) != "STATUS_UPDATE:paused" {
			t.Fatalf("expected paused update, got %q", msg)
		}
	}
}

func TestSocketClientMessagesAreIgnored(t *testing.T) {
	hub := memory.NewHub()
	server := newSocketServer(t, hub, stubActivities{3: {ID: 3}})

	conn, _, err := dialActivity(t, server, 3)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForSubscribers(t, hub, 3, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	hub.Broadcast(context.Background(), 3, domain.StatusCompleted)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "STATUS_UPDATE:completed" {
		t.Fatalf("expected completed update, got %q", msg)
	}
}

func TestSocketDisconnectUnsubscribes(t *testing.T) {
	hub := memory.NewHub()
	server := newSocketServer(t, hub, stubActivities{1: {ID: 1}})

	conn, _, err := dialActivity(t, server, 1)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForSubscribers(t, hub, 1, 1)
	conn.Close()
	waitForSubscribers(t, hub, 1, 0)

	// Broadcasting to an activity nobody watches is a no-op.
	hub.Broadcast(context.Background(), 1, domain.StatusOngoing)
}

func TestSocketUnknownActivity(t *testing.T) {
	hub := memory.NewHub()
	server := newSocketServer(t, hub, stubActivities{})

	_, resp, err := dialActivity(t, server, 999)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
	if hub.Count(999) != 0 {
		t.Fatalf("unknown activity must not gain subscribers")
	}
}

func TestLifecycleRoutesPushStatusToSocket(t *testing.T) {
	ts := newTestServer(t)
	activityID, _, _ := ts.seedQuiz(t)

	conn, _, err := dialActivity(t, ts.Server, activityID)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForSubscribers(t, ts.hub, activityID, 1)

	for _, step := range []struct{ action, want string }{
		{"start", "STATUS_UPDATE:ongoing"},
		{"pause", "STATUS_UPDATE:paused"},
		{"resume", "STATUS_UPDATE:ongoing"},
		{"complete", "STATUS_UPDATE:completed"},
	} {
		ts.do(t, http.MethodPut, fmt.Sprintf("/activities/%d/%s", activityID, step.action), ts.adminToken, nil, http.StatusOK, nil)
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read after %s: %v", step.action, err)
		}
		if string(msg) != step.want {
			t.Fatalf("after %s expected %q, got %q", step.action, step.want, msg)
		}
	}
}
