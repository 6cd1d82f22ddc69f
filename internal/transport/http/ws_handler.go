package http

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"quizha-server/internal/infra/memory"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

var (
	errSubscriberClosed = errors.New("subscriber closed")
	errSubscriberSlow   = errors.New("subscriber send buffer full")
)

// wsSubscriber adapts one websocket connection to memory.Subscriber.
// Messages queue in a bounded buffer drained by a single writer goroutine.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	send chan string
	done chan struct{}
	once sync.Once
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan string, sendBuffer),
		done: make(chan struct{}),
	}
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(msg string) error {
	select {
	case <-s.done:
		return errSubscriberClosed
	default:
	}
	select {
	case s.send <- msg:
		return nil
	default:
		return errSubscriberSlow
	}
}

func (s *wsSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *wsSubscriber) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				log.Printf("ws: write to %s failed: %v", s.id, err)
				_ = s.Close()
				return
			}
		}
	}
}

// WSHandler serves the per-activity status socket.
type WSHandler struct {
	hub      *memory.Hub
	catalog  ActivityReader
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *memory.Hub, catalog ActivityReader) *WSHandler {
	return &WSHandler{
		hub:     hub,
		catalog: catalog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeActivity upgrades the request and streams STATUS_UPDATE messages for one
// activity until the client goes away. Client messages are read and discarded.
func (h *WSHandler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	activityID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.catalog.Activity(r.Context(), activityID); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(512)

	sub := newWSSubscriber(conn)
	h.hub.Subscribe(activityID, sub)
	defer func() {
		h.hub.Unsubscribe(activityID, sub)
		_ = sub.Close()
	}()

	go sub.writeLoop()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
