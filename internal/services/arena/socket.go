package arena

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	socketWriteTimeout = 10 * time.Second
	socketReadLimit    = 4 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleSocket joins a client to a match over a websocket. The first frame
// sent is the latest snapshot so the client rehydrates without event
// replay; after that the client receives every broadcast event and may
// submit protocol commands as JSON text frames.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	match, err := s.manager.Resume(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	conn.SetReadLimit(socketReadLimit)

	sub := &Subscriber{
		ID:     uuid.NewString(),
		Events: make(chan []byte, subscriberBacklog),
	}
	match.Subscribe(sub)

	snapshot, err := match.SnapshotJSON(r.Context())
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			match.Unsubscribe(sub.ID)
			_ = conn.Close()
			return
		}
	}

	// Writer pump: subscriber channel to socket.
	go func() {
		for data := range sub.Events {
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				break
			}
		}
		_ = conn.Close()
	}()

	// Reader pump: socket to match mailbox. Submit results are discarded;
	// the subscriber receives them through the broadcast like every other
	// client.
	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.TextMessage {
			continue
		}
		if _, err := match.Submit(r.Context(), raw); err != nil {
			break
		}
	}

	match.Unsubscribe(sub.ID)
	_ = conn.Close()
}
