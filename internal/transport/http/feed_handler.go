package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

// FeedHandler streams newly created results to admin clients over a
// websocket.
type FeedHandler struct {
	feed     *app.ResultFeed
	upgrader websocket.Upgrader
}

func NewFeedHandler(feed *app.ResultFeed) *FeedHandler {
	return &FeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type feedMessage struct {
	Type    string        `json:"type"`
	Payload domain.Result `json:"payload"`
}

// ServeFeed upgrades the request and forwards every published result until
// the client disconnects.
func (h *FeedHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if caller.Role != "admin" {
		writeMessage(w, http.StatusForbidden, "admin role required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	results, cancel := h.feed.Subscribe()
	defer cancel()

	// Reader goroutine notices client disconnects; inbound payloads are
	// ignored.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case result, ok := <-results:
			if !ok {
				return
			}
			if err := conn.WriteJSON(feedMessage{Type: "result", Payload: result}); err != nil {
				log.Printf("feed write error: %v", err)
				return
			}
		case <-disconnected:
			return
		case <-r.Context().Done():
			return
		}
	}
}
