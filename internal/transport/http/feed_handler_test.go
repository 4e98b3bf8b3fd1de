package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizdeck/internal/domain"
)

func TestFeedStreamsCreatedResults(t *testing.T) {
	server, _ := newTestServer(t)

	header := http.Header{}
	header.Set("X-User-Id", "a1")
	header.Set("X-User-Role", "admin")
	u := "ws" + server.URL[len("http"):] + "/api/results/feed"
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to register the subscription before the
	// result is published.
	time.Sleep(50 * time.Millisecond)

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/results", "u1", "user",
		`{"quizId":"quiz-1","answers":[{"questionId":"Q1","selectedAnswer":"A"}]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit failed: %+v", payload)
	}

	var msg struct {
		Type    string        `json:"type"`
		Payload domain.Result `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if msg.Type != "result" {
		t.Fatalf("expected result message, got %s", msg.Type)
	}
	if msg.Payload.UserID != "u1" || msg.Payload.Score != 5 {
		t.Fatalf("unexpected feed payload %+v", msg.Payload)
	}
}

func TestFeedRejectsNonAdmin(t *testing.T) {
	server, _ := newTestServer(t)

	header := http.Header{}
	header.Set("X-User-Id", "u1")
	header.Set("X-User-Role", "user")
	u := "ws" + server.URL[len("http"):] + "/api/results/feed"
	if _, resp, err := websocket.DefaultDialer.Dial(u, header); err == nil {
		t.Fatalf("expected dial rejection for non-admin")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}
