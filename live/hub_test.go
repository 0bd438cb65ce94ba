package live

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/tournament-tracker/models"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(discardLogger)
	go hub.Run(ctx)
	return hub
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, discardLogger)
		if err := hub.Register(r.Context(), client); err != nil {
			conn.Close()
			return
		}
		client.Serve()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", data, err)
	}
	return msg
}

func TestEncodeStandings(t *testing.T) {
	data, err := EncodeStandings(nil)
	if err != nil {
		t.Fatalf("EncodeStandings() error = %v", err)
	}
	if got, want := string(data), `{"type":"STANDINGS_UPDATED","payload":[]}`; got != want {
		t.Errorf("EncodeStandings(nil) = %s, want %s", got, want)
	}
}

func TestHubBroadcastsStandings(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub)

	// Registration happens asynchronously to the dial returning.
	time.Sleep(50 * time.Millisecond)

	teams := []models.Team{{ID: 1, Name: "Alpha", Score: 50, Position: 1}}
	if err := hub.PublishStandings(context.Background(), teams); err != nil {
		t.Fatalf("PublishStandings() error = %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != MessageStandingsUpdated {
		t.Errorf("type = %q", msg.Type)
	}
	payload, ok := msg.Payload.([]interface{})
	if !ok || len(payload) != 1 {
		t.Fatalf("payload = %#v", msg.Payload)
	}
}

func TestHubReplaysLastUpdateToNewClients(t *testing.T) {
	hub := startHub(t)
	if err := hub.PublishStandings(context.Background(), []models.Team{{ID: 2, Name: "Bravo"}}); err != nil {
		t.Fatalf("PublishStandings() error = %v", err)
	}
	// Let Run consume the broadcast before the client appears.
	time.Sleep(50 * time.Millisecond)

	conn := dial(t, hub)
	if msg := readMessage(t, conn); msg.Type != MessageStandingsUpdated {
		t.Errorf("type = %q", msg.Type)
	}
}

func TestHubStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(discardLogger)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	err := hub.Broadcast(context.Background(), []byte("{}"))
	if err == nil {
		t.Fatal("Broadcast() on stopped hub succeeded")
	}
}
