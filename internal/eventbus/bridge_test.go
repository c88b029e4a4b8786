package eventbus

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/chorely/internal/websocket"
)

func TestGroupSubjectRoundTrip(t *testing.T) {
	for _, id := range []int64{1, 42, 9007199254740993} {
		subject := GroupSubject(id)
		got, err := ParseGroupSubject(subject)
		if err != nil {
			t.Fatalf("ParseGroupSubject(%q): %v", subject, err)
		}
		if got != id {
			t.Errorf("ParseGroupSubject(%q) = %d, want %d", subject, got, id)
		}
	}
	if got := GroupSubject(7); got != "chorely.groups.7.events" {
		t.Errorf("GroupSubject(7) = %q", got)
	}
}

func TestParseGroupSubjectRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"chorely.groups.7",
		"other.groups.7.events",
		"chorely.groups.abc.events",
		"chorely.groups..events",
	} {
		if _, err := ParseGroupSubject(s); err == nil {
			t.Errorf("ParseGroupSubject(%q) expected error", s)
		}
	}
}

func newTestBridge() (*Bridge, *websocket.Hub) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := websocket.NewHub(logger)
	return &Bridge{hub: hub, logger: logger}, hub
}

func TestBroadcastWithoutConnectionIsLocal(t *testing.T) {
	b, _ := newTestBridge()
	if b.IsConnected() {
		t.Fatal("bridge without connection reports connected")
	}
	// Must not panic without a NATS connection.
	b.Broadcast(websocket.NewMessage(1, "chore", "created", 1, nil))
	if err := b.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestDeliverRejectsMismatchedGroup(t *testing.T) {
	b, _ := newTestBridge()
	data, err := json.Marshal(websocket.NewMessage(2, "chore", "created", 1, nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Neither call may panic; mismatched and malformed events are dropped.
	b.deliver(GroupSubject(1), data)
	b.deliver(GroupSubject(2), []byte("not json"))
	b.deliver("chorely.other", data)
}
