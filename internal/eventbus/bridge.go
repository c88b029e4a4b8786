// Package eventbus relays group change notifications between instances over
// NATS so that WebSocket clients connected to any instance see every change.
package eventbus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dukerupert/chorely/internal/websocket"
)

const (
	subjectPrefix = "chorely.groups."
	subjectSuffix = ".events"
	// AllGroupsSubject matches the event subject of every group.
	AllGroupsSubject = subjectPrefix + "*" + subjectSuffix
)

// GroupSubject returns the NATS subject carrying groupID's events.
func GroupSubject(groupID int64) string {
	return subjectPrefix + strconv.FormatInt(groupID, 10) + subjectSuffix
}

// ParseGroupSubject extracts the group ID from an event subject.
func ParseGroupSubject(subject string) (int64, error) {
	rest, ok := strings.CutPrefix(subject, subjectPrefix)
	if !ok {
		return 0, fmt.Errorf("not a group subject: %q", subject)
	}
	id, ok := strings.CutSuffix(rest, subjectSuffix)
	if !ok {
		return 0, fmt.Errorf("not a group subject: %q", subject)
	}
	return strconv.ParseInt(id, 10, 64)
}

type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Bridge publishes hub messages to NATS and delivers messages received from
// NATS to the local hub. It satisfies the same broadcast contract as the hub.
type Bridge struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	hub    *websocket.Hub
	logger *slog.Logger
}

// Connect dials NATS and subscribes to every group's events.
func Connect(cfg Config, hub *websocket.Hub, logger *slog.Logger) (*Bridge, error) {
	logger = logger.With("component", "eventbus")
	opts := []nats.Option{
		nats.Name("chorely"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.Timeout(10 * time.Second),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	b := &Bridge{nc: nc, hub: hub, logger: logger}
	b.sub, err = nc.Subscribe(AllGroupsSubject, func(m *nats.Msg) {
		b.deliver(m.Subject, m.Data)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", AllGroupsSubject, err)
	}

	logger.Info("relaying group events over NATS", "url", nc.ConnectedUrl())
	return b, nil
}

// Broadcast publishes msg on its group's subject. Local clients receive it
// through the subscription like every other instance. If publishing fails
// the message is still delivered locally.
func (b *Bridge) Broadcast(msg websocket.Message) {
	if b.nc == nil || !b.nc.IsConnected() {
		b.hub.Broadcast(msg)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("marshal event", "error", err)
		return
	}
	if err := b.nc.Publish(GroupSubject(msg.GroupID), data); err != nil {
		b.logger.Warn("publish event, delivering locally", "group_id", msg.GroupID, "error", err)
		b.hub.Broadcast(msg)
	}
}

// Disconnect closes userID's connections to groupID on this instance.
func (b *Bridge) Disconnect(groupID, userID int64) int {
	return b.hub.Disconnect(groupID, userID)
}

func (b *Bridge) deliver(subject string, data []byte) {
	groupID, err := ParseGroupSubject(subject)
	if err != nil {
		b.logger.Warn("ignoring event", "subject", subject, "error", err)
		return
	}
	var msg websocket.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		b.logger.Warn("decode event", "subject", subject, "error", err)
		return
	}
	if msg.GroupID != groupID {
		b.logger.Warn("event group mismatch", "subject", subject, "group_id", msg.GroupID)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) IsConnected() bool {
	return b.nc != nil && b.nc.IsConnected()
}

// Close drains the subscription and closes the connection.
func (b *Bridge) Close() error {
	if b.nc == nil {
		return nil
	}
	return b.nc.Drain()
}
