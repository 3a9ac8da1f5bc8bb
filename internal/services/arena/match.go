// Package arena hosts matches around the game core: one goroutine per match
// serializes commands in arrival order, broadcasts the resulting events to
// every subscribed client, and archives the latest snapshot so a
// reconnecting client can resynchronize without event replay.
//
// The arena is deliberately thin. All game semantics live in the ludo
// packages; this layer only carries bytes between transports and sessions.
package arena

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/ludo-arena/internal/ludo/protocol"
	"github.com/louisbranch/ludo-arena/internal/services/arena/storage"
)

const (
	// commandBacklog bounds queued commands per match.
	commandBacklog = 32
	// subscriberBacklog bounds undelivered events per subscriber. A
	// subscriber that falls behind is dropped; it resynchronizes from the
	// snapshot on the next event after rejoining.
	subscriberBacklog = 64
	// persistTimeout bounds each snapshot archive write.
	persistTimeout = 3 * time.Second
)

// Subscriber receives marshaled protocol events for one client connection.
type Subscriber struct {
	ID     string
	Events chan []byte
}

type inbound struct {
	raw   []byte
	reply chan []protocol.Event
}

// Match binds one protocol session to a command mailbox. The run loop is
// the single writer for the session; everything else communicates through
// channels.
type Match struct {
	ID   string
	Seed int64

	session     *protocol.Session
	store       storage.MatchStore
	tracer      trace.Tracer
	commands    chan inbound
	subscribes  chan *Subscriber
	unsubscribe chan string
	snapshots   chan chan []byte
	done        chan struct{}
}

func newMatch(id string, seed int64, session *protocol.Session, store storage.MatchStore, tracer trace.Tracer) *Match {
	return &Match{
		ID:          id,
		Seed:        seed,
		session:     session,
		store:       store,
		tracer:      tracer,
		commands:    make(chan inbound, commandBacklog),
		subscribes:  make(chan *Subscriber),
		unsubscribe: make(chan string),
		snapshots:   make(chan chan []byte),
		done:        make(chan struct{}),
	}
}

// Submit queues a raw command for the match and returns the events it
// produced. Commands are applied strictly in arrival order.
func (m *Match) Submit(ctx context.Context, raw []byte) ([]protocol.Event, error) {
	reply := make(chan []protocol.Event, 1)
	select {
	case m.commands <- inbound{raw: raw, reply: reply}:
	case <-m.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case events := <-reply:
		return events, nil
	case <-m.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe registers a client for event broadcasts.
func (m *Match) Subscribe(sub *Subscriber) {
	select {
	case m.subscribes <- sub:
	case <-m.done:
	}
}

// Unsubscribe removes a client registration.
func (m *Match) Unsubscribe(id string) {
	select {
	case m.unsubscribe <- id:
	case <-m.done:
	}
}

// SnapshotJSON returns the current snapshot, marshaled, for client resync.
func (m *Match) SnapshotJSON(ctx context.Context) ([]byte, error) {
	reply := make(chan []byte, 1)
	select {
	case m.snapshots <- reply:
	case <-m.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case data := <-reply:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run is the match's single serialization domain. It owns the session and
// exits when ctx is canceled.
func (m *Match) run(ctx context.Context) {
	defer close(m.done)
	subscribers := make(map[string]*Subscriber)

	for {
		select {
		case <-ctx.Done():
			return

		case cmd := <-m.commands:
			cmdCtx, span := m.tracer.Start(ctx, "arena.command",
				trace.WithAttributes(attribute.String("match.id", m.ID)))
			events := m.session.Apply(cmd.raw)
			m.broadcast(subscribers, events)
			m.persist(cmdCtx)
			span.End()
			cmd.reply <- events

		case sub := <-m.subscribes:
			subscribers[sub.ID] = sub

		case id := <-m.unsubscribe:
			if sub, ok := subscribers[id]; ok {
				delete(subscribers, id)
				close(sub.Events)
			}

		case reply := <-m.snapshots:
			data, err := json.Marshal(m.session.Snapshot())
			if err != nil {
				log.Printf("match %s: marshal snapshot: %v", m.ID, err)
				data = nil
			}
			reply <- data
		}
	}
}

func (m *Match) broadcast(subscribers map[string]*Subscriber, events []protocol.Event) {
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("match %s: marshal %s event: %v", m.ID, event.EventType(), err)
			continue
		}
		for id, sub := range subscribers {
			select {
			case sub.Events <- data:
			default:
				// Slow consumer: drop it rather than stall the match.
				delete(subscribers, id)
				close(sub.Events)
			}
		}
	}
}

func (m *Match) persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	persistCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := m.store.SaveSnapshot(persistCtx, m.ID, m.Seed, m.session.Snapshot()); err != nil {
		log.Printf("match %s: archive snapshot: %v", m.ID, err)
	}
}
