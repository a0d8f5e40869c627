package bus

import (
	"go.uber.org/zap"

	"stellar-server/internal/protocol"
)

// Topic names an event channel
type Topic string

const (
	TopicScoreChanged Topic = "score changed"
	TopicKill         Topic = "kill"
	TopicLeaderboard  Topic = "leaderboard_update"
)

// maxDrain bounds how many events one outer Publish may deliver
const maxDrain = 256

// Event is a typed payload published on a topic
type Event interface {
	Topic() Topic
}

// ScoreChanged signals that a player's score or presence changed
type ScoreChanged struct {
	PlayerID string
}

// Kill reports that Killer destroyed Victim
type Kill struct {
	Killer string
	Victim string
}

// LeaderboardUpdate carries the freshly recomputed standings
type LeaderboardUpdate struct {
	Standings []protocol.Standing
}

func (ScoreChanged) Topic() Topic      { return TopicScoreChanged }
func (Kill) Topic() Topic              { return TopicKill }
func (LeaderboardUpdate) Topic() Topic { return TopicLeaderboard }

// Handler receives events for one topic
type Handler func(Event)

// Handle identifies a subscription for Unsubscribe
type Handle uint64

type subscription struct {
	handle  Handle
	fn      Handler
	removed bool
}

// Bus is a synchronous in-process publish/subscribe hub. It is not safe for
// concurrent use; the game engine serializes every caller.
type Bus struct {
	log     *zap.Logger
	subs    map[Topic][]*subscription
	byID    map[Handle]Topic
	next    Handle
	queue   []Event
	running bool
}

// New creates an empty bus
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:  log.Named("bus"),
		subs: make(map[Topic][]*subscription),
		byID: make(map[Handle]Topic),
	}
}

// Subscribe registers fn for topic and returns its handle
func (b *Bus) Subscribe(topic Topic, fn Handler) Handle {
	b.next++
	h := b.next
	b.subs[topic] = append(b.subs[topic], &subscription{handle: h, fn: fn})
	b.byID[h] = topic
	return h
}

// Unsubscribe removes a subscription; unknown or removed handles are ignored
func (b *Bus) Unsubscribe(h Handle) {
	topic, ok := b.byID[h]
	if !ok {
		return
	}
	delete(b.byID, h)
	list := b.subs[topic]
	kept := make([]*subscription, 0, len(list))
	for _, s := range list {
		if s.handle == h {
			s.removed = true
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		delete(b.subs, topic)
		return
	}
	b.subs[topic] = kept
}

// Subscribers returns the number of live subscriptions on topic
func (b *Bus) Subscribers(topic Topic) int {
	return len(b.subs[topic])
}

// Publish delivers ev to every subscriber of its topic in subscription
// order. Publishing from inside a handler queues the event; it is delivered
// after the current one finishes.
func (b *Bus) Publish(ev Event) {
	b.queue = append(b.queue, ev)
	if b.running {
		return
	}
	b.running = true
	defer func() { b.running = false }()

	delivered := 0
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		if delivered >= maxDrain {
			b.log.Error("event storm, dropping queued events",
				zap.String("topic", string(next.Topic())),
				zap.Int("dropped", len(b.queue)+1))
			b.queue = nil
			return
		}
		delivered++
		b.dispatch(next)
	}
	b.queue = nil
}

func (b *Bus) dispatch(ev Event) {
	// snapshot so subscriptions added mid-dispatch wait for the next event
	list := append([]*subscription(nil), b.subs[ev.Topic()]...)
	for _, s := range list {
		if s.removed {
			continue
		}
		b.call(s, ev)
	}
}

func (b *Bus) call(s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("handler panic",
				zap.String("topic", string(ev.Topic())),
				zap.Uint64("handle", uint64(s.handle)),
				zap.Any("panic", r))
		}
	}()
	s.fn(ev)
}
