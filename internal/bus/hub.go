// Package bus implements the process-local publish/subscribe channel model
// behind the gateway's real-time notifications. Channels are named groups of
// live subscribers; membership is ephemeral and dies with the connection.
package bus

import "sync"

// Channel name derivation. No wildcard or hierarchical matching.
func QuizChannel(quizID string) string { return "quiz-" + quizID }
func UserChannel(userID string) string { return "user-" + userID }

// Event is one notification delivered to channel subscribers.
type Event struct {
	Name    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher is the delivery side of the bus. Delivery is best-effort and
// fire-and-forget: no acknowledgment, no retry, no replay.
type Publisher interface {
	Publish(channel, event string, payload any)
}

const subscriberBuffer = 16

// Subscriber is one connection's mailbox. Events arrive on a buffered
// channel; when the buffer is full the oldest event is dropped so a slow
// consumer never blocks publishers.
type Subscriber struct {
	events chan Event
}

// Events returns the receive side of the mailbox. The channel is closed when
// the subscriber is removed from the hub.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Hub tracks channel membership for all live subscribers. All methods are
// safe for concurrent use from independent connection handlers.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[*Subscriber]struct{}
	members  map[*Subscriber]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[*Subscriber]struct{}),
		members:  make(map[*Subscriber]map[string]struct{}),
	}
}

// Subscribe registers a new subscriber with no channel memberships.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{events: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.members[sub] = make(map[string]struct{})
	h.mu.Unlock()
	return sub
}

// Join adds sub to channel. Joining a channel twice is a no-op.
func (h *Hub) Join(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.members[sub]; !ok {
		return // already unsubscribed
	}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Subscriber]struct{})
	}
	h.channels[channel][sub] = struct{}{}
	h.members[sub][channel] = struct{}{}
}

// Leave removes sub from channel.
func (h *Hub) Leave(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub, channel)
	if set, ok := h.members[sub]; ok {
		delete(set, channel)
	}
}

// Unsubscribe drops sub from every channel and closes its mailbox. Called on
// connection close; no record of the memberships survives.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.members[sub]
	if !ok {
		return
	}
	for channel := range set {
		h.dropLocked(sub, channel)
	}
	delete(h.members, sub)
	close(sub.events)
}

func (h *Hub) dropLocked(sub *Subscriber, channel string) {
	if set, ok := h.channels[channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Publish delivers the event to every subscriber currently in channel. A full
// mailbox sheds its oldest event instead of blocking; subscribers that left
// moments earlier simply miss the event.
func (h *Hub) Publish(channel, event string, payload any) {
	msg := Event{Name: event, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.channels[channel] {
		select {
		case sub.events <- msg:
		default:
			select {
			case <-sub.events:
			default:
			}
			sub.events <- msg
		}
	}
}
