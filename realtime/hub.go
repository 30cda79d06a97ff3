// Package realtime fans forum events out to websocket subscribers.
// Clients subscribe to topics; events are dropped for slow consumers
// rather than blocking the broadcast loop.
package realtime

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xquti/mdb-backend/forum"
)

// Topics.
const (
	TopicThreads = "forum/threads"
	TopicPosts   = "forum/posts"
)

// ThreadTopic is the per-thread topic carrying that thread's new posts.
func ThreadTopic(threadID int64) string {
	return fmt.Sprintf("forum/thread/%d", threadID)
}

// Event is the wire format pushed to subscribers.
type Event struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub routes events to subscribed clients. All client bookkeeping
// happens on the run loop goroutine; the only shared state is the
// channels.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	events     chan Event
	done       chan struct{}
}

var _ forum.Broadcaster = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. It returns when Stop is called.
func (h *Hub) Run() {
	clients := make(map[*Client]struct{})
	for {
		select {
		case client := <-h.register:
			clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := clients[client]; ok {
				delete(clients, client)
				close(client.send)
			}
		case event := <-h.events:
			for client := range clients {
				if !client.subscribed(event.Topic) {
					continue
				}
				select {
				case client.send <- event:
				default:
					// Slow consumer; disconnect instead of stalling.
					delete(clients, client)
					close(client.send)
				}
			}
		case <-h.done:
			for client := range clients {
				close(client.send)
			}
			return
		}
	}
}

// Stop shuts the run loop down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

// Publish queues an event for fan-out. Publishing never blocks; if the
// hub is saturated the event is dropped.
func (h *Hub) Publish(event Event) {
	select {
	case h.events <- event:
	default:
		log.Warn().Str("topic", event.Topic).Msg("event queue full, dropping event")
	}
}

// ThreadCreated implements forum.Broadcaster.
func (h *Hub) ThreadCreated(thread *forum.Thread) {
	h.Publish(Event{Topic: TopicThreads, Type: "thread.created", Payload: thread})
}

// PostCreated implements forum.Broadcaster. The event goes to the
// global post feed and to the thread's own topic.
func (h *Hub) PostCreated(post *forum.Post) {
	h.Publish(Event{Topic: TopicPosts, Type: "post.created", Payload: post})
	h.Publish(Event{Topic: ThreadTopic(post.ThreadID), Type: "post.created", Payload: post})
}
