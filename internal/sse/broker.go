// Package sse implements a Server-Sent Events broker that tells open pages
// when the template set changes, so they can refresh themselves.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/quire/internal/reload"
)

// Event types published for reload cycles.
const (
	EventReloaded     = "templates.reloaded"
	EventReloadFailed = "templates.reload_failed"
)

const (
	defaultRetry     = 2 * time.Second
	defaultKeepAlive = 25 * time.Second
	clientBuffer     = 16
)

// Event is one frame on the stream. ID, when set, is the reload cycle
// sequence number the event describes.
type Event struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (e Event) frame() ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if e.ID != "" {
		fmt.Fprintf(&sb, "id: %s\n", e.ID)
	}
	fmt.Fprintf(&sb, "event: %s\ndata: %s\n\n", e.Type, payload)
	return []byte(sb.String()), nil
}

// subscription asks the loop to register ch. lastID is the Last-Event-ID
// the client reconnected with, if any.
type subscription struct {
	ch     chan []byte
	lastID string
}

// Option configures a Broker.
type Option func(*Broker)

// WithRetry sets the reconnect delay advertised to clients.
func WithRetry(d time.Duration) Option {
	return func(b *Broker) { b.retry = d }
}

// WithKeepAlive sets how often an idle stream gets a comment line, so
// proxies do not time it out. Zero disables it.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) { b.keepAlive = d }
}

// Broker fans reload events out to connected pages.
//
// A single loop goroutine owns the client set and the last successful
// reload. Public methods talk to it through channels.
type Broker struct {
	retry     time.Duration
	keepAlive time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its loop.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		retry:         defaultRetry,
		keepAlive:     defaultKeepAlive,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 64),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

// hub is the state owned by the loop goroutine.
type hub struct {
	clients map[chan []byte]struct{}

	// Last successful reload, replayed to clients that reconnect having
	// missed it.
	lastSeq   int64
	lastFrame []byte
}

func (h *hub) add(sub subscription) {
	h.clients[sub.ch] = struct{}{}
	if h.lastFrame == nil || sub.lastID == "" {
		return
	}
	seen, err := strconv.ParseInt(sub.lastID, 10, 64)
	if err != nil || seen < h.lastSeq {
		sub.ch <- h.lastFrame
	}
}

func (h *hub) broadcast(e Event) {
	raw, err := e.frame()
	if err != nil {
		return
	}
	if e.Type == EventReloaded {
		if seq, err := strconv.ParseInt(e.ID, 10, 64); err == nil {
			h.lastSeq, h.lastFrame = seq, raw
		}
	}
	for ch := range h.clients {
		select {
		case ch <- raw:
		default:
			// Slow client; a later reload supersedes this one anyway.
		}
	}
}

func (b *Broker) run() {
	defer close(b.stopped)

	h := &hub{clients: make(map[chan []byte]struct{})}

	for {
		select {
		case <-b.stopCh:
			for ch := range h.clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			// Events published before Subscribe was called land first.
			b.drainPublished(h)
			h.add(sub)

		case ch := <-b.unsubscribeCh:
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}

		case e := <-b.publishCh:
			h.broadcast(e)

		case resp := <-b.countReqCh:
			resp <- len(h.clients)
		}
	}
}

func (b *Broker) drainPublished(h *hub) {
	for {
		select {
		case e := <-b.publishCh:
			h.broadcast(e)
		default:
			return
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. lastID is the ID of the last event the
// client saw, or "" for a fresh page; a client behind the latest
// successful reload receives it immediately.
func (b *Broker) Subscribe(lastID string) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, lastID: lastID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- e:
	case <-b.stopped:
	}
}

// PublishCycle announces the outcome of a reload cycle. It has the shape of
// a reload.Observer. Failures carry only the sequence number; the
// diagnostics stay in the server log.
func (b *Broker) PublishCycle(c reload.Cycle) {
	id := strconv.FormatInt(c.Seq, 10)
	if !c.OK() {
		b.Publish(Event{ID: id, Type: EventReloadFailed, Data: map[string]any{"seq": c.Seq}})
		return
	}
	b.Publish(Event{ID: id, Type: EventReloaded, Data: map[string]any{"seq": c.Seq, "templates": c.Templates}})
}

// ServeHTTP streams events to one page until it disconnects or the broker
// closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", b.retry.Milliseconds())
	flusher.Flush()

	ch := b.Subscribe(r.Header.Get("Last-Event-ID"))
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.keepAlive > 0 {
		ticker := time.NewTicker(b.keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
