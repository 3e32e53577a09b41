package trace

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// DefaultEventsURL is the default ingest endpoint of a taskdeck run started
// with -trace-listen.
const DefaultEventsURL = "http://localhost:9721/events"

// EventSink consumes operation events. Recorder stores them locally; Client
// ships them to a remote ingest server.
type EventSink interface {
	HandleEvent(event OpEvent) error
}

var _ EventSink = (*Recorder)(nil)
var _ EventSink = (*Client)(nil)

// Client posts operation events to a trace ingest server. Events are queued
// and sent by a single background goroutine so start and end arrive in order;
// a failed send disables the client rather than stalling the reporter.
type Client struct {
	url    string
	http   *http.Client
	log    logr.Logger
	events chan OpEvent
	done   chan struct{}

	mu      sync.Mutex
	enabled bool
}

// NewClient creates a client for the ingest server at url. An empty url
// falls back to the TASKDECK_TRACE_URL env var and then DefaultEventsURL.
func NewClient(url string, log logr.Logger) *Client {
	if url == "" {
		url = os.Getenv("TASKDECK_TRACE_URL")
	}
	if url == "" {
		url = DefaultEventsURL
	}
	c := &Client{
		url:     url,
		http:    &http.Client{Timeout: 2 * time.Second},
		log:     log,
		events:  make(chan OpEvent, 64),
		done:    make(chan struct{}),
		enabled: true,
	}
	go c.pump()
	return c
}

// HandleEvent implements EventSink. It queues without blocking; when the
// queue is full or the client has disabled itself the event is dropped.
// Must not be called after Close.
func (c *Client) HandleEvent(event OpEvent) error {
	if !c.Enabled() {
		return nil
	}
	select {
	case c.events <- event:
	default:
		// Queue full; drop to avoid stalling the reporter.
	}
	return nil
}

// Enabled reports whether the client is still sending.
func (c *Client) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Close flushes queued events and stops the sender.
func (c *Client) Close() {
	close(c.events)
	<-c.done
}

func (c *Client) pump() {
	defer close(c.done)
	for event := range c.events {
		if !c.Enabled() {
			continue
		}
		c.post(event)
	}
}

func (c *Client) post(event OpEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		c.log.Error(err, "marshaling op event")
		return
	}
	resp, err := c.http.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		c.disable(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Info("trace server rejected event", "status", resp.StatusCode)
	}
}

// disable turns the client off after the first failed send so an absent
// server costs one error line, not one per event.
func (c *Client) disable(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.enabled = false
		c.log.Error(err, "posting op event failed, disabling trace client", "url", c.url)
	}
}
