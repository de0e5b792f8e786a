package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atelier-research/beacon/internal/api"
	"github.com/atelier-research/beacon/internal/event"
	"github.com/atelier-research/beacon/internal/metrics"
)

// Channel owns one full-duplex push connection for a single research id.
// It produces the inbound events as a finite, in-order sequence on Events();
// the connection is receive-only from the client's perspective.
type Channel struct {
	researchID string
	conn       *websocket.Conn
	log        *zap.Logger

	events chan event.Event
	closed chan struct{}
	done   chan struct{}

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// Dial opens the push connection for researchID against the ws base URL
// (e.g. ws://localhost:8002). A transport failure is a NetworkError.
func Dial(ctx context.Context, wsBase, researchID string, logger *zap.Logger) (*Channel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	url := fmt.Sprintf("%s/ws/%s", wsBase, researchID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &api.NetworkError{Op: "open push channel", URL: url, Err: err}
	}

	c := &Channel{
		researchID: researchID,
		conn:       conn,
		log:        logger,
		// Unbuffered on purpose: an event is either handed to the consumer
		// before Close or dropped, never parked where it could surface later.
		events: make(chan event.Event),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.readPump()
	logger.Info("Push channel connected", zap.String("research_id", researchID))
	return c, nil
}

// Events returns the ordered sequence of decoded push events. The channel
// is closed when the connection ends; nothing is delivered after Close.
func (c *Channel) Events() <-chan event.Event { return c.events }

// Done is closed once the read pump has exited.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Err returns the terminal read error, if any, once Done is closed.
// A connection ended by Close reports no error.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close tears the connection down. Idempotent; safe to call concurrently
// with inbound traffic. Any message still in flight is dropped.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.conn.Close()
		// Wait for the read pump so no delivery can race past Close.
		<-c.done
		c.log.Info("Push channel closed", zap.String("research_id", c.researchID))
	})
	return nil
}

// readPump reads frames until the connection ends, decoding each into an
// Event. Malformed frames are logged and dropped; they never reach the
// consumer and never terminate the stream.
func (c *Channel) readPump() {
	defer close(c.done)
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				// Local close; expected error, not surfaced.
			default:
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
				c.log.Warn("Push channel read failed",
					zap.String("research_id", c.researchID),
					zap.Error(err),
				)
			}
			return
		}

		ev, err := event.Decode(data)
		if err != nil {
			metrics.PushMalformedDropped.Inc()
			c.log.Warn("Dropping malformed push message",
				zap.String("research_id", c.researchID),
				zap.Error(err),
			)
			continue
		}
		metrics.PushEventsReceived.WithLabelValues(string(ev.Type)).Inc()

		// Closed wins over a ready consumer: in-flight messages are dropped.
		select {
		case <-c.closed:
			return
		default:
		}
		select {
		case <-c.closed:
			return
		case c.events <- ev:
		}
	}
}
