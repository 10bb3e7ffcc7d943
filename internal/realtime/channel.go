package realtime

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"talentlink-inbox/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	// StatusDegraded means realtime is unavailable but REST keeps
	// working; the subscription keeps retrying in the background.
	StatusDegraded
	StatusClosed
)

const (
	readTimeout  = 60 * time.Second
	maxRetryWait = 30 * time.Second
)

// Channel dials per-conversation push subscriptions. One subscription
// is active per selected conversation; the orchestrator closes the old
// one before opening the next.
type Channel struct {
	baseURL string
	token   string
	log     *logger.Logger
	dialer  *websocket.Dialer
}

func NewChannel(baseURL, token string, log *logger.Logger) *Channel {
	return &Channel{
		baseURL: baseURL,
		token:   token,
		log:     log,
		dialer:  websocket.DefaultDialer,
	}
}

// Subscription is one live per-conversation push stream.
type Subscription struct {
	events chan Event
	status chan Status
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *Subscription) Events() <-chan Event  { return s.events }
func (s *Subscription) Status() <-chan Status { return s.status }

// Close tears the subscription down and waits for the pump goroutine
// to exit, so no event for a stale conversation is delivered after it
// returns.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (c *Channel) Subscribe(ctx context.Context, conversationID int64) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan Event, 64),
		status: make(chan Status, 8),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	sub.pushStatus(StatusConnecting)
	go c.run(ctx, conversationID, sub)
	return sub
}

func (c *Channel) run(ctx context.Context, conversationID int64, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.events)
	defer sub.pushStatus(StatusClosed)

	endpoint := fmt.Sprintf("%s/ws/conversations/%d?token=%s",
		c.baseURL, conversationID, url.QueryEscape(c.token))

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = maxRetryWait
	bo.MaxElapsedTime = 0 // retry while the subscription is open

	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			sub.pushStatus(StatusDegraded)
			c.log.Warnf("realtime dial conversation %d: %v", conversationID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(bo.NextBackOff()):
				continue
			}
		}

		bo.Reset()
		sub.pushStatus(StatusConnected)
		c.readLoop(ctx, conn, sub)
		_ = conn.Close()
		if ctx.Err() == nil {
			sub.pushStatus(StatusDegraded)
		}
	}
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn, sub *Subscription) {
	// Unblock the blocking read when the subscription is closed.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		ev, err := DecodeEvent(data)
		if err != nil {
			c.log.Warnf("realtime: dropping frame: %v", err)
			continue
		}
		select {
		case sub.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// pushStatus never blocks; a slow consumer just misses intermediate
// transitions.
func (s *Subscription) pushStatus(status Status) {
	select {
	case s.status <- status:
	default:
	}
}
