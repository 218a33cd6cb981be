// Package live keeps the console's cached lists fresh by listening to the
// backend's change feed over a websocket.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"erpconsole/internal/apiclient"
	"erpconsole/internal/logger"
	"erpconsole/internal/querycache"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one entity change announced by the backend.
type Event struct {
	Entity string    `json:"entity"`
	Action string    `json:"action"`
	ID     uuid.UUID `json:"id"`
	At     time.Time `json:"at"`
}

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Subscriber drops cached entries named by incoming events and hands each
// event to the registered handlers.
type Subscriber struct {
	client *apiclient.Client
	cache  *querycache.Cache
	dialer *websocket.Dialer

	mu       sync.Mutex
	handlers []func(Event)
}

func New(client *apiclient.Client, cache *querycache.Cache) *Subscriber {
	return &Subscriber{
		client: client,
		cache:  cache,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// OnEvent registers fn to run after the cache has been invalidated for an event.
func (s *Subscriber) OnEvent(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// URL turns the API root into the feed address: http becomes ws, https becomes wss.
func URL(apiRoot string) (string, error) {
	switch {
	case strings.HasPrefix(apiRoot, "https://"):
		return "wss://" + strings.TrimPrefix(apiRoot, "https://") + "/ws", nil
	case strings.HasPrefix(apiRoot, "http://"):
		return "ws://" + strings.TrimPrefix(apiRoot, "http://") + "/ws", nil
	}
	return "", fmt.Errorf("unsupported API URL %q", apiRoot)
}

// Run listens until ctx is cancelled, reconnecting with exponential backoff.
// It gives up when the session can no longer be refreshed.
func (s *Subscriber) Run(ctx context.Context) error {
	log := logger.WithComponent("live")
	backoff := minBackoff
	for {
		err := s.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if apiclient.IsUnauthorized(err) {
			return err
		}
		log.Warn().Err(err).Dur("retry_in", backoff).Msg("change feed disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// listen opens one connection and reads events until it drops or ctx ends.
func (s *Subscriber) listen(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	log := logger.WithComponent("live")
	log.Debug().Msg("change feed connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read change feed: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Entity == "" {
			log.Warn().Bytes("message", msg).Msg("ignoring malformed event")
			continue
		}
		s.dispatch(ev)
	}
}

// dial connects with the stored access token. A rejected handshake triggers
// one refresh through an authenticated request before the second attempt.
func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	target, err := URL(s.client.BaseURL())
	if err != nil {
		return nil, err
	}
	conn, err := s.dialWith(ctx, target, s.client.Store().AccessToken())
	if !apiclient.IsUnauthorized(err) {
		return conn, err
	}
	if _, err := s.client.Get(ctx, "/auth/me", nil, nil); err != nil {
		return nil, err
	}
	return s.dialWith(ctx, target, s.client.Store().AccessToken())
}

func (s *Subscriber) dialWith(ctx context.Context, target, token string) (*websocket.Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := s.dialer.DialContext(ctx, target, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, &apiclient.APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("dial change feed: %w", err)
	}
	return conn, nil
}

func (s *Subscriber) dispatch(ev Event) {
	s.cache.Invalidate(ev.Entity + "/")

	s.mu.Lock()
	handlers := append([]func(Event){}, s.handlers...)
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
}
