package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("signal send buffer full")

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 64
)

// frame is the signaling envelope. Every message carries a type
// discriminator; the remaining fields are populated per type.
type frame struct {
	Type string `json:"type"`

	SDP           string `json:"sdp,omitempty"`
	Candidate     string `json:"candidate,omitempty"`
	SDPMid        string `json:"sdpMid,omitempty"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`

	Identity string          `json:"identity,omitempty"`
	Name     string          `json:"name,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Source   string          `json:"source,omitempty"`
	Muted    bool            `json:"muted,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`

	Participants []remoteRoster `json:"participants,omitempty"`
}

type remoteRoster struct {
	Identity string          `json:"identity"`
	Name     string          `json:"name"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Tracks   []rosterTrack   `json:"tracks,omitempty"`
}

type rosterTrack struct {
	Kind       string `json:"kind"`
	Source     string `json:"source,omitempty"`
	Muted      bool   `json:"muted"`
	Subscribed bool   `json:"subscribed"`
}

// signalConn wraps the websocket with a bounded send queue so a slow
// signaling link never blocks the caller; overflow drops the frame.
type signalConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func dialSignal(ctx context.Context, url, token string) (*signalConn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return &signalConn{conn: ws, send: make(chan []byte, sendQueueSize)}, nil
}

func (c *signalConn) trySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("signal connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *signalConn) sendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "provider.rtc").Msg("signal marshal")
		return err
	}
	return c.trySend(b)
}

func (c *signalConn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *signalConn) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "provider.rtc").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "provider.rtc").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "provider.rtc").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump decodes frames and hands them to the provider until the
// connection dies; handle runs on this goroutine, which is what gives
// the event callback its single-goroutine guarantee.
func (c *signalConn) readPump(ctx context.Context, handle func(frame)) {
	defer func() {
		log.Info().Str("module", "provider.rtc").Msg("readPump closing")
		c.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "provider.rtc").Msg("readPump read error")
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				log.Error().Err(err).Str("module", "provider.rtc").Msg("bad signal json")
				continue
			}
			handle(f)
		}
	}
}
