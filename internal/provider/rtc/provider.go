// Package rtc is the production provider: signaling over a websocket,
// media over a pion peer connection. The media node drives negotiation
// the SFU way, offers come from the server and this side answers.
package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/event"
	"github.com/voxmeet/voxmeet/internal/provider"
)

const joinTimeout = 10 * time.Second

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// Connection implements provider.Provider against a real media node.
type Connection struct {
	cfg   webrtc.Configuration
	media MediaSource

	mu       sync.Mutex
	sig      *signalConn
	pc       *webrtc.PeerConnection
	cancel   context.CancelFunc
	identity domain.ParticipantID
	roster   map[domain.ParticipantID]provider.RemoteParticipant
	senders  map[domain.MediaKind]*webrtc.RTPSender

	handler func(event.Event)
}

var _ provider.Provider = (*Connection)(nil)

func NewConnection(cfg webrtc.Configuration, media MediaSource) *Connection {
	if media == nil {
		media = NoMedia{}
	}
	return &Connection{
		cfg:     cfg,
		media:   media,
		roster:  make(map[domain.ParticipantID]provider.RemoteParticipant),
		senders: make(map[domain.MediaKind]*webrtc.RTPSender),
	}
}

func (c *Connection) OnEvent(fn func(event.Event)) {
	c.handler = fn
}

func (c *Connection) emit(ev event.Event) {
	if c.handler != nil {
		c.handler(ev)
	}
}

// Connect dials the signaling endpoint, performs the join handshake
// synchronously and only then starts the pumps, so the roster is
// complete before any event can fire.
func (c *Connection) Connect(ctx context.Context, url, credential string) error {
	sig, err := dialSignal(ctx, url, credential)
	if err != nil {
		return fmt.Errorf("dial signal: %w", err)
	}

	joined, err := c.handshake(ctx, sig)
	if err != nil {
		sig.close()
		return err
	}

	pc, err := webrtc.NewPeerConnection(c.cfg)
	if err != nil {
		sig.close()
		return fmt.Errorf("peer connection: %w", err)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.sig = sig
	c.pc = pc
	c.cancel = cancel
	c.identity = domain.ParticipantID(joined.Identity)
	c.roster = make(map[domain.ParticipantID]provider.RemoteParticipant)
	for _, rp := range joined.Participants {
		c.roster[domain.ParticipantID(rp.Identity)] = toRemote(rp)
	}
	c.mu.Unlock()

	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "provider.rtc").Str("ice_state", s.String()).Msg("ICE state")
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "provider.rtc").Str("peer_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateFailed {
			cancel()
		}
	})
	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		ci := cand.ToJSON()
		f := frame{Type: "candidate", Candidate: ci.Candidate}
		if ci.SDPMid != nil {
			f.SDPMid = *ci.SDPMid
		}
		if ci.SDPMLineIndex != nil {
			f.SDPMLineIndex = *ci.SDPMLineIndex
		}
		_ = sig.sendJSON(f)
	})
	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		// Subscription state is driven by the signaling frames; the
		// media itself is consumed by whatever sink the app attaches.
		log.Info().Str("module", "provider.rtc").Str("kind", track.Kind().String()).Str("stream_id", track.StreamID()).Msg("remote track")
	})

	go sig.writePump(pumpCtx)
	go func() {
		sig.readPump(pumpCtx, c.handleFrame)
		// Read loop death without a leave is a dropped transport.
		c.emit(event.Disconnected{Reason: event.ReasonTransportFailure})
	}()

	log.Info().Str("module", "provider.rtc").Str("identity", joined.Identity).Msg("connected")
	return nil
}

// handshake sends the join and reads frames inline until the ack; the
// pumps are not running yet so this side owns the socket.
func (c *Connection) handshake(ctx context.Context, sig *signalConn) (frame, error) {
	deadline := time.Now().Add(joinTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	b, err := json.Marshal(frame{Type: "join"})
	if err != nil {
		return frame{}, err
	}
	_ = sig.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sig.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return frame{}, fmt.Errorf("send join: %w", err)
	}

	_ = sig.conn.SetReadDeadline(deadline)
	defer sig.conn.SetReadDeadline(time.Time{})
	for {
		_, data, err := sig.conn.ReadMessage()
		if err != nil {
			return frame{}, fmt.Errorf("join handshake: %w", err)
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		switch f.Type {
		case "joined":
			if f.Identity == "" {
				return frame{}, errors.New("join handshake: no identity assigned")
			}
			return f, nil
		case "error":
			return frame{}, fmt.Errorf("join rejected: %s", f.Reason)
		}
	}
}

func toRemote(rp remoteRoster) provider.RemoteParticipant {
	out := provider.RemoteParticipant{
		ID:       domain.ParticipantID(rp.Identity),
		Name:     rp.Name,
		Metadata: rp.Metadata,
	}
	for _, tr := range rp.Tracks {
		kind, ok := provider.NormalizeKind(tr.Kind, tr.Source)
		if !ok {
			continue
		}
		out.Publications = append(out.Publications, provider.RemotePublication{
			Kind:       kind,
			Muted:      tr.Muted,
			Subscribed: tr.Subscribed,
		})
	}
	return out
}

// handleFrame runs on the readPump goroutine; that is the one and only
// place events are emitted from.
func (c *Connection) handleFrame(f frame) {
	id := domain.ParticipantID(f.Identity)
	switch f.Type {
	case "offer":
		c.acceptOffer(f.SDP)
	case "candidate":
		ci := webrtc.ICECandidateInit{Candidate: f.Candidate}
		if f.SDPMid != "" {
			mid := f.SDPMid
			ci.SDPMid = &mid
		}
		c.mu.Lock()
		pc := c.pc
		c.mu.Unlock()
		if pc != nil {
			if err := pc.AddICECandidate(ci); err != nil {
				log.Error().Err(err).Str("module", "provider.rtc").Msg("add candidate")
			}
		}
	case "participant_joined":
		c.mu.Lock()
		c.roster[id] = provider.RemoteParticipant{ID: id, Name: f.Name}
		c.mu.Unlock()
		c.emit(event.ParticipantJoined{ID: id, Name: f.Name})
	case "participant_left":
		c.mu.Lock()
		delete(c.roster, id)
		c.mu.Unlock()
		c.emit(event.ParticipantLeft{ID: id})
	case "track_published":
		if kind, ok := provider.NormalizeKind(f.Kind, f.Source); ok {
			c.emit(event.TrackPublished{Owner: id, Kind: kind, Muted: f.Muted})
		}
	case "track_subscribed":
		if kind, ok := provider.NormalizeKind(f.Kind, f.Source); ok {
			c.emit(event.TrackSubscribed{Owner: id, Kind: kind, Muted: f.Muted})
		}
	case "track_unpublished", "track_unsubscribed":
		if kind, ok := provider.NormalizeKind(f.Kind, f.Source); ok {
			c.emit(event.TrackUnsubscribed{Owner: id, Kind: kind})
		}
	case "track_muted":
		if kind, ok := provider.NormalizeKind(f.Kind, f.Source); ok {
			c.emit(event.TrackMuted{Owner: id, Kind: kind})
		}
	case "track_unmuted":
		if kind, ok := provider.NormalizeKind(f.Kind, f.Source); ok {
			c.emit(event.TrackUnmuted{Owner: id, Kind: kind})
		}
	case "metadata":
		c.emit(event.MetadataChanged{Owner: id, Payload: f.Payload})
	case "data":
		if payload, ok := provider.NormalizeData([]byte(f.Payload)); ok {
			c.emit(event.DataReceived{Sender: id, Payload: payload})
		}
	case "room_closed":
		c.emit(event.Disconnected{Reason: event.ReasonRoomClosed})
	case "disconnected":
		c.emit(event.Disconnected{Reason: provider.NormalizeReason(f.Reason)})
	default:
		log.Warn().Str("module", "provider.rtc").Str("type", f.Type).Msg("unknown signal")
	}
}

func (c *Connection) acceptOffer(sdp string) {
	c.mu.Lock()
	pc, sig := c.pc, c.sig
	c.mu.Unlock()
	if pc == nil || sig == nil {
		return
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := pc.SetRemoteDescription(offer); err != nil {
		log.Error().Err(err).Str("module", "provider.rtc").Msg("set remote description")
		return
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		log.Error().Err(err).Str("module", "provider.rtc").Msg("create answer")
		return
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		log.Error().Err(err).Str("module", "provider.rtc").Msg("set local description")
		return
	}
	<-gatherComplete
	_ = sig.sendJSON(frame{Type: "answer", SDP: pc.LocalDescription().SDP})
}

func (c *Connection) Disconnect() {
	c.mu.Lock()
	sig, pc, cancel := c.sig, c.pc, c.cancel
	c.sig, c.pc, c.cancel = nil, nil, nil
	c.mu.Unlock()
	if sig == nil {
		return
	}

	_ = sig.sendJSON(frame{Type: "leave"})
	if cancel != nil {
		cancel()
	}
	sig.close()
	if pc != nil {
		if err := pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "provider.rtc").Msg("close error")
		}
	}
	log.Info().Str("module", "provider.rtc").Msg("disconnected")
}

func (c *Connection) LocalIdentity() domain.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Connection) RemoteParticipants() []provider.RemoteParticipant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]provider.RemoteParticipant, 0, len(c.roster))
	for _, rp := range c.roster {
		out = append(out, rp)
	}
	return out
}

func (c *Connection) SetMetadata(payload []byte) error {
	c.mu.Lock()
	sig := c.sig
	c.mu.Unlock()
	if sig == nil {
		return provider.ErrNotConnected
	}
	return sig.sendJSON(frame{Type: "metadata", Payload: payload})
}

func (c *Connection) PublishData(payload []byte) error {
	c.mu.Lock()
	sig := c.sig
	c.mu.Unlock()
	if sig == nil {
		return provider.ErrNotConnected
	}
	return sig.sendJSON(frame{Type: "data", Payload: payload})
}

func (c *Connection) SetMicrophoneEnabled(on bool) error {
	return c.setLocalTrack(domain.KindAudio, "audio", "", on, c.media.AcquireMicrophone)
}

func (c *Connection) SetCameraEnabled(on bool) error {
	return c.setLocalTrack(domain.KindVideo, "video", "camera", on, c.media.AcquireCamera)
}

func (c *Connection) SetScreenShareEnabled(on bool) error {
	return c.setLocalTrack(domain.KindScreenVideo, "video", "screenshare", on, c.media.AcquireScreen)
}

func (c *Connection) setLocalTrack(kind domain.MediaKind, wireKind, source string, on bool, acquire func() (webrtc.TrackLocal, error)) error {
	c.mu.Lock()
	sig, pc := c.sig, c.pc
	sender := c.senders[kind]
	c.mu.Unlock()
	if sig == nil || pc == nil {
		return provider.ErrNotConnected
	}

	if !on {
		if sender == nil {
			return nil
		}
		if err := pc.RemoveTrack(sender); err != nil {
			return fmt.Errorf("remove track: %w", err)
		}
		c.mu.Lock()
		delete(c.senders, kind)
		c.mu.Unlock()
		return sig.sendJSON(frame{Type: "unpublish", Kind: wireKind, Source: source})
	}

	if sender != nil {
		return nil
	}
	track, err := acquire()
	if err != nil {
		return err
	}
	sender, err = pc.AddTrack(track)
	if err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	c.mu.Lock()
	c.senders[kind] = sender
	c.mu.Unlock()
	return sig.sendJSON(frame{Type: "publish", Kind: wireKind, Source: source})
}
