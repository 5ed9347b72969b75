// Package session implements the state-synchronization engine: it joins
// and leaves rooms, turns provider events into state-store transitions
// and keeps every client's view of the room convergent despite
// unordered, partially failing side-channels.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/event"
	"github.com/voxmeet/voxmeet/internal/provider"
	"github.com/voxmeet/voxmeet/internal/roomsvc"
	"github.com/voxmeet/voxmeet/internal/state"
	"github.com/voxmeet/voxmeet/internal/wire"
)

// Phase is the controller's lifecycle:
// Disconnected -> Joining -> Active -> {Leaving | Terminated} -> Disconnected.
type Phase int

const (
	Disconnected Phase = iota
	Joining
	Active
	Leaving
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Joining:
		return "joining"
	case Active:
		return "active"
	case Leaving:
		return "leaving"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Hooks are the rendering side effects the UI layer installs. They fire
// only on publication state transitions, never redundantly.
type Hooks struct {
	AttachTrack func(owner domain.ParticipantID, kind domain.MediaKind)
	DetachTrack func(owner domain.ParticipantID, kind domain.MediaKind)
}

// JoinParams are validated before any side effect happens.
type JoinParams struct {
	RoomName        string `validate:"required,max=64"`
	ParticipantName string `validate:"required,max=36"`
}

// Controller orchestrates the whole session. All state mutations go
// through it; Dispatch serializes event handling, so the sub-components
// it delegates to never run concurrently.
type Controller struct {
	mu sync.Mutex

	store    *state.Store
	prov     provider.Provider
	rooms    roomsvc.Client
	validate *validator.Validate
	hooks    Hooks

	phase Phase
	// epoch is bumped by Leave; a pending Join compares it before
	// committing so a leave-during-join backs the join out.
	epoch uint64

	roomName  string
	localID   domain.ParticipantID
	localName string
	isCreator bool

	micOn, camOn, sharing bool
	micMuted              bool

	tracks *trackManager
	mute   *muteReconciler
	share  *shareArbitrator
	chat   *messenger

	notices chan Notice
}

func New(store *state.Store, prov provider.Provider, rooms roomsvc.Client, hooks Hooks) *Controller {
	c := &Controller{
		store:    store,
		prov:     prov,
		rooms:    rooms,
		validate: validator.New(),
		hooks:    hooks,
		notices:  make(chan Notice, 32),
	}
	c.mute = newMuteReconciler(store)
	c.share = newShareArbitrator(store)
	c.tracks = newTrackManager(store, c.mute, c.share, hooks)
	c.chat = newMessenger(store, prov)
	prov.OnEvent(c.Dispatch)
	return c
}

// Notices delivers user-facing notifications, best-effort.
func (c *Controller) Notices() <-chan Notice {
	return c.notices
}

func (c *Controller) notify(n Notice) {
	select {
	case c.notices <- n:
	default:
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Snapshot() state.Snapshot {
	return c.store.Snapshot()
}

func (c *Controller) Changes() <-chan uint64 {
	return c.store.Changes()
}

// Join establishes the session. Blocking collaborator calls (room
// check, credential, device acquisition) run without holding the
// dispatch lock, so remote events arriving mid-join are still recorded.
func (c *Controller) Join(ctx context.Context, params JoinParams) (*domain.Room, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("join params: %w", err)
	}

	c.mu.Lock()
	if c.phase != Disconnected {
		c.mu.Unlock()
		return nil, ErrAlreadyJoined
	}
	c.phase = Joining
	epoch := c.epoch
	c.mu.Unlock()

	room, err := c.doJoin(ctx, params, epoch)
	if err != nil {
		c.mu.Lock()
		if c.phase == Joining {
			c.phase = Disconnected
		}
		c.mu.Unlock()
		return nil, err
	}
	return room, nil
}

func (c *Controller) doJoin(ctx context.Context, params JoinParams, epoch uint64) (*domain.Room, error) {
	// The creator is whoever joins before the room exists; derived from
	// check ordering, never from a claim in the join payload.
	exists, err := c.rooms.RoomExists(ctx, params.RoomName)
	if err != nil {
		log.Warn().Err(err).Str("module", "session").Str("room", params.RoomName).Msg("room existence check failed, assuming new room")
		exists = false
	}
	isCreator := !exists

	cred, err := c.rooms.IssueCredential(ctx, params.RoomName, params.ParticipantName, isCreator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredential, err)
	}

	room, err := domain.NewRoom(params.RoomName)
	if err != nil {
		return nil, err
	}
	// Install the room before connecting: presence events may arrive
	// the instant the transport is up.
	c.store.Reset(room, "")

	if err := c.prov.Connect(ctx, cred.TransportURL, cred.Token); err != nil {
		c.store.Clear()
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	localID := c.prov.LocalIdentity()
	c.store.BindLocal(localID, params.ParticipantName)

	c.mu.Lock()
	c.roomName = params.RoomName
	c.localID = localID
	c.localName = params.ParticipantName
	c.isCreator = isCreator
	c.chat.bindLocal(localID, params.ParticipantName)
	c.mu.Unlock()

	if isCreator {
		c.store.SetRoomCreator(localID)
		meta, _ := json.Marshal(map[string]any{
			"creatorId": string(localID),
			"createdAt": time.Now().UnixMilli(),
		})
		// Best-effort; the client-side creator flag stays advisory and
		// every privileged action is re-validated server-side anyway.
		_ = c.rooms.SetRoomMetadata(ctx, params.RoomName, meta)
	}

	c.enableDevices()
	c.sweepExisting()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// Leave landed while we were joining.
		c.teardownLocked()
		return nil, ErrJoinAborted
	}
	c.phase = Active
	log.Info().Str("module", "session").Str("room", params.RoomName).Str("id", string(localID)).Bool("creator", isCreator).Msg("joined")
	return c.store.Room(), nil
}

// enableDevices walks the degradation ladder: camera+microphone, then
// microphone only, then view only. Device trouble never aborts a join.
func (c *Controller) enableDevices() {
	micErr := c.prov.SetMicrophoneEnabled(true)
	camErr := c.prov.SetCameraEnabled(true)

	c.mu.Lock()
	c.micOn = micErr == nil
	c.camOn = camErr == nil
	c.micMuted = micErr != nil
	localID := c.localID
	c.mu.Unlock()

	switch {
	case micErr == nil && camErr == nil:
		c.store.UpsertPublication(localID, domain.KindAudio, domain.Subscribed, false)
		c.store.UpsertPublication(localID, domain.KindVideo, domain.Subscribed, false)
	case micErr == nil:
		c.store.UpsertPublication(localID, domain.KindAudio, domain.Subscribed, false)
		log.Warn().Err(camErr).Str("module", "session").Msg("camera unavailable, joining audio-only")
		c.notify(Notice{Level: NoticeWarning, Code: CodeAudioOnly, Text: "No camera available. Joining with audio only."})
	default:
		// Without a microphone the tier is view-only, mirroring the
		// ladder the controls expose; a lone camera is not published.
		if camErr == nil {
			_ = c.prov.SetCameraEnabled(false)
			c.mu.Lock()
			c.camOn = false
			c.mu.Unlock()
		}
		log.Warn().Err(micErr).Str("module", "session").Msg("no media devices, joining view-only")
		c.notify(Notice{Level: NoticeWarning, Code: CodeViewOnly, Text: "No media devices available. You can only view the meeting."})
	}

	c.store.SetAudioMuted(localID, micErr != nil, 0)
	c.broadcastMuteFact(micErr != nil)
}

// sweepExisting replays the current roster through the normal event
// path so a late joiner converges on publications, mute facts and any
// active screen share it missed.
func (c *Controller) sweepExisting() {
	for _, rp := range c.prov.RemoteParticipants() {
		c.Dispatch(event.ParticipantJoined{ID: rp.ID, Name: rp.Name})
		for _, pub := range rp.Publications {
			c.Dispatch(event.TrackPublished{Owner: rp.ID, Kind: pub.Kind, Muted: pub.Muted})
			if pub.Subscribed {
				c.Dispatch(event.TrackSubscribed{Owner: rp.ID, Kind: pub.Kind, Muted: pub.Muted})
			}
		}
		if len(rp.Metadata) > 0 {
			c.Dispatch(event.MetadataChanged{Owner: rp.ID, Payload: rp.Metadata})
		}
	}
}

// Leave is idempotent and safe to call while a join is still pending.
func (c *Controller) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	switch c.phase {
	case Disconnected:
		return
	case Joining:
		// The pending join observes the epoch bump and backs out.
		return
	case Terminated:
		c.phase = Disconnected
		c.store.Clear()
		return
	}
	c.phase = Leaving
	c.teardownLocked()
	c.phase = Disconnected
	log.Info().Str("module", "session").Str("room", c.roomName).Msg("left")
}

// teardownLocked releases the share slot, drops the transport and
// clears all state. Callers hold c.mu.
func (c *Controller) teardownLocked() {
	if c.sharing {
		if b, err := wire.Encode(wire.NewScreenShare(string(c.localID), false, time.Now().UnixMilli())); err == nil {
			_ = c.prov.SetMetadata(b)
		}
		c.sharing = false
	}
	c.prov.Disconnect()
	c.store.Clear()
	c.roomName = ""
	c.isCreator = false
	c.micOn, c.camOn = false, false
}

// EndRoomForAll tears the room down for everyone. The local creator
// flag is only a pre-flight convenience; the room service re-validates
// the requester and answers 403 when it disagrees.
func (c *Controller) EndRoomForAll(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Active {
		c.mu.Unlock()
		return ErrNotJoined
	}
	if !c.isCreator {
		c.mu.Unlock()
		return ErrNotCreator
	}
	roomName, localID := c.roomName, c.localID
	c.mu.Unlock()

	if err := c.rooms.EndRoom(ctx, roomName, string(localID)); err != nil {
		return fmt.Errorf("end room: %w", err)
	}
	c.Leave()
	return nil
}

// Dispatch routes one provider event to the owning component. It is the
// single mutation path: the lock serializes handlers the way a browser
// event loop would, and a panicking handler is contained here rather
// than unwinding into the provider's read loop.
func (c *Controller) Dispatch(ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "session").Type("event", ev).Msg("event handler panicked")
		}
	}()

	if c.phase != Active && c.phase != Joining {
		log.Debug().Str("module", "session").Str("phase", c.phase.String()).Type("event", ev).Msg("event dropped outside session")
		return
	}

	switch ev := ev.(type) {
	case event.ParticipantJoined:
		c.handleParticipantJoined(ev)
	case event.ParticipantLeft:
		c.handleParticipantLeft(ev)
	case event.TrackPublished:
		c.tracks.onAnnounced(ev.Owner, ev.Kind, ev.Muted)
	case event.TrackSubscribed:
		c.tracks.onSubscribed(ev.Owner, ev.Kind, ev.Muted)
	case event.TrackUnsubscribed:
		c.tracks.onEnded(ev.Owner, ev.Kind)
	case event.TrackMuted:
		if ev.Kind == domain.KindAudio {
			c.mute.applyTrackSignal(ev.Owner, true)
		}
	case event.TrackUnmuted:
		if ev.Kind == domain.KindAudio {
			c.mute.applyTrackSignal(ev.Owner, false)
		}
	case event.MetadataChanged:
		c.handleMetadata(ev)
	case event.DataReceived:
		if n, ok := c.chat.onReceive(ev.Sender, ev.Payload); ok {
			c.notify(n)
		}
	case event.Disconnected:
		c.handleDisconnected(ev)
	default:
		log.Warn().Str("module", "session").Type("event", ev).Msg("unhandled event")
	}
}

func (c *Controller) handleParticipantJoined(ev event.ParticipantJoined) {
	p := c.store.EnsureParticipant(ev.ID, ev.Name)
	c.store.SetParticipantState(ev.ID, domain.ParticipantActive)
	log.Info().Str("module", "session").Str("id", string(ev.ID)).Msg("participant joined")
	c.notify(Notice{Level: NoticeInfo, Code: CodeParticipantJoined, Text: p.Name + " joined the meeting"})
}

func (c *Controller) handleParticipantLeft(ev event.ParticipantLeft) {
	p, ok := c.store.Participant(ev.ID)
	if !ok {
		return
	}
	name := p.Name
	// An abrupt departure is the authoritative release: no release
	// broadcast will ever arrive from this peer.
	c.share.observeTrackEnded(ev.ID)
	c.tracks.dropAll(ev.ID)
	c.store.RemoveParticipant(ev.ID)
	log.Info().Str("module", "session").Str("id", string(ev.ID)).Msg("participant left")
	c.notify(Notice{Level: NoticeWarning, Code: CodeParticipantLeft, Text: name + " left the meeting"})
}

func (c *Controller) handleMetadata(ev event.MetadataChanged) {
	p, err := wire.Decode(ev.Payload)
	if err != nil {
		log.Warn().Err(err).Str("module", "session").Str("owner", string(ev.Owner)).Msg("undecodable metadata")
		return
	}
	switch p := p.(type) {
	case wire.MuteStatus:
		c.mute.applyMetaFact(ev.Owner, p.Muted, p.Timestamp)
	case wire.ScreenShare:
		// The metadata owner is the holder; the payload's sender field
		// is not trusted for arbitration.
		c.share.observeClaim(ev.Owner, p.Sharing)
	}
}

func (c *Controller) handleDisconnected(ev event.Disconnected) {
	switch ev.Reason {
	case event.ReasonRoomClosed:
		c.phase = Terminated
		c.store.MarkTerminated()
		if !c.isCreator {
			c.notify(Notice{Level: NoticeWarning, Code: CodeEndedByHost, Text: "The room has been ended by the host"})
		}
		log.Info().Str("module", "session").Str("room", c.roomName).Bool("creator", c.isCreator).Msg("room closed by operator")
	case event.ReasonLeft:
		// Our own teardown; Leave already handled it.
	default:
		// Any unexpected transport drop is terminal for the session.
		c.phase = Terminated
		c.store.MarkTerminated()
		c.notify(Notice{Level: NoticeError, Code: CodeDisconnected, Text: "Connection to the meeting was lost"})
		log.Error().Str("module", "session").Str("reason", ev.Reason.String()).Msg("transport disconnected")
	}
}

func (c *Controller) broadcastMuteFact(muted bool) {
	c.mu.Lock()
	localID := c.localID
	c.mu.Unlock()
	b, err := wire.Encode(wire.NewMuteStatus(string(localID), muted, time.Now().UnixMilli()))
	if err != nil {
		return
	}
	if err := c.prov.SetMetadata(b); err != nil {
		log.Warn().Err(err).Str("module", "session").Msg("mute fact broadcast failed")
	}
}
