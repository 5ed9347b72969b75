// Package provider abstracts the media session service the client rides
// on. The engine only ever sees this interface plus the typed event
// union; transport quirks stay behind the adapter.
package provider

import (
	"context"
	"errors"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/event"
)

var (
	ErrNotConnected = errors.New("provider not connected")
	// ErrNoDevice means the capture device is absent; ErrDeviceDenied
	// means it exists but access was refused. Both are non-fatal, the
	// session degrades instead of aborting.
	ErrNoDevice     = errors.New("capture device unavailable")
	ErrDeviceDenied = errors.New("capture device access denied")
)

// RemotePublication is the announced state of one remote track at sweep
// time.
type RemotePublication struct {
	Kind       domain.MediaKind
	Muted      bool
	Subscribed bool
}

// RemoteParticipant is a roster entry for the initial sweep a late
// joiner performs: identity, display name, current metadata slot and
// announced publications.
type RemoteParticipant struct {
	ID           domain.ParticipantID
	Name         string
	Metadata     []byte
	Publications []RemotePublication
}

// Provider is the media session service contract. Connect blocks until
// the session is established or fails; afterwards events arrive on the
// handler registered with OnEvent, one at a time.
type Provider interface {
	Connect(ctx context.Context, url, credential string) error
	Disconnect()

	LocalIdentity() domain.ParticipantID
	RemoteParticipants() []RemoteParticipant

	// SetMetadata replaces the local participant's best-effort metadata
	// slot; PublishData broadcasts one reliable frame to everyone.
	SetMetadata(payload []byte) error
	PublishData(payload []byte) error

	SetMicrophoneEnabled(on bool) error
	SetCameraEnabled(on bool) error
	SetScreenShareEnabled(on bool) error

	// OnEvent must be called before Connect. The provider invokes the
	// handler from a single goroutine.
	OnEvent(fn func(event.Event))
}
