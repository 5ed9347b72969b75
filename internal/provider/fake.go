package provider

import (
	"context"
	"sync"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/event"
)

// Fake is an in-memory Provider for tests. Tests script it by setting
// the error fields and the remote roster, then drive the engine with
// Emit in whatever order the scenario needs.
type Fake struct {
	mu sync.Mutex

	Identity domain.ParticipantID
	Remotes  []RemoteParticipant

	ConnectErr error
	MicErr     error
	CamErr     error
	ScreenErr  error

	// EchoData replays every published frame back to the local handler,
	// imitating a transport that echoes broadcasts to their sender.
	EchoData bool

	Connected     bool
	Disconnects   int
	Mic, Cam      bool
	Screen        bool
	Published     [][]byte
	MetadataSlots [][]byte

	handler func(event.Event)
}

var _ Provider = (*Fake)(nil)

func (f *Fake) Connect(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.Connected = true
	return nil
}

func (f *Fake) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = false
	f.Disconnects++
}

func (f *Fake) LocalIdentity() domain.ParticipantID {
	return f.Identity
}

func (f *Fake) RemoteParticipants() []RemoteParticipant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RemoteParticipant(nil), f.Remotes...)
}

func (f *Fake) SetMetadata(payload []byte) error {
	f.mu.Lock()
	f.MetadataSlots = append(f.MetadataSlots, append([]byte(nil), payload...))
	f.mu.Unlock()
	return nil
}

func (f *Fake) PublishData(payload []byte) error {
	f.mu.Lock()
	f.Published = append(f.Published, append([]byte(nil), payload...))
	echo := f.EchoData
	id := f.Identity
	f.mu.Unlock()
	if echo {
		f.Emit(event.DataReceived{Sender: id, Payload: payload})
	}
	return nil
}

func (f *Fake) SetMicrophoneEnabled(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on && f.MicErr != nil {
		return f.MicErr
	}
	f.Mic = on
	return nil
}

func (f *Fake) SetCameraEnabled(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on && f.CamErr != nil {
		return f.CamErr
	}
	f.Cam = on
	return nil
}

func (f *Fake) SetScreenShareEnabled(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on && f.ScreenErr != nil {
		return f.ScreenErr
	}
	f.Screen = on
	return nil
}

func (f *Fake) OnEvent(fn func(event.Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = fn
}

// Emit delivers one event to the registered handler, synchronously, the
// way a real provider's read loop would.
func (f *Fake) Emit(ev event.Event) {
	f.mu.Lock()
	fn := f.handler
	f.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// LastPublished returns the newest reliable frame, or nil.
func (f *Fake) LastPublished() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Published) == 0 {
		return nil
	}
	return f.Published[len(f.Published)-1]
}

// LastMetadata returns the newest metadata slot value, or nil.
func (f *Fake) LastMetadata() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.MetadataSlots) == 0 {
		return nil
	}
	return f.MetadataSlots[len(f.MetadataSlots)-1]
}
