// Package event defines the typed union of provider facts the session
// controller dispatches. The provider adapter is the only producer; the
// controller routes each variant to the component that owns it, so the
// reconciliation rules stay testable as plain (state, event) reducers.
package event

import "github.com/voxmeet/voxmeet/internal/domain"

type Event interface {
	isEvent()
}

// DisconnectReason separates operator-forced room closure from a normal
// teardown; the two surface different notifications.
type DisconnectReason int

const (
	ReasonUnknown DisconnectReason = iota
	ReasonLeft
	ReasonRoomClosed
	ReasonTransportFailure
)

func (r DisconnectReason) String() string {
	switch r {
	case ReasonLeft:
		return "left"
	case ReasonRoomClosed:
		return "room_closed"
	case ReasonTransportFailure:
		return "transport_failure"
	}
	return "unknown"
}

type ParticipantJoined struct {
	ID   domain.ParticipantID
	Name string
}

type ParticipantLeft struct {
	ID domain.ParticipantID
}

// TrackPublished announces a publication before media is decodable.
type TrackPublished struct {
	Owner domain.ParticipantID
	Kind  domain.MediaKind
	Muted bool
}

// TrackSubscribed fires once the provider delivers decodable media.
type TrackSubscribed struct {
	Owner domain.ParticipantID
	Kind  domain.MediaKind
	Muted bool
}

type TrackUnsubscribed struct {
	Owner domain.ParticipantID
	Kind  domain.MediaKind
}

type TrackMuted struct {
	Owner domain.ParticipantID
	Kind  domain.MediaKind
}

type TrackUnmuted struct {
	Owner domain.ParticipantID
	Kind  domain.MediaKind
}

// MetadataChanged carries the raw best-effort metadata slot; the wire
// package decodes it.
type MetadataChanged struct {
	Owner   domain.ParticipantID
	Payload []byte
}

// DataReceived carries one reliable-broadcast frame.
type DataReceived struct {
	Sender  domain.ParticipantID
	Payload []byte
}

type Disconnected struct {
	Reason DisconnectReason
}

func (ParticipantJoined) isEvent() {}
func (ParticipantLeft) isEvent()   {}
func (TrackPublished) isEvent()    {}
func (TrackSubscribed) isEvent()   {}
func (TrackUnsubscribed) isEvent() {}
func (TrackMuted) isEvent()        {}
func (TrackUnmuted) isEvent()      {}
func (MetadataChanged) isEvent()   {}
func (DataReceived) isEvent()      {}
func (Disconnected) isEvent()      {}
