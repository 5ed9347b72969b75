// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxRoomNameLen    = 64
	MaxParticipantLen = 36
)

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

type RoomName string

// Room is the locally derived view of the session's room. CreatorID is
// empty until the creator is known; it is client-asserted and must be
// re-validated by the room service on privileged actions.
type Room struct {
	Name       RoomName
	CreatorID  ParticipantID
	Terminated bool
}

func NewRoom(name string) (*Room, error) {
	if len(name) == 0 {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return nil, ErrRoomNameTooLong
	}
	return &Room{Name: RoomName(name)}, nil
}
