package domain

import "errors"

var (
	ErrNameEmpty   = errors.New("participant name empty")
	ErrNameTooLong = errors.New("participant name too long")
)

// ParticipantID is the transport-level identity, stable within a room.
type ParticipantID string

type ParticipantState int

const (
	ParticipantJoining ParticipantState = iota
	ParticipantActive
	ParticipantLeft
)

func (s ParticipantState) String() string {
	switch s {
	case ParticipantJoining:
		return "joining"
	case ParticipantActive:
		return "active"
	case ParticipantLeft:
		return "left"
	}
	return "unknown"
}

// Participant is one member of the room as currently reconciled.
// Publications are keyed by media kind; at most one per kind.
type Participant struct {
	ID      ParticipantID
	Name    string
	IsLocal bool
	State   ParticipantState

	Publications map[MediaKind]*TrackPublication

	// AudioMuted is the reconciled mute indicator. LastMuteUpdate is the
	// timestamp (unix ms) of the newest applied metadata mute fact; facts
	// older than it are discarded.
	AudioMuted     bool
	LastMuteUpdate int64
}

func NewParticipant(id ParticipantID, name string, isLocal bool) (*Participant, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxParticipantLen {
		return nil, ErrNameTooLong
	}
	return &Participant{
		ID:           id,
		Name:         name,
		IsLocal:      isLocal,
		State:        ParticipantJoining,
		Publications: make(map[MediaKind]*TrackPublication),
		// Until an audio publication is seen we render the participant
		// as muted, the conservative default.
		AudioMuted: true,
	}, nil
}

func (p *Participant) Publication(kind MediaKind) (*TrackPublication, bool) {
	pub, ok := p.Publications[kind]
	return pub, ok
}
