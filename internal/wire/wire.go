// Package wire encodes and decodes the JSON frames the clients exchange
// over the two broadcast side-channels. Frames are UTF-8 JSON with a
// required "type" discriminator and no other framing.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TypeChat        = "chat"
	TypeMuteStatus  = "muteStatus"
	TypeScreenShare = "screenShare"
)

var (
	ErrUnknownType = errors.New("unknown payload type")
	ErrMissingType = errors.New("missing payload type")
)

// Payload is implemented by every decoded frame variant.
type Payload interface {
	payloadType() string
}

// Chat rides the reliable broadcast.
type Chat struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// MuteStatus is the metadata-slot mute fact. Timestamp is unix ms and
// drives last-write-wins reconciliation, not arrival order.
type MuteStatus struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Muted     bool   `json:"muted"`
	Timestamp int64  `json:"timestamp"`
}

// ScreenShare is a claim (Sharing=true) or release (Sharing=false) of
// the single screen-share slot.
type ScreenShare struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Sharing   bool   `json:"sharing"`
	Timestamp int64  `json:"timestamp"`
}

func (Chat) payloadType() string        { return TypeChat }
func (MuteStatus) payloadType() string  { return TypeMuteStatus }
func (ScreenShare) payloadType() string { return TypeScreenShare }

func NewChat(sender, text string, ts int64) Chat {
	return Chat{Type: TypeChat, Sender: sender, Text: text, Timestamp: ts}
}

func NewMuteStatus(sender string, muted bool, ts int64) MuteStatus {
	return MuteStatus{Type: TypeMuteStatus, Sender: sender, Muted: muted, Timestamp: ts}
}

func NewScreenShare(sender string, sharing bool, ts int64) ScreenShare {
	return ScreenShare{Type: TypeScreenShare, Sender: sender, Sharing: sharing, Timestamp: ts}
}

func Encode(p Payload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.payloadType(), err)
	}
	return b, nil
}

// Decode probes the type discriminator first, then unmarshals the full
// variant. Unknown types are an error the caller is expected to skip; a
// peer running a newer build may broadcast types we do not know.
func Decode(data []byte) (Payload, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case TypeChat:
		var p Chat
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		return p, nil
	case TypeMuteStatus:
		var p MuteStatus
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode muteStatus: %w", err)
		}
		return p, nil
	case TypeScreenShare:
		var p ScreenShare
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode screenShare: %w", err)
		}
		return p, nil
	case "":
		return nil, ErrMissingType
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}
