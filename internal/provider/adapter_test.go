package provider

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/event"
)

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		kind, source string
		want         domain.MediaKind
		ok           bool
	}{
		{"audio", "", domain.KindAudio, true},
		{"audio", "microphone", domain.KindAudio, true},
		{"video", "", domain.KindVideo, true},
		{"video", "camera", domain.KindVideo, true},
		{"video", "screenShare", domain.KindScreenVideo, true},
		{"video", "screen_share", domain.KindScreenVideo, true},
		{"Video", "SCREEN", domain.KindScreenVideo, true},
		{"data", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeKind(tt.kind, tt.source)
		require.Equal(t, tt.ok, ok, "kind=%q source=%q", tt.kind, tt.source)
		if ok {
			require.Equal(t, tt.want, got, "kind=%q source=%q", tt.kind, tt.source)
		}
	}
}

func TestNormalizeData(t *testing.T) {
	b, ok := NormalizeData([]byte(`{"type":"chat"}`))
	require.True(t, ok)
	require.JSONEq(t, `{"type":"chat"}`, string(b))

	b, ok = NormalizeData(`{"type":"chat"}`)
	require.True(t, ok)
	require.JSONEq(t, `{"type":"chat"}`, string(b))

	_, ok = NormalizeData(nil)
	require.False(t, ok)
	_, ok = NormalizeData(42)
	require.False(t, ok)
	_, ok = NormalizeData("")
	require.False(t, ok)
}

func TestNormalizeReason(t *testing.T) {
	require.Equal(t, event.ReasonRoomClosed, NormalizeReason("ROOM_DELETED"))
	require.Equal(t, event.ReasonRoomClosed, NormalizeReason("room_closed"))
	require.Equal(t, event.ReasonLeft, NormalizeReason("client_initiated"))
	require.Equal(t, event.ReasonUnknown, NormalizeReason(""))
	require.Equal(t, event.ReasonTransportFailure, NormalizeReason("ice failure"))
}
