package session

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// Notice codes the UI can key on. CodeEndedByHost is deliberately its
// own code: the terminator never receives it, everyone else does.
const (
	CodeParticipantJoined = "participant_joined"
	CodeParticipantLeft   = "participant_left"
	CodeAudioOnly         = "audio_only"
	CodeViewOnly          = "view_only"
	CodeShareDenied       = "share_denied"
	CodeChat              = "chat"
	CodeEndedByHost       = "ended_by_host"
	CodeDisconnected      = "disconnected"
)

// Notice is a user-facing notification derived from a state change.
type Notice struct {
	Level NoticeLevel
	Code  string
	Text  string
}
