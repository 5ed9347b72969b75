package roomsvc

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// roomRecord is the service-side truth about one live room. The
// creator recorded here, not any client-side flag, is what authorizes
// privileged operations.
type roomRecord struct {
	Creator   string
	Metadata  json.RawMessage
	CreatedAt time.Time
}

// Server is the in-memory room-management service: it mints transport
// tokens, answers existence checks and performs creator-gated teardown.
type Server struct {
	mu     sync.Mutex
	rooms  map[string]*roomRecord
	minter *tokenMinter

	transportURL string
}

func NewServer(secret []byte, transportURL string, tokenTTL time.Duration) *Server {
	return &Server{
		rooms:        make(map[string]*roomRecord),
		minter:       newTokenMinter(secret, tokenTTL),
		transportURL: transportURL,
	}
}

func (s *Server) SetupRouter(mode string) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.POST("/get-token", s.handleGetToken)
	r.POST("/check-room", s.handleCheckRoom)
	r.POST("/set-room-metadata", s.handleSetRoomMetadata)
	r.POST("/end-room", s.handleEndRoom)

	log.Info().Str("module", "roomsvc").Str("transport", s.transportURL).Msg("router setup")
	return r
}

func (s *Server) handleGetToken(c *gin.Context) {
	var req struct {
		RoomName        string `json:"roomName" binding:"required,max=64"`
		ParticipantName string `json:"participantName" binding:"required,max=36"`
		IsRoomCreator   bool   `json:"isRoomCreator"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid room/participant name"})
		return
	}

	s.mu.Lock()
	rec, ok := s.rooms[req.RoomName]
	if !ok {
		// First token for this name brings the room into existence.
		// The creator claim only sticks at creation time; a later
		// joiner asserting it is ignored.
		rec = &roomRecord{CreatedAt: time.Now()}
		if req.IsRoomCreator {
			rec.Creator = req.ParticipantName
		}
		s.rooms[req.RoomName] = rec
	}
	isCreator := rec.Creator != "" && rec.Creator == req.ParticipantName
	s.mu.Unlock()

	token, err := s.minter.mint(req.RoomName, req.ParticipantName, isCreator)
	if err != nil {
		log.Error().Err(err).Str("module", "roomsvc").Str("room", req.RoomName).Msg("token mint failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mint token"})
		return
	}

	log.Info().Str("module", "roomsvc").Str("room", req.RoomName).Str("participant", req.ParticipantName).Bool("creator", req.IsRoomCreator).Msg("token issued")
	c.JSON(http.StatusOK, Credential{Token: token, TransportURL: s.transportURL})
}

func (s *Server) handleCheckRoom(c *gin.Context) {
	var req struct {
		RoomName string `json:"roomName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing room name"})
		return
	}

	s.mu.Lock()
	_, exists := s.rooms[req.RoomName]
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (s *Server) handleSetRoomMetadata(c *gin.Context) {
	var req struct {
		RoomName string          `json:"roomName" binding:"required"`
		Metadata json.RawMessage `json:"metadata" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing room name or metadata"})
		return
	}

	s.mu.Lock()
	rec, ok := s.rooms[req.RoomName]
	if ok {
		rec.Metadata = req.Metadata
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleEndRoom(c *gin.Context) {
	var req struct {
		RoomName      string `json:"roomName" binding:"required"`
		ParticipantID string `json:"participantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing room name or participant id"})
		return
	}

	s.mu.Lock()
	rec, ok := s.rooms[req.RoomName]
	allowed := ok && rec.Creator == req.ParticipantID
	if allowed {
		delete(s.rooms, req.RoomName)
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if !allowed {
		log.Warn().Str("module", "roomsvc").Str("room", req.RoomName).Str("requester", req.ParticipantID).Msg("end-room refused, not the creator")
		c.JSON(http.StatusForbidden, gin.H{"error": "only the room creator can end the meeting"})
		return
	}

	log.Info().Str("module", "roomsvc").Str("room", req.RoomName).Msg("room ended by creator")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
