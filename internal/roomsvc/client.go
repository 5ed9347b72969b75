// Package roomsvc talks to the credential/room-management service: the
// thin REST collaborator that mints transport credentials, answers
// room-existence checks and performs privileged room teardown.
package roomsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrForbidden = errors.New("requester is not the room creator")
	ErrNotFound  = errors.New("room not found")
)

// Credential is what the service hands back for a join: a signed token
// plus the transport URL to present it to.
type Credential struct {
	Token        string `json:"token"`
	TransportURL string `json:"url"`
}

type Client interface {
	IssueCredential(ctx context.Context, roomName, participantName string, wantsCreator bool) (Credential, error)
	RoomExists(ctx context.Context, roomName string) (bool, error)
	SetRoomMetadata(ctx context.Context, roomName string, metadata json.RawMessage) error
	EndRoom(ctx context.Context, roomName, requesterID string) error
}

type httpClient struct {
	base string
	hc   *http.Client
}

func NewClient(baseURL string) Client {
	return &httpClient{
		base: baseURL,
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return resp.StatusCode, errors.New(e.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *httpClient) IssueCredential(ctx context.Context, roomName, participantName string, wantsCreator bool) (Credential, error) {
	req := struct {
		RoomName        string `json:"roomName"`
		ParticipantName string `json:"participantName"`
		IsRoomCreator   bool   `json:"isRoomCreator"`
	}{roomName, participantName, wantsCreator}

	var cred Credential
	if _, err := c.post(ctx, "/get-token", req, &cred); err != nil {
		return Credential{}, fmt.Errorf("issue credential: %w", err)
	}
	if cred.Token == "" || cred.TransportURL == "" {
		return Credential{}, errors.New("issue credential: incomplete response")
	}
	return cred, nil
}

func (c *httpClient) RoomExists(ctx context.Context, roomName string) (bool, error) {
	req := struct {
		RoomName string `json:"roomName"`
	}{roomName}

	var resp struct {
		Exists bool `json:"exists"`
	}
	if _, err := c.post(ctx, "/check-room", req, &resp); err != nil {
		return false, fmt.Errorf("check room: %w", err)
	}
	return resp.Exists, nil
}

func (c *httpClient) SetRoomMetadata(ctx context.Context, roomName string, metadata json.RawMessage) error {
	req := struct {
		RoomName string          `json:"roomName"`
		Metadata json.RawMessage `json:"metadata"`
	}{roomName, metadata}

	if _, err := c.post(ctx, "/set-room-metadata", req, nil); err != nil {
		// Losing room metadata is survivable; the caller decides whether
		// to treat it as fatal.
		log.Warn().Err(err).Str("module", "roomsvc").Str("room", roomName).Msg("set room metadata failed")
		return fmt.Errorf("set room metadata: %w", err)
	}
	return nil
}

func (c *httpClient) EndRoom(ctx context.Context, roomName, requesterID string) error {
	req := struct {
		RoomName      string `json:"roomName"`
		ParticipantID string `json:"participantId"`
	}{roomName, requesterID}

	code, err := c.post(ctx, "/end-room", req, nil)
	switch {
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("end room: %w", err)
	}
	return nil
}
