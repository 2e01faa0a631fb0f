package ws

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/teki9ll/music-streaming/internal/session"
)

// Envelope wraps every WS frame, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// outEvent is the server-side counterpart with a concrete body.
type outEvent struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// Client -> server events.
const (
	EvJoinRoom       = "join_room"
	EvCreateRoom     = "create_room"
	EvLeaveRoom      = "leave_room"
	EvControl        = "control"
	EvSyncRequest    = "sync_request"
	EvRequestHost    = "request_host"
	EvAcceptTransfer = "accept_host_transfer"
	EvRejectTransfer = "reject_host_transfer"
)

// Server -> client events.
const (
	EvRoomState           = "room_state"
	EvRoomCreated         = "room_created"
	EvUserJoined          = "user_joined"
	EvUserLeft            = "user_left"
	EvUserCountUpdate     = "user_count_update"
	EvRoomsUpdate         = "rooms_update"
	EvUpdate              = "update"
	EvSyncResponse        = "sync_response"
	EvHostChanged         = "host_changed"
	EvHostGranted         = "host_granted"
	EvHostTransferRequest = "host_transfer_request"
	EvHostTransferReject  = "host_transfer_rejected"
	EvJoinError           = "join_error"
	EvCreateError         = "create_error"
	EvError               = "error"
	EvInfo                = "info"
)

// Field caps, applied by truncation rather than rejection.
const (
	maxUsernameLen = 50
	maxRoomLen     = 50
	maxPasswordLen = 100
)

// ──────────────────────────── Request DTOs ──────────────────────────────────

type JoinRoomBody struct {
	Username string `json:"username"`
	Room     string `json:"room"`
	Password string `json:"password,omitempty"`
}

type LeaveRoomBody struct {
	Room string `json:"room"`
}

type ControlBody struct {
	Room   string  `json:"room"`
	Action string  `json:"action"`
	Song   string  `json:"song,omitempty"`
	Time   Seconds `json:"time,omitempty"`
}

type SyncRequestBody struct {
	Room string `json:"room"`
}

type RequestHostBody struct {
	Room string `json:"room"`
}

type TransferDecisionBody struct {
	Room        string `json:"room"`
	RequesterID string `json:"requesterId"`
}

// ──────────────────────────── Response DTOs ─────────────────────────────────

// ErrorBody is returned for failures.
type ErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type InfoBody struct {
	Message string `json:"message"`
}

type UserEventBody struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type UserCountBody struct {
	Room      string `json:"room"`
	UserCount int    `json:"userCount"`
}

type HostChangedBody struct {
	Room string `json:"room"`
	Host string `json:"host"`
}

type HostGrantedBody struct {
	Room string `json:"room"`
}

type HostTransferRequestBody struct {
	Room        string `json:"room"`
	RequesterID string `json:"requesterId"`
	Requester   string `json:"requester"`
}

type HostTransferRejectBody struct {
	Room string `json:"room"`
}

type UpdateBody struct {
	Room      string        `json:"room"`
	Song      string        `json:"song,omitempty"`
	State     session.State `json:"state"`
	Time      float64       `json:"time"`
	Timestamp time.Time     `json:"timestamp"`
	Username  string        `json:"username,omitempty"`
}

type RoomsUpdateBody struct {
	Rooms []session.RoomSummary `json:"rooms"`
}

// ──────────────────────────────── helpers ───────────────────────────────────

// Seconds decodes a playback position from a JSON number or numeric string.
// Anything malformed or negative decodes as 0 so a bad time never blocks an
// otherwise valid command.
type Seconds float64

func (s *Seconds) UnmarshalJSON(b []byte) error {
	*s = 0

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		if f > 0 {
			*s = Seconds(f)
		}
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		if f, err := strconv.ParseFloat(str, 64); err == nil && f > 0 {
			*s = Seconds(f)
		}
	}
	return nil
}

// clampRunes truncates s to at most n runes.
func clampRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
