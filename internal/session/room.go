package session

import "time"

// State is a room's transport state.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Control actions a host may issue.
const (
	ActionLoad  = "load"
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionSeek  = "seek"
	ActionStop  = "stop"
)

// room is the registry-private session entity. Members are kept in insertion
// order so host reassignment is reproducible; memberSet gives O(1) membership
// tests.
type room struct {
	name       string
	song       string
	state      State
	position   float64
	lastUpdate time.Time

	members   []string
	memberSet map[string]struct{}
	host      string

	// one outstanding host-transfer request, latest wins
	pendingRequester string

	password string
}

func newRoom(name, password string) *room {
	return &room{
		name:       name,
		state:      StateStopped,
		memberSet:  map[string]struct{}{},
		password:   password,
		lastUpdate: time.Now(),
	}
}

func (r *room) locked() bool { return r.password != "" }

func (r *room) hasMember(connID string) bool {
	_, ok := r.memberSet[connID]
	return ok
}

func (r *room) addMember(connID string) {
	if r.hasMember(connID) {
		return
	}
	r.members = append(r.members, connID)
	r.memberSet[connID] = struct{}{}
}

func (r *room) removeMember(connID string) {
	if !r.hasMember(connID) {
		return
	}
	delete(r.memberSet, connID)
	for i, id := range r.members {
		if id == connID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
}

// RoomView is the per-member projection sent on join, create and sync. The
// password never leaves the registry, only Locked does.
type RoomView struct {
	Room      string    `json:"room"`
	Song      string    `json:"song,omitempty"`
	State     State     `json:"state"`
	Position  float64   `json:"time"`
	Users     []string  `json:"users"`
	Host      string    `json:"host,omitempty"`
	IsHost    bool      `json:"isHost"`
	Locked    bool      `json:"locked"`
	UpdatedAt time.Time `json:"lastUpdate"`
}

// RoomSummary is the public projection used for room listings.
type RoomSummary struct {
	Room      string    `json:"room"`
	UserCount int       `json:"userCount"`
	Song      string    `json:"song,omitempty"`
	State     State     `json:"state"`
	Host      string    `json:"host,omitempty"`
	Locked    bool      `json:"locked"`
	UpdatedAt time.Time `json:"lastUpdate"`
}

// LeaveResult reports what a departure changed.
type LeaveResult struct {
	Room        string
	Left        bool
	Deleted     bool
	MemberCount int
	HostChanged bool
	NewHostID   string
	NewHostName string
}

// ControlResult is the post-control playback state for broadcast.
type ControlResult struct {
	Room      string    `json:"room"`
	Song      string    `json:"song,omitempty"`
	State     State     `json:"state"`
	Position  float64   `json:"time"`
	UpdatedAt time.Time `json:"timestamp"`
}

// TransferResult reports the outcome of a host-transfer step.
type TransferResult struct {
	Room string
	// Granted means the host changed right away (hostless room or an
	// accepted request).
	Granted  bool
	HostID   string
	HostName string
	// Pending means the request was forwarded to the current host.
	Pending       bool
	CurrentHostID string
}
