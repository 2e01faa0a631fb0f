package session

import (
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Catalog is the song list collaborator, used only to validate load/play.
type Catalog interface {
	Songs() []string
}

// UsernameResolver turns a connection identifier into a display name.
type UsernameResolver interface {
	Username(connID string) string
}

// Registry owns every room. All mutations take the single mutex, so compound
// check-then-act sequences (exists? then create) are atomic and no two room
// mutations interleave.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*room
	byConn  map[string]map[string]struct{} // connID -> rooms joined
	catalog Catalog
	names   UsernameResolver
}

func NewRegistry(catalog Catalog, names UsernameResolver) *Registry {
	return &Registry{
		rooms:   map[string]*room{},
		byConn:  map[string]map[string]struct{}{},
		catalog: catalog,
		names:   names,
	}
}

// CreateRoom creates a room with the creator as sole member and host.
func (g *Registry) CreateRoom(name, connID, password string) (RoomView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if name == "" {
		return RoomView{}, ErrEmptyRoomName
	}
	if _, ok := g.rooms[name]; ok {
		return RoomView{}, ErrRoomExists
	}

	r := newRoom(name, password)
	r.addMember(connID)
	r.host = connID
	g.rooms[name] = r
	g.index(connID, name)

	zap.L().Info("room created",
		zap.String("room", name), zap.Bool("locked", r.locked()))
	return g.view(r, connID), nil
}

// JoinRoom adds connID to an existing room. The first joiner of a hostless
// room becomes host.
func (g *Registry) JoinRoom(name, connID, password string) (RoomView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[name]
	if !ok {
		return RoomView{}, ErrRoomNotFound
	}
	if r.locked() && password != r.password {
		return RoomView{}, ErrWrongPassword
	}

	r.addMember(connID)
	if r.host == "" {
		r.host = connID
	}
	g.index(connID, name)
	return g.view(r, connID), nil
}

// LeaveRoom removes connID from a room. A no-op for unknown rooms or
// non-members, so repeated leaves are safe.
func (g *Registry) LeaveRoom(name, connID string) LeaveResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaveLocked(name, connID)
}

// RemoveConnectionEverywhere applies leave semantics to every room the
// connection had joined. Used on disconnect; idempotent.
func (g *Registry) RemoveConnectionEverywhere(connID string) []LeaveResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	joined := make([]string, 0, len(g.byConn[connID]))
	for name := range g.byConn[connID] {
		joined = append(joined, name)
	}
	sort.Strings(joined)

	var results []LeaveResult
	for _, name := range joined {
		if res := g.leaveLocked(name, connID); res.Left {
			results = append(results, res)
		}
	}
	return results
}

// ListActiveRoomSummaries returns public summaries of every non-empty room,
// sorted by name. Passwords and member identifiers never appear.
func (g *Registry) ListActiveRoomSummaries() []RoomSummary {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]RoomSummary, 0, len(g.rooms))
	for _, r := range g.rooms {
		if len(r.members) == 0 {
			continue
		}
		out = append(out, RoomSummary{
			Room:      r.name,
			UserCount: len(r.members),
			Song:      r.song,
			State:     r.state,
			Host:      g.names.Username(r.host),
			Locked:    r.locked(),
			UpdatedAt: r.lastUpdate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}

// RoomState answers a sync request with the caller's view of the room.
func (g *Registry) RoomState(name, connID string) (RoomView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[name]
	if !ok {
		return RoomView{}, ErrRoomNotFound
	}
	return g.view(r, connID), nil
}

// Members returns a copy of the room's member identifiers in join order.
func (g *Registry) Members(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[name]
	if !ok {
		return nil
	}
	out := make([]string, len(r.members))
	copy(out, r.members)
	return out
}

// Stats reports the number of active rooms and room memberships.
func (g *Registry) Stats() (rooms, members int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rooms = len(g.rooms)
	for _, r := range g.rooms {
		members += len(r.members)
	}
	return rooms, members
}

// ApplyControl validates and applies a host control command. A rejected
// command leaves the room untouched. The supplied position is clamped to a
// finite non-negative value, never rejected.
func (g *Registry) ApplyControl(name, connID, action, song string, position float64) (ControlResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[name]
	if !ok {
		return ControlResult{}, ErrRoomNotFound
	}
	if connID != r.host {
		return ControlResult{}, ErrNotHost
	}
	if position < 0 || math.IsNaN(position) || math.IsInf(position, 0) {
		position = 0
	}

	switch action {
	case ActionLoad:
		if !g.knownSong(song) {
			return ControlResult{}, ErrUnknownSong
		}
		r.song = song
		r.state = StateStopped
		r.position = position
	case ActionPlay:
		if song != "" && g.knownSong(song) {
			r.song = song
		}
		r.state = StatePlaying
		r.position = position
	case ActionPause:
		r.state = StatePaused
		r.position = position
	case ActionSeek:
		r.position = position
	case ActionStop:
		r.state = StateStopped
		r.position = 0
	default:
		return ControlResult{}, ErrUnknownAction
	}

	r.lastUpdate = time.Now()
	return ControlResult{
		Room:      r.name,
		Song:      r.song,
		State:     r.state,
		Position:  r.position,
		UpdatedAt: r.lastUpdate,
	}, nil
}

// RequestHost starts (or short-circuits) the transfer handshake. A hostless
// room is granted immediately; otherwise the current host is asked and the
// latest request stays pending until accepted or rejected.
func (g *Registry) RequestHost(name, requesterID string) (TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[name]
	if !ok {
		return TransferResult{}, ErrRoomNotFound
	}
	if !r.hasMember(requesterID) {
		return TransferResult{}, ErrNotMember
	}

	if r.host == "" || r.host == requesterID {
		r.host = requesterID
		r.pendingRequester = ""
		return TransferResult{
			Room:     name,
			Granted:  true,
			HostID:   requesterID,
			HostName: g.names.Username(requesterID),
		}, nil
	}

	r.pendingRequester = requesterID
	return TransferResult{
		Room:          name,
		Pending:       true,
		CurrentHostID: r.host,
	}, nil
}

// AcceptTransfer hands host over to the requester. Only the current host may
// approve, and the requester must still be in the room.
func (g *Registry) AcceptTransfer(name, approverID, requesterID string) (TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[name]
	if !ok {
		return TransferResult{}, ErrRoomNotFound
	}
	if approverID != r.host {
		return TransferResult{}, ErrNotHost
	}
	if !r.hasMember(requesterID) {
		return TransferResult{}, ErrNotMember
	}

	r.host = requesterID
	r.pendingRequester = ""
	zap.L().Info("host transferred",
		zap.String("room", name), zap.String("host", requesterID))
	return TransferResult{
		Room:     name,
		Granted:  true,
		HostID:   requesterID,
		HostName: g.names.Username(requesterID),
	}, nil
}

// RejectTransfer clears the pending request. Only the current host may decide.
func (g *Registry) RejectTransfer(name, approverID, requesterID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[name]
	if !ok {
		return ErrRoomNotFound
	}
	if approverID != r.host {
		return ErrNotHost
	}
	if r.pendingRequester == requesterID {
		r.pendingRequester = ""
	}
	return nil
}

// ---------------------------------------------------------------------------
//  Internals — callers hold g.mu.
// ---------------------------------------------------------------------------

func (g *Registry) leaveLocked(name, connID string) LeaveResult {
	res := LeaveResult{Room: name}

	r, ok := g.rooms[name]
	if !ok || !r.hasMember(connID) {
		return res
	}

	r.removeMember(connID)
	g.unindex(connID, name)
	res.Left = true
	if r.pendingRequester == connID {
		r.pendingRequester = ""
	}

	if len(r.members) == 0 {
		delete(g.rooms, name)
		res.Deleted = true
		zap.L().Info("room removed", zap.String("room", name))
		return res
	}

	res.MemberCount = len(r.members)
	if r.host == connID {
		// earliest remaining joiner takes over
		r.host = r.members[0]
		res.HostChanged = true
		res.NewHostID = r.host
		res.NewHostName = g.names.Username(r.host)
		zap.L().Info("host reassigned",
			zap.String("room", name), zap.String("host", r.host))
	}
	return res
}

func (g *Registry) index(connID, name string) {
	set, ok := g.byConn[connID]
	if !ok {
		set = map[string]struct{}{}
		g.byConn[connID] = set
	}
	set[name] = struct{}{}
}

func (g *Registry) unindex(connID, name string) {
	if set, ok := g.byConn[connID]; ok {
		delete(set, name)
		if len(set) == 0 {
			delete(g.byConn, connID)
		}
	}
}

func (g *Registry) view(r *room, connID string) RoomView {
	users := make([]string, 0, len(r.members))
	for _, id := range r.members {
		users = append(users, g.names.Username(id))
	}
	return RoomView{
		Room:      r.name,
		Song:      r.song,
		State:     r.state,
		Position:  r.position,
		Users:     users,
		Host:      g.names.Username(r.host),
		IsHost:    connID == r.host,
		Locked:    r.locked(),
		UpdatedAt: r.lastUpdate,
	}
}

func (g *Registry) knownSong(song string) bool {
	if song == "" {
		return false
	}
	for _, s := range g.catalog.Songs() {
		if s == song {
			return true
		}
	}
	return false
}
