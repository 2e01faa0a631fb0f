package ws

import (
	"github.com/teki9ll/music-streaming/internal/session"
)

// Broadcaster pushes registry state to connected clients: per-room updates to
// current members, summaries to everyone. Delivery is best-effort; departed
// connections simply miss the event.
type Broadcaster struct {
	hub      *Hub
	registry *session.Registry
}

func NewBroadcaster(hub *Hub, registry *session.Registry) *Broadcaster {
	return &Broadcaster{hub: hub, registry: registry}
}

// ToConn sends one event to one connection.
func (b *Broadcaster) ToConn(connID, event string, body any) {
	b.hub.SendTo(connID, outEvent{Event: event, Body: body})
}

// ToRoom sends one event to every current member of a room.
func (b *Broadcaster) ToRoom(room, event string, body any) {
	b.hub.SendMany(b.registry.Members(room), outEvent{Event: event, Body: body})
}

// RoomUpdate pushes the post-control playback state to the room.
func (b *Broadcaster) RoomUpdate(res session.ControlResult, actingUsername string) {
	b.ToRoom(res.Room, EvUpdate, UpdateBody{
		Room:      res.Room,
		Song:      res.Song,
		State:     res.State,
		Time:      res.Position,
		Timestamp: res.UpdatedAt,
		Username:  actingUsername,
	})
}

// RoomsSummary pushes the public room list to every connected client. Called
// after any membership or lock-state change.
func (b *Broadcaster) RoomsSummary() {
	b.hub.SendAll(outEvent{
		Event: EvRoomsUpdate,
		Body:  RoomsUpdateBody{Rooms: b.registry.ListActiveRoomSummaries()},
	})
}

// ToConnRoomsSummary sends the current room list to a single connection,
// used as the greeting snapshot.
func (b *Broadcaster) ToConnRoomsSummary(connID string) {
	b.ToConn(connID, EvRoomsUpdate, RoomsUpdateBody{Rooms: b.registry.ListActiveRoomSummaries()})
}

// Departure pushes the membership events a leave produced: user_left, the new
// member count and, when the host moved on, host_changed.
func (b *Broadcaster) Departure(res session.LeaveResult, username string) {
	if res.Deleted {
		return
	}
	b.ToRoom(res.Room, EvUserLeft, UserEventBody{Room: res.Room, Username: username})
	b.ToRoom(res.Room, EvUserCountUpdate, UserCountBody{Room: res.Room, UserCount: res.MemberCount})
	if res.HostChanged {
		b.ToRoom(res.Room, EvHostChanged, HostChangedBody{Room: res.Room, Host: res.NewHostName})
	}
}
