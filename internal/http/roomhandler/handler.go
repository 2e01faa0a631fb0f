package roomhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teki9ll/music-streaming/internal/session"
)

// RoomLister is the registry surface the polling API needs.
type RoomLister interface {
	ListActiveRoomSummaries() []session.RoomSummary
	Stats() (rooms, members int)
}

// SongLister is the catalog surface the polling API needs.
type SongLister interface {
	Songs() []string
}

// Handler serves the HTTP mirror of the event-based summaries, for clients
// that only poll.
type Handler struct {
	rooms RoomLister
	songs SongLister
}

func New(rooms RoomLister, songs SongLister) *Handler {
	return &Handler{rooms: rooms, songs: songs}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/songs", h.listSongs)
	r.GET("/rooms", h.listRooms)
	r.GET("/health", h.health)
}

func (h *Handler) listSongs(c *gin.Context) {
	c.JSON(http.StatusOK, h.songs.Songs())
}

func (h *Handler) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.rooms.ListActiveRoomSummaries())
}

func (h *Handler) health(c *gin.Context) {
	rooms, members := h.rooms.Stats()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Rooms:     rooms,
		Listeners: members,
	})
}
