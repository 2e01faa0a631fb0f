package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teki9ll/music-streaming/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be < pongWait
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WsServer struct {
	hub      *Hub
	tracker  *Tracker
	registry *session.Registry
	bcast    *Broadcaster
	router   *Router
}

func NewWsServer(hub *Hub, tracker *Tracker, registry *session.Registry) *WsServer {
	srv := &WsServer{
		hub:      hub,
		tracker:  tracker,
		registry: registry,
		bcast:    NewBroadcaster(hub, registry),
		router:   NewRouter(),
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	conn := &clientConn{rawConn: rawConn}
	s.tracker.Add(connID)
	s.hub.Add(connID, conn)
	zap.L().Info("client connected", zap.String("connId", connID))

	// Initial snapshot of the public room list.
	s.bcast.ToConnRoomsSummary(connID)

	go s.reader(connID, conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Event handlers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 room lifecycle -------------------------------------------------------
	Register(s.router, EvCreateRoom, func(cc *ConnContext, req JoinRoomBody) (*Reply, error) {
		room := clampRunes(req.Room, maxRoomLen)
		s.tracker.SetUsername(cc.ConnID, req.Username)

		view, err := s.registry.CreateRoom(room, cc.ConnID, clampRunes(req.Password, maxPasswordLen))
		if err != nil {
			return nil, err
		}
		s.bcast.RoomsSummary()
		return &Reply{Event: EvRoomCreated, Body: view}, nil
	})

	Register(s.router, EvJoinRoom, func(cc *ConnContext, req JoinRoomBody) (*Reply, error) {
		room := clampRunes(req.Room, maxRoomLen)
		username := s.tracker.SetUsername(cc.ConnID, req.Username)

		view, err := s.registry.JoinRoom(room, cc.ConnID, clampRunes(req.Password, maxPasswordLen))
		if err != nil {
			return nil, err
		}
		s.bcast.ToRoom(room, EvUserJoined, UserEventBody{Room: room, Username: username})
		s.bcast.ToRoom(room, EvUserCountUpdate, UserCountBody{Room: room, UserCount: len(view.Users)})
		s.bcast.RoomsSummary()
		return &Reply{Event: EvRoomState, Body: view}, nil
	})

	Register(s.router, EvLeaveRoom, func(cc *ConnContext, req LeaveRoomBody) (*Reply, error) {
		room := clampRunes(req.Room, maxRoomLen)
		username := s.tracker.Username(cc.ConnID)

		res := s.registry.LeaveRoom(room, cc.ConnID)
		if res.Left {
			s.bcast.Departure(res, username)
			s.bcast.RoomsSummary()
		}
		return &Reply{Event: EvInfo, Body: InfoBody{Message: "left " + room}}, nil
	})

	// 🔹 playback control -----------------------------------------------------
	Register(s.router, EvControl, func(cc *ConnContext, req ControlBody) (*Reply, error) {
		res, err := s.registry.ApplyControl(
			clampRunes(req.Room, maxRoomLen),
			cc.ConnID, req.Action, req.Song, float64(req.Time),
		)
		if err != nil {
			return nil, err
		}
		s.bcast.RoomUpdate(res, s.tracker.Username(cc.ConnID))
		return nil, nil
	})

	Register(s.router, EvSyncRequest, func(cc *ConnContext, req SyncRequestBody) (*Reply, error) {
		view, err := s.registry.RoomState(clampRunes(req.Room, maxRoomLen), cc.ConnID)
		if err != nil {
			return nil, err
		}
		return &Reply{Event: EvSyncResponse, Body: view}, nil
	})

	// 🔹 host transfer handshake ----------------------------------------------
	Register(s.router, EvRequestHost, func(cc *ConnContext, req RequestHostBody) (*Reply, error) {
		room := clampRunes(req.Room, maxRoomLen)

		tr, err := s.registry.RequestHost(room, cc.ConnID)
		if err != nil {
			return nil, err
		}
		if tr.Granted {
			s.bcast.ToRoom(room, EvHostChanged, HostChangedBody{Room: room, Host: tr.HostName})
			s.bcast.RoomsSummary()
			return &Reply{Event: EvHostGranted, Body: HostGrantedBody{Room: room}}, nil
		}
		s.bcast.ToConn(tr.CurrentHostID, EvHostTransferRequest, HostTransferRequestBody{
			Room:        room,
			RequesterID: cc.ConnID,
			Requester:   s.tracker.Username(cc.ConnID),
		})
		return &Reply{Event: EvInfo, Body: InfoBody{Message: "host transfer requested"}}, nil
	})

	Register(s.router, EvAcceptTransfer, func(cc *ConnContext, req TransferDecisionBody) (*Reply, error) {
		room := clampRunes(req.Room, maxRoomLen)

		tr, err := s.registry.AcceptTransfer(room, cc.ConnID, req.RequesterID)
		if err != nil {
			return nil, err
		}
		s.bcast.ToRoom(room, EvHostChanged, HostChangedBody{Room: room, Host: tr.HostName})
		s.bcast.ToConn(tr.HostID, EvHostGranted, HostGrantedBody{Room: room})
		s.bcast.RoomsSummary()
		return nil, nil
	})

	Register(s.router, EvRejectTransfer, func(cc *ConnContext, req TransferDecisionBody) (*Reply, error) {
		room := clampRunes(req.Room, maxRoomLen)

		if err := s.registry.RejectTransfer(room, cc.ConnID, req.RequesterID); err != nil {
			return nil, err
		}
		s.bcast.ToConn(req.RequesterID, EvHostTransferReject, HostTransferRejectBody{Room: room})
		return nil, nil
	})
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) reader(connID string, conn *clientConn) {
	defer s.cleanup(connID, conn)

	conn.rawConn.SetReadLimit(maxMessageSize)
	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: connID, Server: s}

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		reply, err := s.router.dispatch(cc, env)

		// ---- failure -> error event to the issuer only ---------------------
		if err != nil {
			code := codeFor(err)
			if code == session.CodeInternal {
				zap.L().Error("ws.dispatch", zap.String("event", env.Event), zap.Error(err))
				err = errors.New("internal error")
			}
			_ = conn.send(outEvent{
				Event: errorEventFor(env.Event),
				Body:  ErrorBody{Code: code, Error: err.Error()},
			})
			continue
		}

		// ---- success -> optional direct reply ------------------------------
		if reply != nil {
			_ = conn.send(outEvent{Event: reply.Event, Body: reply.Body})
		}
	}
}

// cleanup treats the end of a connection's event stream as an implicit leave
// everywhere. Safe to run after a partial cleanup has already happened.
func (s *WsServer) cleanup(connID string, conn peer) {
	conn.close()
	s.hub.Remove(connID)

	username := s.tracker.Username(connID)
	results := s.registry.RemoveConnectionEverywhere(connID)
	s.tracker.Remove(connID)

	for _, res := range results {
		s.bcast.Departure(res, username)
	}
	if len(results) > 0 {
		s.bcast.RoomsSummary()
	}
	zap.L().Info("client disconnected", zap.String("connId", connID))
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.close()
			return
		}
	}
}

// errorEventFor routes failures to the event the client listens on.
func errorEventFor(event string) string {
	switch event {
	case EvJoinRoom:
		return EvJoinError
	case EvCreateRoom:
		return EvCreateError
	default:
		return EvError
	}
}

func codeFor(err error) string {
	if errors.Is(err, errUnknownEvent) || errors.Is(err, errMalformedBody) {
		return session.CodeValidation
	}
	return session.Code(err)
}
