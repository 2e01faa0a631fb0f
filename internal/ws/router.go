package ws

import (
	"encoding/json"
	"errors"
	"sync"
)

var (
	errUnknownEvent  = errors.New("unknown event")
	errMalformedBody = errors.New("malformed event body")
)

// ConnContext carries the identity of the connection an event arrived on.
type ConnContext struct {
	ConnID string
	Server *WsServer
}

// Reply is the direct response sent back to the issuing connection; broadcasts
// go through the Broadcaster instead.
type Reply struct {
	Event string
	Body  any
}

// internal (untyped) handler signature.
type rawHandler func(c *ConnContext, body json.RawMessage) (*Reply, error)

// Router keeps a map[event]handler, à-la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewRouter() *Router { return &Router{handlers: make(map[string]rawHandler)} }

// Register binds an event to a strongly-typed handler.
func Register[Req any](
	r *Router,
	event string,
	h func(c *ConnContext, req Req) (*Reply, error),
) {
	if event == "" {
		panic("ws router: empty event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[event] = func(c *ConnContext, body json.RawMessage) (*Reply, error) {
		var req Req
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, errMalformedBody
			}
		}
		return h(c, req)
	}
}

// dispatch is called by the server's reader loop.
func (r *Router) dispatch(c *ConnContext, env Envelope) (*Reply, error) {
	r.mu.RLock()
	h, ok := r.handlers[env.Event]
	r.mu.RUnlock()
	if !ok {
		return nil, errUnknownEvent
	}
	return h(c, env.Body)
}
