package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()

	var got LeaveRoomBody
	Register(r, "leave_room", func(c *ConnContext, req LeaveRoomBody) (*Reply, error) {
		got = req
		return &Reply{Event: EvInfo, Body: InfoBody{Message: "ok"}}, nil
	})

	cc := &ConnContext{ConnID: "c1"}
	reply, err := r.dispatch(cc, Envelope{
		Event: "leave_room",
		Body:  json.RawMessage(`{"room":"party"}`),
	})
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, EvInfo, reply.Event)
	assert.Equal(t, "party", got.Room)
}

func TestRouterDispatchUnknownEvent(t *testing.T) {
	r := NewRouter()

	_, err := r.dispatch(&ConnContext{}, Envelope{Event: "self_destruct"})
	assert.ErrorIs(t, err, errUnknownEvent)
}

func TestRouterDispatchMalformedBody(t *testing.T) {
	r := NewRouter()
	Register(r, "leave_room", func(c *ConnContext, req LeaveRoomBody) (*Reply, error) {
		t.Fatal("handler must not run on malformed body")
		return nil, nil
	})

	_, err := r.dispatch(&ConnContext{}, Envelope{
		Event: "leave_room",
		Body:  json.RawMessage(`{"room":`),
	})
	assert.ErrorIs(t, err, errMalformedBody)
}

func TestRouterDispatchEmptyBody(t *testing.T) {
	r := NewRouter()
	Register(r, "sync_request", func(c *ConnContext, req SyncRequestBody) (*Reply, error) {
		assert.Empty(t, req.Room)
		return nil, errors.New("boom")
	})

	reply, err := r.dispatch(&ConnContext{}, Envelope{Event: "sync_request"})
	assert.Nil(t, reply)
	assert.EqualError(t, err, "boom")
}

func TestRouterRegisterEmptyEventPanics(t *testing.T) {
	r := NewRouter()
	assert.Panics(t, func() {
		Register(r, "", func(c *ConnContext, req struct{}) (*Reply, error) { return nil, nil })
	})
}
