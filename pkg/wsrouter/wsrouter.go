package wsrouter

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/maps"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

// ErrorFunc is called when a handler returns an error or an inbound
// message names an unknown type. It must not write to the connection.
type ErrorFunc func(ctx context.Context, messageType string, err error)

type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorFunc
}

func New(onError ErrorFunc) *WSRouter {
	return &WSRouter{
		routes:  make(map[string]HandlerFunc),
		onError: onError,
	}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// Routes returns the registered message types in lexical order.
func (r *WSRouter) Routes() []string {
	types := maps.Keys(r.routes)
	sort.Strings(types)
	return types
}

// ServeConn reads messages from conn until the read fails, dispatching
// each one to its registered handler. Messages of one connection are
// handled strictly in order.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			if r.onError != nil {
				r.onError(ctx, msg.Type, ErrUnknownMessageType)
			}
			continue
		}

		if err := handler(ctx, conn, msg.Payload); err != nil {
			if r.onError != nil {
				r.onError(ctx, msg.Type, err)
			}
		}
	}
}
