package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/ugaemi/jetlagged-server/internal/session"
	"github.com/ugaemi/jetlagged-server/internal/ws"
)

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	sessions  *SessionHandler
	locations *LocationHandler
}

// NewRouter creates a new message router.
func NewRouter(sm *session.Manager, searcher Searcher) *Router {
	return &Router{
		sessions:  NewSessionHandler(sm),
		locations: NewLocationHandler(searcher),
	}
}

// HandleConnect gives a new client its own game session.
func (r *Router) HandleConnect(client *ws.Client) {
	r.sessions.HandleConnect(client)
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	switch msg.Type {
	// Game commands
	case ws.TypeSelectHideout:
		r.sessions.HandleSelectHideout(cm.Client, msg)
	case ws.TypeCancelHide:
		r.sessions.HandleCancelHide(cm.Client, msg)
	case ws.TypeConfirmHide:
		r.sessions.HandleConfirmHide(cm.Client, msg)
	case ws.TypeAnswer:
		r.sessions.HandleAnswer(cm.Client, msg)
	case ws.TypeReset:
		r.sessions.HandleReset(cm.Client, msg)

	// Location lookup
	case ws.TypeSearchLocations:
		r.locations.HandleSearch(cm.Client, msg)
	case ws.TypePopularLocations:
		r.locations.HandlePopular(cm.Client, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
	}
}

// HandleDisconnect stops the client's session.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.sessions.HandleDisconnect(client)
}
