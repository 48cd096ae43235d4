package handler

import (
	"log/slog"
	"strings"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
	"github.com/ugaemi/jetlagged-server/internal/session"
	"github.com/ugaemi/jetlagged-server/internal/ws"
)

// SessionHandler handles the hider's game commands.
type SessionHandler struct {
	sm *session.Manager
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sm *session.Manager) *SessionHandler {
	return &SessionHandler{sm: sm}
}

// HandleConnect creates a session for the client.
func (h *SessionHandler) HandleConnect(client *ws.Client) {
	s := h.sm.CreateSession(client)
	client.SessionID = s.ID
	slog.Info("hider connected", "client", client.ID, "session", s.ID)
}

// HandleDisconnect tears down the client's session.
func (h *SessionHandler) HandleDisconnect(client *ws.Client) {
	if client.SessionID == "" {
		return
	}
	h.sm.RemoveSession(client.SessionID)
}

type placeRequest struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Kind  string  `json:"kind"`
}

type selectHideoutRequest struct {
	Hideout placeRequest `json:"hideout"`
	City    struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	} `json:"city"`
}

// HandleSelectHideout starts a new game around the chosen hideout.
func (h *SessionHandler) HandleSelectHideout(client *ws.Client, msg ws.Message) {
	var req selectHideoutRequest
	if err := msg.Decode(&req); err != nil || strings.TrimSpace(req.Hideout.Label) == "" {
		client.SendMessage(ws.NewErrorMessage("hideout label and coordinates are required"))
		return
	}

	s := h.session(client)
	if s == nil {
		return
	}

	hideout := game.NewAddress(req.Hideout.Label, geo.Coordinate{Lat: req.Hideout.Lat, Lon: req.Hideout.Lon}, game.ParseKind(req.Hideout.Kind), 1)
	city := game.City{Name: req.City.Name, Coordinate: geo.Coordinate{Lat: req.City.Lat, Lon: req.City.Lon}}
	if err := s.SelectHideout(city, hideout); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}
	slog.Info("hideout selected", "session", s.ID, "hideout", hideout.Label)
}

// HandleCancelHide returns to hideout selection.
func (h *SessionHandler) HandleCancelHide(client *ws.Client, _ ws.Message) {
	h.run(client, (*session.Session).CancelHide)
}

// HandleConfirmHide starts the hide countdown.
func (h *SessionHandler) HandleConfirmHide(client *ws.Client, _ ws.Message) {
	h.run(client, (*session.Session).ConfirmHide)
}

// HandleAnswer resolves the open question.
func (h *SessionHandler) HandleAnswer(client *ws.Client, _ ws.Message) {
	h.run(client, (*session.Session).Answer)
}

// HandleReset abandons the game.
func (h *SessionHandler) HandleReset(client *ws.Client, _ ws.Message) {
	h.run(client, (*session.Session).Reset)
}

func (h *SessionHandler) run(client *ws.Client, fn func(*session.Session) error) {
	s := h.session(client)
	if s == nil {
		return
	}
	if err := fn(s); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
	}
}

func (h *SessionHandler) session(client *ws.Client) *session.Session {
	s := h.sm.GetSession(client.SessionID)
	if s == nil {
		client.SendMessage(ws.NewErrorMessage("no active session"))
	}
	return s
}
