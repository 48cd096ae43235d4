package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geocode"
	"github.com/ugaemi/jetlagged-server/internal/ws"
)

const searchTimeout = 10 * time.Second

// Searcher looks up places by free text.
type Searcher interface {
	Search(ctx context.Context, text string) ([]game.Address, error)
}

// LocationHandler answers hideout search requests.
type LocationHandler struct {
	searcher Searcher
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(searcher Searcher) *LocationHandler {
	return &LocationHandler{searcher: searcher}
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResultsMessage struct {
	Query   string         `json:"query"`
	Results []game.Address `json:"results"`
}

type popularLocationsMessage struct {
	Locations []geocode.PopularLocation `json:"locations"`
}

// HandleSearch runs the lookup off the hub goroutine and replies with
// search_results. An empty query yields no results.
func (h *LocationHandler) HandleSearch(client *ws.Client, msg ws.Message) {
	var req searchRequest
	if err := msg.Decode(&req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid search request"))
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		h.reply(client, query, nil)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()

		results, err := h.searcher.Search(ctx, query)
		if err != nil {
			slog.Warn("location search failed", "client", client.ID, "query", query, "error", err)
			client.SendMessage(ws.NewErrorMessage("search failed"))
			return
		}
		h.reply(client, query, results)
	}()
}

func (h *LocationHandler) reply(client *ws.Client, query string, results []game.Address) {
	if results == nil {
		results = []game.Address{}
	}
	resp, _ := ws.NewMessage(ws.TypeSearchResults, searchResultsMessage{Query: query, Results: results})
	client.SendMessage(resp)
}

// HandlePopular sends the built-in starting cities.
func (h *LocationHandler) HandlePopular(client *ws.Client, _ ws.Message) {
	resp, _ := ws.NewMessage(ws.TypePopularLocations, popularLocationsMessage{Locations: geocode.PopularLocations()})
	client.SendMessage(resp)
}
