package locator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

const aiConfidence = 0.6

const systemPrompt = `You place a seeker in a hide-and-seek game on real streets.
Reply with a JSON array of up to 5 objects of the form {"label": "<house number> <street>, <city>", "lat": <number>, "lon": <number>}.
Every address must be a real street address inside the requested circle. Do not add commentary.`

var errNoPayload = errors.New("no JSON payload in reply")

// Completer is a free-text AI content service.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// AIStrategy asks a language model for real street addresses near the center.
type AIStrategy struct {
	completer Completer
	mu        sync.Mutex
	rng       *rand.Rand
}

func NewAIStrategy(completer Completer, seed uint64) *AIStrategy {
	return &AIStrategy{completer: completer, rng: rand.New(rand.NewSource(seed))}
}

func (s *AIStrategy) Name() string { return "ai" }

type aiCandidate struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

func (s *AIStrategy) Resolve(ctx context.Context, req Request) (game.Address, error) {
	reply, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		return game.Address{}, err
	}

	candidates, err := extractCandidates(reply)
	if err != nil {
		return game.Address{}, err
	}

	usable := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Label) == "" {
			continue
		}
		if !req.accepts(geo.Coordinate{Lat: c.Lat, Lon: c.Lon}) {
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return game.Address{}, fmt.Errorf("none of %d candidates is usable", len(candidates))
	}

	s.mu.Lock()
	pick := usable[s.rng.Intn(len(usable))]
	s.mu.Unlock()

	return game.NewAddress(strings.TrimSpace(pick.Label), geo.Coordinate{Lat: pick.Lat, Lon: pick.Lon}, game.KindStreet, aiConfidence), nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	city := req.CityName
	if city == "" {
		city = "the surrounding city"
	}
	fmt.Fprintf(&b, "City: %s\n", city)
	fmt.Fprintf(&b, "Circle center: %.6f, %.6f\n", req.Center.Lat, req.Center.Lon)
	fmt.Fprintf(&b, "Circle radius: %g miles\n", req.RadiusMiles)
	if len(req.PriorAnswers) > 0 {
		b.WriteString("What the seeker has learned so far:\n")
		for _, a := range req.PriorAnswers {
			verdict := "outside"
			if a.WasWithin {
				verdict = "within"
			}
			fmt.Fprintf(&b, "- hider is %s %g miles of (%.5f, %.5f)\n",
				verdict, a.DistanceAsked, a.SeekerPositionAtAsk.Lat, a.SeekerPositionAtAsk.Lon)
		}
	}
	b.WriteString("List street addresses the seeker could move to.")
	return b.String()
}

// extractCandidates finds the JSON payload in a free-text reply. It accepts a bare
// array, or an object wrapping the array under "addresses" or "candidates".
func extractCandidates(reply string) ([]aiCandidate, error) {
	if start, end := strings.Index(reply, "["), strings.LastIndex(reply, "]"); start >= 0 && end > start {
		var list []aiCandidate
		if err := json.Unmarshal([]byte(reply[start:end+1]), &list); err == nil && len(list) > 0 {
			return list, nil
		}
	}

	if start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}"); start >= 0 && end > start {
		var wrapped struct {
			Addresses  []aiCandidate `json:"addresses"`
			Candidates []aiCandidate `json:"candidates"`
		}
		if err := json.Unmarshal([]byte(reply[start:end+1]), &wrapped); err == nil {
			if list := append(wrapped.Addresses, wrapped.Candidates...); len(list) > 0 {
				return list, nil
			}
		}
	}

	return nil, errNoPayload
}
