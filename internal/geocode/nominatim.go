package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	searchLimit    = 10
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
	minImportance  = 0.3
)

var (
	ErrNoResult       = errors.New("geocoder returned no result")
	ErrUnexpectedCode = errors.New("geocoder returned unexpected status")
)

// Nominatim is a client for the OpenStreetMap Nominatim search and reverse APIs.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatim creates a client. Nominatim's usage policy requires an identifying User-Agent.
func NewNominatim(baseURL, userAgent string) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type place struct {
	PlaceID     json.RawMessage `json:"place_id"`
	DisplayName string          `json:"display_name"`
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	Type        string          `json:"type"`
	Importance  float64         `json:"importance"`
	Address     placeAddress    `json:"address"`
	Error       string          `json:"error"`
}

type placeAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
}

// Search looks up places matching text and keeps the ones that make sense as a
// place to hide in: settlements, names mentioning a city or town, or important places.
func (n *Nominatim) Search(ctx context.Context, text string) ([]game.Address, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", text)
	q.Set("limit", strconv.Itoa(searchLimit))
	q.Set("addressdetails", "1")
	q.Set("dedupe", "1")

	var places []place
	if err := n.get(ctx, "/search", q, &places); err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	results := make([]game.Address, 0, len(places))
	for _, p := range places {
		if !keepSearchResult(p) {
			continue
		}
		addr, err := p.toAddress()
		if err != nil {
			continue
		}
		results = append(results, addr)
	}
	return results, nil
}

// Reverse returns the nearest addressable place to c.
func (n *Nominatim) Reverse(ctx context.Context, c geo.Coordinate) (game.Address, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(c.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(c.Lon, 'f', 6, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	var p place
	if err := n.get(ctx, "/reverse", q, &p); err != nil {
		return game.Address{}, fmt.Errorf("reverse %v: %w", c, err)
	}
	if p.Error != "" {
		return game.Address{}, fmt.Errorf("reverse %v: %w: %s", c, ErrNoResult, p.Error)
	}
	return p.toAddress()
}

func (n *Nominatim) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func keepSearchResult(p place) bool {
	if game.ParseKind(p.Type).IsSettlement() {
		return true
	}
	name := strings.ToLower(p.DisplayName)
	if strings.Contains(name, "city") || strings.Contains(name, "town") {
		return true
	}
	return p.Importance > minImportance
}

func (p place) toAddress() (game.Address, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return game.Address{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return game.Address{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}
	c := geo.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return game.Address{}, fmt.Errorf("invalid coordinate %v", c)
	}

	label := p.DisplayName
	kind := game.ParseKind(p.Type)
	if p.Address.Road != "" {
		label = streetLabel(p.Address)
		kind = game.KindStreet
	}

	addr := game.NewAddress(label, c, kind, p.Importance)
	if id := strings.Trim(string(p.PlaceID), `"`); id != "" {
		addr.ID = "osm-" + id
	}
	return addr, nil
}

func streetLabel(a placeAddress) string {
	street := a.Road
	if a.HouseNumber != "" {
		street = a.HouseNumber + " " + a.Road
	}
	for _, locality := range []string{a.City, a.Town, a.Village} {
		if locality != "" {
			return street + ", " + locality
		}
	}
	return street
}
