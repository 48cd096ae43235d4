package game

import (
	"encoding/json"
	"unicode"

	"github.com/google/uuid"

	"github.com/ugaemi/jetlagged-server/internal/geo"
)

type Kind int

const (
	KindStreet Kind = iota
	KindCity
	KindTown
	KindVillage
	KindHamlet
	KindSuburb
	KindLocality
	KindAdministrative
	KindPOI
)

var kindNames = map[Kind]string{
	KindStreet:         "street",
	KindCity:           "city",
	KindTown:           "town",
	KindVillage:        "village",
	KindHamlet:         "hamlet",
	KindSuburb:         "suburb",
	KindLocality:       "locality",
	KindAdministrative: "administrative",
	KindPOI:            "poi",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "poi"
}

// ParseKind maps a geocoder place type to a Kind. Unknown types become KindPOI.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindPOI
}

// IsSettlement reports whether the kind names a populated place rather than a street or POI.
func (k Kind) IsSettlement() bool {
	switch k {
	case KindCity, KindTown, KindVillage, KindHamlet, KindSuburb, KindLocality, KindAdministrative:
		return true
	default:
		return false
	}
}

// MarshalJSON serializes Kind as a string.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON deserializes Kind from a string.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}

// Address is a resolved place: the hideout, a seeker position or a search result.
// Addresses are values; a moving seeker gets a new Address rather than a mutated one.
type Address struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Kind       Kind           `json:"kind"`
	Confidence float64        `json:"confidence"`
}

func NewAddress(label string, c geo.Coordinate, kind Kind, confidence float64) Address {
	return Address{
		ID:         uuid.New().String(),
		Label:      label,
		Coordinate: c,
		Kind:       kind,
		Confidence: confidence,
	}
}

// City is the place the hider chose to play in.
type City struct {
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// LetterAt returns the pos-th letter (1-based) of label, upper-cased.
// Digits, spaces and punctuation are skipped.
func LetterAt(label string, pos int) (rune, bool) {
	if pos < 1 {
		return 0, false
	}
	n := 0
	for _, r := range label {
		if !unicode.IsLetter(r) {
			continue
		}
		n++
		if n == pos {
			return unicode.ToUpper(r), true
		}
	}
	return 0, false
}
