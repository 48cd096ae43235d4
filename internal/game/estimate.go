package game

import "github.com/ugaemi/jetlagged-server/internal/geo"

// Estimate is a disc believed to contain the hider.
type Estimate struct {
	Center      geo.Coordinate `json:"center"`
	RadiusMiles float64        `json:"radius_miles"`
}

// EstimatePosition trusts only the most recent "within" answer: the seeker's
// position when it was asked becomes the center and the threshold the radius.
// Earlier positives and all negatives are ignored.
func EstimatePosition(history []AnswerRecord) (Estimate, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if rec := history[i]; rec.WasWithin {
			return Estimate{Center: rec.SeekerPositionAtAsk, RadiusMiles: rec.DistanceAsked}, true
		}
	}
	return Estimate{}, false
}
