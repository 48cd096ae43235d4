package game

import "time"

// Distance ladder (miles), coarsest first.
var Ladder = []float64{5, 3, 1, 0.5, 0.25}

// Question selection
const (
	LetterMinHistory = 3   // distance answers required before a letter question
	LetterChance     = 0.3 // probability of swapping an eligible distance question for a letter one
	LetterPositions  = 3   // letter questions ask about positions 1..LetterPositions
	MissesToRetreat  = 2   // misses at one rung before backing off a rung
)

// LetterPool is the fixed set of letters a letter question can ask about.
var LetterPool = []rune{'A', 'E', 'I', 'O', 'R', 'S', 'T', 'N', 'L', 'M'}

// Scoring
const (
	DistancePoints = 30
	LetterPoints   = 50
)

// Phase timing (scheduler ticks)
const (
	HideCountdownTicks    = 3
	ReleaseCountdownTicks = 5
	AnswerTimeoutTicks    = 15
	ResultDisplayTicks    = 3
	MoveCadenceTicks      = 10
	TickInterval          = time.Second
)

// Seeker movement (miles)
const (
	SeedRadius    = 1.0
	WanderRadius  = 0.5
	MaxPursuitHop = 1.0
)
