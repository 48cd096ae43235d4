package game

// Rand is the subset of a random source question selection needs.
// *rand.Rand from golang.org/x/exp/rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NextDistance picks the next distance threshold from the answer history.
//
// A "within" answer moves one rung down the ladder (or stays on the last rung).
// A miss repeats the rung until MissesToRetreat misses have been recorded at
// that distance, then backs off one rung.
func NextDistance(history []AnswerRecord) float64 {
	if len(history) == 0 {
		return Ladder[0]
	}
	last := history[len(history)-1]
	i := ladderIndex(last.DistanceAsked)
	if i < 0 {
		return Ladder[0]
	}

	if last.WasWithin {
		if i < len(Ladder)-1 {
			return Ladder[i+1]
		}
		return Ladder[i]
	}

	misses := 0
	for _, rec := range history {
		if rec.DistanceAsked == last.DistanceAsked && !rec.WasWithin {
			misses++
		}
	}
	if misses >= MissesToRetreat && i > 0 {
		return Ladder[i-1]
	}
	return Ladder[i]
}

// ShouldAskLetterInstead reports whether a letter question may replace a distance
// question at candidate. The caller still applies the LetterChance gate.
func ShouldAskLetterInstead(candidate float64, history []AnswerRecord) bool {
	if len(history) < LetterMinHistory {
		return false
	}
	return candidate == 1 || candidate == 0.5
}

// NextQuestion combines NextDistance, the letter gate and the random draw.
func NextQuestion(history []AnswerRecord, rng Rand, letterChance float64) Question {
	d := NextDistance(history)
	if ShouldAskLetterInstead(d, history) && rng.Float64() < letterChance {
		return RandomLetterQuestion(rng)
	}
	return DistanceQuestion(d)
}

// RandomLetterQuestion draws a position in 1..LetterPositions and a letter from LetterPool.
func RandomLetterQuestion(rng Rand) Question {
	pos := rng.Intn(LetterPositions) + 1
	letter := LetterPool[rng.Intn(len(LetterPool))]
	return LetterQuestion(pos, letter)
}

func ladderIndex(d float64) int {
	for i, rung := range Ladder {
		if rung == d {
			return i
		}
	}
	return -1
}
