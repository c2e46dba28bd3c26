package feed

import "math"

type ScoreKind string

const (
	ScoreNone      ScoreKind = "none"
	ScoreFullTime  ScoreKind = "ft"
	ScoreExtraTime ScoreKind = "et"
	ScorePenalties ScoreKind = "p"
	ScoreFlat      ScoreKind = "flat"
)

// Score is the resolved score variant of a raw record.
type Score struct {
	Kind ScoreKind
	Home int
	Away int
}

// ClassifyScore picks the score variant by priority: full time, extra time,
// penalties, then the flat score1/score2 fields. Half-present values count as absent.
func ClassifyScore(payload *RawScorePayload, score1, score2 *int) Score {
	if payload != nil {
		if home, away, ok := pair(payload.FT); ok {
			return Score{Kind: ScoreFullTime, Home: home, Away: away}
		}
		if home, away, ok := pair(payload.ET); ok {
			return Score{Kind: ScoreExtraTime, Home: home, Away: away}
		}
		if home, away, ok := pair(payload.P); ok {
			return Score{Kind: ScorePenalties, Home: home, Away: away}
		}
	}
	if score1 != nil && score2 != nil {
		return Score{Kind: ScoreFlat, Home: *score1, Away: *score2}
	}
	return Score{Kind: ScoreNone}
}

// Resolve returns the persisted score pair, nil/nil when there is none.
func (s Score) Resolve() (*int, *int) {
	if s.Kind == ScoreNone || s.Kind == "" {
		return nil, nil
	}
	home, away := s.Home, s.Away
	return &home, &away
}

func (s Score) Resolvable() bool {
	return s.Kind != ScoreNone && s.Kind != ""
}

func pair(values []any) (int, int, bool) {
	if len(values) != 2 {
		return 0, 0, false
	}
	home, ok := integer(values[0])
	if !ok {
		return 0, 0, false
	}
	away, ok := integer(values[1])
	if !ok {
		return 0, 0, false
	}
	return home, away, true
}

func integer(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
