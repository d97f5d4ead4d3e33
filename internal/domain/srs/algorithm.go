package srs

import (
	"math"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// minStability keeps stability strictly positive after every update.
const minStability = 0.001

// model holds the weights together with the constants derived from them.
type model struct {
	w      [WeightCount]float64
	decay  float64
	factor float64
}

// newModel precomputes the decay exponent and the retrievability factor.
//
// The forgetting curve is R(t, S) = (1 + factor*t/S)^decay with
// decay = -w[20] and factor = 0.9^(1/decay) - 1, so that R(S, S) = 0.9.
func newModel(w [WeightCount]float64) model {
	decay := -w[20]
	return model{
		w:      w,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}
}

// retrievability returns the probability of recall after elapsedDays for a
// card with the given stability.
//
// It decreases monotonically in elapsedDays and increases in stability.
func (m model) retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	return math.Pow(1+m.factor*elapsedDays/stability, m.decay)
}

// nextIntervalDays solves R(t, S) = desiredRetention for t and rounds to
// whole days, clamped to [1, maxInterval].
func (m model) nextIntervalDays(stability, desiredRetention float64, maxInterval int) int {
	ivl := stability / m.factor * (math.Pow(desiredRetention, 1.0/m.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > maxInterval {
		days = maxInterval
	}
	return days
}

// initStability is S0(G) = w[G-1].
func (m model) initStability(r domain.Rating) float64 {
	return clampStability(m.w[r.Grade()-1])
}

// initDifficulty is D0(G) = w[4] - e^(w[5]*(G-1)) + 1.
func (m model) initDifficulty(r domain.Rating, clamp bool) float64 {
	d := m.w[4] - math.Exp(m.w[5]*float64(r.Grade()-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextDifficulty moves difficulty against the grade with linear damping
// towards 10, then mean-reverts towards D0(Easy).
//
// HARD raises difficulty, EASY lowers it, GOOD leaves it almost unchanged.
func (m model) nextDifficulty(d float64, r domain.Rating) float64 {
	delta := -m.w[6] * (float64(r.Grade()) - 3)
	damped := d + (10-d)*delta/9
	reverted := m.w[7]*m.initDifficulty(domain.RatingEasy, false) + (1-m.w[7])*damped
	return clampDifficulty(reverted)
}

// recallStability is the stability after a successful cross-day review.
//
//	S' = S * (1 + e^w8 * (11-D) * S^-w9 * (e^((1-R)*w10) - 1) * hardPenalty * easyBonus)
func (m model) recallStability(d, s, r float64, rating domain.Rating) float64 {
	hardPenalty := 1.0
	if rating == domain.RatingHard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if rating == domain.RatingEasy {
		easyBonus = m.w[16]
	}
	return clampStability(s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-r)*m.w[10])-1)*
		hardPenalty*easyBonus))
}

// forgetStability is the stability after a lapse. The short-term cap keeps
// it strictly below the previous stability.
//
//	S' = min(w11 * D^-w12 * ((S+1)^w13 - 1) * e^((1-R)*w14), S / e^(w17*w18))
func (m model) forgetStability(d, s, r float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	short := s / math.Exp(m.w[17]*m.w[18])
	return clampStability(math.Min(long, short))
}

// shortTermStability is used for reviews less than a day apart.
func (m model) shortTermStability(s float64, r domain.Rating) float64 {
	inc := math.Exp(m.w[17]*(float64(r.Grade())-3+m.w[18])) * math.Pow(s, -m.w[19])
	if r == domain.RatingGood || r == domain.RatingEasy {
		inc = math.Max(inc, 1.0)
	}
	return clampStability(s * inc)
}

func clampStability(s float64) float64 {
	return math.Max(s, minStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, domain.MinDifficulty), domain.MaxDifficulty)
}
