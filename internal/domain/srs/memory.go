package srs

import (
	"math"

	"github.com/phrazzld/scry-study/internal/domain"
)

// gradeValue maps the two-button scale onto the four-point FSRS scale.
func gradeValue(g domain.Grade) float64 {
	if g == domain.GradeAgain {
		return 1
	}
	return 3
}

// memoryModel holds constants derived from the weights.
type memoryModel struct {
	w      [21]float64
	decay  float64 // -w[20]
	factor float64 // 0.9^(1/decay) - 1
	minD   float64
	maxD   float64
}

func newMemoryModel(p *Params) memoryModel {
	decay := -p.Weights[20]
	return memoryModel{
		w:      p.Weights,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
		minD:   p.MinDifficulty,
		maxD:   p.MaxDifficulty,
	}
}

// retrievability computes R(t, S) = (1 + factor * t / S) ^ decay.
func (m memoryModel) retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Pow(1+m.factor*elapsedDays/stability, m.decay)
}

// initStability returns S0(G) = w[G-1].
func (m memoryModel) initStability(g float64) float64 {
	return clampS(m.w[int(g)-1])
}

// initDifficulty returns D0(G) = w[4] - e^(w[5] * (G - 1)) + 1.
func (m memoryModel) initDifficulty(g float64) float64 {
	return m.w[4] - math.Exp(m.w[5]*(g-1)) + 1
}

// nextDifficulty applies a linearly damped step followed by mean reversion
// towards D0(Easy).
func (m memoryModel) nextDifficulty(d, g float64) float64 {
	delta := -m.w[6] * (g - 3)
	damped := d + (10-d)*delta/9
	reverted := m.w[7]*m.initDifficulty(4) + (1-m.w[7])*damped
	return m.clampD(reverted)
}

// shortTermStability is used when a card is reviewed again within a day.
// A successful review never lowers stability.
func (m memoryModel) shortTermStability(s, g float64) float64 {
	inc := math.Exp(m.w[17]*(g-3+m.w[18])) * math.Pow(s, -m.w[19])
	if g >= 3 {
		inc = math.Max(inc, 1)
	}
	return clampS(s * inc)
}

// recallStability grows S after a successful review. The gain shrinks when
// the card is reviewed while retrievability is still high.
func (m memoryModel) recallStability(d, s, r float64) float64 {
	return clampS(s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-r)*m.w[10])-1)))
}

// forgetStability is the post-lapse stability, never above the short-term
// ceiling S / e^(w[17] * w[18]).
func (m memoryModel) forgetStability(d, s, r float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	short := s / math.Exp(m.w[17]*m.w[18])
	return clampS(math.Min(long, short))
}

// interval returns the number of days until retrievability falls to the
// desired retention, rounded to whole days and capped at maxDays.
func (m memoryModel) interval(s, desiredRetention, maxDays float64) float64 {
	ivl := math.Round(s / m.factor * (math.Pow(desiredRetention, 1.0/m.decay) - 1))
	return math.Min(math.Max(ivl, 0), maxDays)
}

func (m memoryModel) clampD(d float64) float64 {
	return math.Min(math.Max(d, m.minD), m.maxD)
}

// clampS keeps stability strictly positive once a card has been reviewed.
func clampS(s float64) float64 {
	return math.Max(s, 0.001)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
