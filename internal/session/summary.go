package session

import (
	"math"

	"github.com/pavelanni/classifier/internal/model"
)

// Summarize scores a set of results. The percentage is rounded half away
// from zero; an empty set scores 0.
func Summarize(results []model.Result) model.Summary {
	sum := model.Summary{Total: len(results)}
	for _, r := range results {
		if r.IsCorrect {
			sum.Correct++
		}
	}
	if sum.Total > 0 {
		sum.Percentage = int(math.Round(float64(sum.Correct) / float64(sum.Total) * 100))
	}
	sum.Verdict = VerdictFor(sum.Percentage)
	return sum
}

// VerdictFor maps a percentage to its band.
func VerdictFor(percentage int) model.Verdict {
	switch {
	case percentage >= 90:
		return model.VerdictExcellent
	case percentage >= 70:
		return model.VerdictVeryGood
	case percentage >= 50:
		return model.VerdictNotBad
	default:
		return model.VerdictNeedsPractice
	}
}
