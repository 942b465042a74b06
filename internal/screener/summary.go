package screener

import (
	"github.com/ternarybob/screener/internal/models"
)

// Summary counts the outcomes of a batch
type Summary struct {
	Total       int `json:"total"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	Unavailable int `json:"unavailable"`
	Errors      int `json:"errors"`
}

// Summarize counts results by outcome
func Summarize(results []models.ScreeningResult) Summary {
	summary := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed() {
			summary.Passed++
			continue
		}
		summary.Failed++
		for _, f := range r.Failures {
			switch f {
			case models.FailureDataUnavailable:
				summary.Unavailable++
			case models.FailureScreeningError:
				summary.Errors++
			}
		}
	}
	return summary
}
