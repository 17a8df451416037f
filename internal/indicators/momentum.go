package indicators

import "fmt"

// CalculateMomentum computes the percent change between the most recent
// close and the close `days` bars earlier. closes must be ordered
// oldest-first; the Growth agent uses this over a 30-day window.
func (s *Service) CalculateMomentum(closes []float64, days int) (float64, error) {
	if len(closes) < 2 {
		return 0, fmt.Errorf("need at least 2 closes, got %d", len(closes))
	}
	if days >= len(closes) {
		days = len(closes) - 1
	}
	if days < 1 {
		return 0, fmt.Errorf("invalid window: %d", days)
	}

	latest := closes[len(closes)-1]
	past := closes[len(closes)-1-days]
	if past == 0 {
		return 0, fmt.Errorf("zero base price, cannot compute momentum")
	}
	return (latest - past) / past, nil
}
