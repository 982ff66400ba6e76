package learning

import "fmt"

// PatternID returns the positional identifier of the i-th ledger entry,
// starting at "pattern1".
func PatternID(i int) string {
	return fmt.Sprintf("pattern%d", i+1)
}

// Effectiveness computes the success rate of every pattern id mentioned
// in any execution's attribution: appearances with weight > 0 divided by
// total appearances. A weight of exactly zero counts as a non-success.
// Patterns with no recorded appearances are absent from the result.
func (s *Service) Effectiveness() (map[string]PatternStats, error) {
	tracking, err := s.store.LoadTracking()
	if err != nil {
		return nil, err
	}

	stats := map[string]PatternStats{}
	for i := range tracking.Executions {
		for patternID, weight := range tracking.Executions[i].Attribution {
			entry := stats[patternID]
			entry.Appearances++
			if weight > 0 {
				entry.Successes++
			}
			stats[patternID] = entry
		}
	}
	for patternID, entry := range stats {
		entry.SuccessRate = float64(entry.Successes) / float64(entry.Appearances)
		stats[patternID] = entry
	}
	return stats, nil
}
