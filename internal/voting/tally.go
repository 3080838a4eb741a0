package voting

import "movienight-server/internal/model"

// TallyAvailability counts, per date string, how many ballots listed that
// date. A ballot listing several dates contributes to each of them; ballots
// without availability contribute nothing.
func TallyAvailability(ballots []model.Ballot) map[string]int {
	out := make(map[string]int)
	for _, b := range ballots {
		for _, d := range b.Availability {
			out[d]++
		}
	}
	return out
}

// WinningDate picks the date with the highest count, breaking ties by
// lexicographically earliest date (deterministic for YYYY-MM-DD strings).
// Returns ok=false when no ballot listed any availability.
func WinningDate(counts map[string]int) (string, bool) {
	var (
		best  string
		bestN int
		found bool
	)
	for d, n := range counts {
		if !found || n > bestN || (n == bestN && d < best) {
			best, bestN, found = d, n, true
		}
	}
	return best, found
}
