package scoring

import "time"

// PriorScore is an already persisted leg of the same team.
type PriorScore struct {
	ID            uint
	EndLocationID uint
	Time          time.Duration
}

// Leg is a score candidate for one completed leg.
type Leg struct {
	StartLocationID uint
	EndLocationID   uint
	Time            time.Duration
}

// NextLeg computes the leg ending at endLocationID. The leg starts where the
// most recent prior score ended, or at eventStart when there is none, and its
// time is the cumulative travel time minus all prior scores. ok is false when
// the time is zero and nothing should be stored.
func NextLeg(crumbs []Breadcrumb, priors []PriorScore, eventStart, endLocationID uint) (leg Leg, ok bool) {
	elapsed := TravelTime(crumbs)
	start := eventStart

	if len(priors) > 0 {
		latest := priors[0]
		for _, p := range priors {
			elapsed -= p.Time
			if p.ID > latest.ID {
				latest = p
			}
		}
		start = latest.EndLocationID
	}

	leg = Leg{StartLocationID: start, EndLocationID: endLocationID, Time: elapsed}
	return leg, elapsed != 0
}

// Bonus sums the rewards of accepted challenges.
func Bonus(rewards []time.Duration) time.Duration {
	var total time.Duration
	for _, r := range rewards {
		total += r
	}
	return total
}
