package scoring

import "fmt"

// Waypoint is a named stop on the event route.
type Waypoint struct {
	LocationID uint
	City       string
}

// LegSpec describes one scoreboard column.
type LegSpec struct {
	Order         int
	Name          string
	EndLocationID uint
}

// BuildLegs chains start, the sub-destinations (already sorted by order) and
// end into consecutive legs numbered from 1.
func BuildLegs(start Waypoint, subs []Waypoint, end Waypoint) []LegSpec {
	stops := make([]Waypoint, 0, len(subs)+2)
	stops = append(stops, start)
	stops = append(stops, subs...)
	stops = append(stops, end)

	legs := make([]LegSpec, 0, len(stops)-1)
	for i := 1; i < len(stops); i++ {
		legs = append(legs, LegSpec{
			Order:         i,
			Name:          fmt.Sprintf("%s-%s", stops[i-1].City, stops[i].City),
			EndLocationID: stops[i].LocationID,
		})
	}
	return legs
}
