package scoring

import (
	"sort"
	"time"
)

type LegTime struct {
	Order int    `json:"order"`
	Name  string `json:"name"`
	Time  string `json:"time"`
}

// Entry is one team's scoreboard row.
type Entry struct {
	TeamID         uint      `json:"team_id"`
	Members        []string  `json:"members"`
	Segments       []LegTime `json:"segments"`
	TravelTime     string    `json:"travel_time"`
	BonusTime      string    `json:"bonus_time"`
	FinalTime      string    `json:"final_time"`
	IsDisqualified bool      `json:"is_disqualified"`

	Travel time.Duration `json:"-"`
	Bonus  time.Duration `json:"-"`
	Final  time.Duration `json:"-"`
}

// TeamResult is everything known about one team when building its row.
type TeamResult struct {
	TeamID         uint
	Members        []string
	IsDisqualified bool
	// Scores maps a leg's end location to its recorded time.
	Scores  map[uint]time.Duration
	Crumbs  []Breadcrumb
	Rewards []time.Duration
}

func NewEntry(legs []LegSpec, r TeamResult) Entry {
	e := Entry{
		TeamID:         r.TeamID,
		Members:        r.Members,
		IsDisqualified: r.IsDisqualified,
		Segments:       make([]LegTime, 0, len(legs)),
	}
	if e.Members == nil {
		e.Members = []string{}
	}

	for _, leg := range legs {
		lt := LegTime{Order: leg.Order, Name: leg.Name, Time: NotAvailable}
		if d, ok := r.Scores[leg.EndLocationID]; ok && d != 0 {
			lt.Time = FormatHHMM(d)
		}
		e.Segments = append(e.Segments, lt)
	}

	e.Travel = TravelTime(r.Crumbs)
	e.Bonus = Bonus(r.Rewards)
	e.Final = e.Travel - e.Bonus
	e.TravelTime = FormatHHMM(e.Travel)
	e.BonusTime = FormatHHMM(e.Bonus)
	e.FinalTime = FormatHHMM(e.Final)
	return e
}

// Rank orders entries in place: qualified teams first, then by final time.
// Ties keep their input order.
func Rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDisqualified != b.IsDisqualified {
			return !a.IsDisqualified
		}
		return a.Final < b.Final
	})
}
