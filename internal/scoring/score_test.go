package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

func TestSegmentSpans(t *testing.T) {
	crumbs := []Breadcrumb{
		{Segment: 2, Datetime: at(60)},
		{Segment: 1, Datetime: at(10)},
		{Segment: 1, Datetime: at(0)},
		{Segment: 2, Datetime: at(90)},
		{Segment: 1, Datetime: at(5)},
		{Segment: 3, Datetime: at(200)},
	}

	spans := SegmentSpans(crumbs)
	assert.Equal(t, []SegmentSpan{
		{Segment: 1, Span: 10 * time.Minute},
		{Segment: 2, Span: 30 * time.Minute},
		{Segment: 3, Span: 0},
	}, spans)
	assert.Equal(t, 40*time.Minute, TravelTime(crumbs))
	assert.Zero(t, TravelTime(nil))
}

func TestNextLegFirstUsesEventStart(t *testing.T) {
	crumbs := []Breadcrumb{{1, at(0)}, {1, at(30)}}

	leg, ok := NextLeg(crumbs, nil, 7, 9)

	assert.True(t, ok)
	assert.Equal(t, Leg{StartLocationID: 7, EndLocationID: 9, Time: 30 * time.Minute}, leg)
}

func TestNextLegSubtractsPriors(t *testing.T) {
	crumbs := []Breadcrumb{{1, at(0)}, {1, at(30)}, {2, at(40)}, {2, at(100)}}
	priors := []PriorScore{
		{ID: 3, EndLocationID: 20, Time: 20 * time.Minute},
		{ID: 5, EndLocationID: 21, Time: 10 * time.Minute},
		{ID: 4, EndLocationID: 22, Time: 0},
	}

	leg, ok := NextLeg(crumbs, priors, 7, 30)

	assert.True(t, ok)
	assert.Equal(t, uint(21), leg.StartLocationID, "starts at the newest prior score's end")
	assert.Equal(t, 60*time.Minute, leg.Time)
}

func TestNextLegZeroIsSkipped(t *testing.T) {
	crumbs := []Breadcrumb{{1, at(0)}, {1, at(30)}}
	priors := []PriorScore{{ID: 1, EndLocationID: 2, Time: 30 * time.Minute}}

	_, ok := NextLeg(crumbs, priors, 1, 2)

	assert.False(t, ok)
}

func TestScoresAddUpToTravelTime(t *testing.T) {
	crumbs := []Breadcrumb{{1, at(0)}, {1, at(25)}}
	first, _ := NextLeg(crumbs, nil, 1, 2)

	crumbs = append(crumbs, Breadcrumb{2, at(40)}, Breadcrumb{2, at(47)})
	second, _ := NextLeg(crumbs, []PriorScore{{ID: 1, EndLocationID: 2, Time: first.Time}}, 1, 3)

	assert.Equal(t, TravelTime(crumbs), first.Time+second.Time)
	assert.Equal(t, uint(2), second.StartLocationID)
}
