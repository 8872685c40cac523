package scoring

import (
	"sort"
	"time"
)

// Breadcrumb is the part of a TeamLocation the timing rules look at.
type Breadcrumb struct {
	Segment  int
	Datetime time.Time
}

type SegmentSpan struct {
	Segment int
	Span    time.Duration
}

// SegmentSpans returns max(datetime) - min(datetime) for every distinct
// segment, in ascending segment order.
func SegmentSpans(crumbs []Breadcrumb) []SegmentSpan {
	type bounds struct{ min, max time.Time }
	seen := make(map[int]*bounds)
	for _, c := range crumbs {
		b, ok := seen[c.Segment]
		if !ok {
			seen[c.Segment] = &bounds{min: c.Datetime, max: c.Datetime}
			continue
		}
		if c.Datetime.Before(b.min) {
			b.min = c.Datetime
		}
		if c.Datetime.After(b.max) {
			b.max = c.Datetime
		}
	}

	spans := make([]SegmentSpan, 0, len(seen))
	for seg, b := range seen {
		spans = append(spans, SegmentSpan{Segment: seg, Span: b.max.Sub(b.min)})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Segment < spans[j].Segment })
	return spans
}

// TravelTime is the sum of all segment spans.
func TravelTime(crumbs []Breadcrumb) time.Duration {
	var total time.Duration
	for _, s := range SegmentSpans(crumbs) {
		total += s.Span
	}
	return total
}
