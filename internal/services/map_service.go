package services

import (
	"context"
	"encoding/json"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"gorm.io/gorm"

	"gelift/internal/apperr"
	"gelift/internal/models"
)

// MapService renders event routes and team tracks as GeoJSON.
type MapService struct {
	db *gorm.DB
}

func NewMapService(db *gorm.DB) *MapService {
	return &MapService{db: db}
}

// EventMap returns a FeatureCollection with the waypoints of the event and one
// LineString (or Point, for a single fix) per team segment.
func (s *MapService) EventMap(ctx context.Context, event models.Event) (*gjson.FeatureCollection, error) {
	fc := &gjson.FeatureCollection{Features: []*gjson.Feature{}}

	for _, wp := range waypoints(event) {
		fc.Features = append(fc.Features, &gjson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{wp.loc.Longitude, wp.loc.Latitude}),
			Properties: map[string]interface{}{
				"kind":        "waypoint",
				"city":        wp.city,
				"order":       wp.order,
				"location_id": wp.loc.ID,
			},
		})
	}

	var crumbs []models.TeamLocation
	err := s.db.WithContext(ctx).
		Preload("Location").
		Joins("JOIN teams ON teams.id = team_locations.team_id").
		Select("team_locations.*").
		Where("teams.event_id = ?", event.ID).
		Order("team_locations.team_id asc").
		Order("team_locations.segment asc").
		Order("team_locations.datetime asc").
		Order("team_locations.id asc").
		Find(&crumbs).Error
	if err != nil {
		return nil, apperr.FromDB(err, "team location")
	}

	type key struct {
		team    uint
		segment int
	}
	var order []key
	coords := map[key][]float64{}
	for _, c := range crumbs {
		if c.Location == nil {
			continue
		}
		k := key{c.TeamID, c.Segment}
		if _, ok := coords[k]; !ok {
			order = append(order, k)
		}
		coords[k] = append(coords[k], c.Location.Longitude, c.Location.Latitude)
	}

	for _, k := range order {
		flat := coords[k]
		var g geom.T
		if len(flat) == 2 {
			g = geom.NewPointFlat(geom.XY, flat)
		} else {
			g = geom.NewLineStringFlat(geom.XY, flat)
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			Geometry: g,
			Properties: map[string]interface{}{
				"kind":    "track",
				"team_id": k.team,
				"segment": k.segment,
			},
		})
	}
	return fc, nil
}

// EventMapJSON is EventMap encoded.
func (s *MapService) EventMapJSON(ctx context.Context, event models.Event) ([]byte, error) {
	fc, err := s.EventMap(ctx, event)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(fc)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "could not encode map")
	}
	return b, nil
}

type waypoint struct {
	loc   models.Location
	city  string
	order int
}

// waypoints lists start, sub-destinations and end of a preloaded event.
func waypoints(ev models.Event) []waypoint {
	var out []waypoint
	if ev.StartLocation != nil {
		out = append(out, waypoint{*ev.StartLocation, ev.StartCity, 0})
	}
	for _, sub := range ev.SubLocations {
		if sub.Location != nil {
			out = append(out, waypoint{*sub.Location, sub.City, sub.Order})
		}
	}
	if ev.EndLocation != nil {
		out = append(out, waypoint{*ev.EndLocation, ev.EndCity, len(ev.SubLocations) + 1})
	}
	return out
}
