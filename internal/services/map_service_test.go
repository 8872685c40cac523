package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelift/internal/testdb"
)

func TestEventMapJSON(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	ev := testdb.Event(t, db)
	testdb.SubLocation(t, db, ev.ID, "Utrecht", 1, 2, 2)
	team := testdb.Team(t, db, ev.ID)
	testdb.Breadcrumb(t, db, team.ID, 1, 0)
	testdb.Breadcrumb(t, db, team.ID, 1, time.Minute)
	testdb.Breadcrumb(t, db, team.ID, 2, time.Hour)

	loaded, err := NewEventService(db, nil).Get(ctx, ev.ID)
	require.NoError(t, err)

	raw, err := NewMapService(db).EventMapJSON(ctx, loaded)
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 5)

	var kinds []string
	for _, f := range doc.Features[:3] {
		assert.Equal(t, "Point", f.Geometry.Type)
		kinds = append(kinds, f.Properties["city"].(string))
	}
	assert.Equal(t, []string{"Eindhoven", "Utrecht", "Amsterdam"}, kinds)
	assert.Equal(t, "LineString", doc.Features[3].Geometry.Type)
	assert.Equal(t, float64(1), doc.Features[3].Properties["segment"])
	assert.Equal(t, "Point", doc.Features[4].Geometry.Type)
	assert.Equal(t, float64(team.ID), doc.Features[4].Properties["team_id"])
}
