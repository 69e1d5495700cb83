package engine

import (
	"testing"

	"github.com/dta-platform/assessment-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecommendations() []models.ServiceRecommendation {
	return []models.ServiceRecommendation{
		{
			ServiceID: "svc-basic", ServiceName: "Starter Program",
			MinPoints: 0, MaxPoints: 40,
			Levels: []string{"Beginner", "Emerging"},
		},
		{
			ServiceID: "svc-audit", ServiceName: "Audit Service",
			MinPoints: 30, MaxPoints: 70,
			Levels: []string{"Emerging", "Established"},
		},
		{
			ServiceID: "svc-premium", ServiceName: "Premium Advisory",
			MinPoints: 60, MaxPoints: 100,
			Levels: []string{"Established", "Expert"},
		},
	}
}

func TestResolve_InclusiveBounds(t *testing.T) {
	recs := testRecommendations()

	tests := []struct {
		name     string
		score    int
		expected []string
	}{
		{"exact lower bound", 30, []string{"svc-basic", "svc-audit"}},
		{"exact upper bound", 40, []string{"svc-basic", "svc-audit"}},
		{"one below lower bound", 29, []string{"svc-basic"}},
		{"one above upper bound", 41, []string{"svc-audit"}},
		{"overlap region", 65, []string{"svc-audit", "svc-premium"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := Resolve(tt.score, "", recs)
			ids := make([]string, 0, len(matches))
			for _, m := range matches {
				ids = append(ids, m.ServiceID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestResolve_LevelFilter(t *testing.T) {
	recs := testRecommendations()

	matches := Resolve(35, "Emerging", recs)
	require.Len(t, matches, 2)

	matches = Resolve(35, "Expert", recs)
	assert.Empty(t, matches, "score matches but level does not")

	// Empty level skips level filtering entirely.
	matches = Resolve(35, "", recs)
	assert.Len(t, matches, 2)
}

func TestResolve_GapYieldsEmptySet(t *testing.T) {
	recs := []models.ServiceRecommendation{
		{ServiceID: "svc", MinPoints: 50, MaxPoints: 60, Levels: []string{"Expert"}},
	}
	matches := Resolve(10, "", recs)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestResolve_PreservesConfigurationOrder(t *testing.T) {
	recs := []models.ServiceRecommendation{
		{ServiceID: "z-last", MinPoints: 0, MaxPoints: 100},
		{ServiceID: "a-first", MinPoints: 0, MaxPoints: 100},
	}
	matches := Resolve(50, "", recs)
	require.Len(t, matches, 2)
	assert.Equal(t, "z-last", matches[0].ServiceID)
	assert.Equal(t, "a-first", matches[1].ServiceID)
}
