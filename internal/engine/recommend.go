package engine

import "github.com/dta-platform/assessment-engine/internal/models"

// Resolve returns every recommendation whose [MinPoints, MaxPoints]
// interval contains score, inclusive at both ends. When level is non-empty
// the recommendation's level set must also contain it; an empty level skips
// level filtering entirely.
//
// Ranges may overlap, so multiple matches are expected. A score no interval
// covers yields an empty set, not an error; the caller decides how to
// present the gap. Output preserves configuration order so identical input
// always yields an identical result.
func Resolve(score int, level string, recommendations []models.ServiceRecommendation) []models.ServiceRecommendation {
	matches := make([]models.ServiceRecommendation, 0, len(recommendations))
	for _, rec := range recommendations {
		if score < rec.MinPoints || score > rec.MaxPoints {
			continue
		}
		if level != "" && !containsLevel(rec.Levels, level) {
			continue
		}
		matches = append(matches, rec)
	}
	return matches
}

func containsLevel(levels []string, level string) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
