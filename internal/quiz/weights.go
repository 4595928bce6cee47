package quiz

import (
	"time"

	"github.com/example/wordwise/pkg/models"
)

const recentWindow = 24 * time.Hour

// ItemWeight is the sampling weight of an item given its stat (nil if never attempted)
func ItemWeight(stat *models.ItemStat, now time.Time) float64 {
	if stat == nil {
		return 1.5
	}

	weight := 1.0
	if stat.Accuracy < 60 {
		weight *= 2.0
	} else if stat.Accuracy > 90 {
		weight *= 0.3
	}
	if now.Sub(stat.LastAttempted) < recentWindow {
		weight *= 0.5
	}
	return weight
}

// LevelWeight maps a level's accuracy to its share in auto mode.
// Zero accuracy is treated as "no data" rather than as failing the level.
func LevelWeight(accuracy float64) float64 {
	switch {
	case accuracy == 0:
		return 0.3
	case accuracy >= 90:
		return 0.1
	case accuracy >= 80:
		return 0.2
	case accuracy >= 70:
		return 0.3
	case accuracy >= 60:
		return 0.5
	default:
		return 0.7
	}
}

// PhraseBandWeights returns the easy, medium and hard shares of a phrase auto pool
// for the learner's average phrase accuracy
func PhraseBandWeights(avgAccuracy float64) [3]float64 {
	switch {
	case avgAccuracy < 60:
		return [3]float64{0.5, 0.3, 0.2}
	case avgAccuracy > 85:
		return [3]float64{0.2, 0.3, 0.5}
	}
	return [3]float64{0.3, 0.4, 0.3}
}
