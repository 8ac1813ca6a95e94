package progress

import (
	"math"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
)

// CountByStatus tallies topics per status. Statuses with no topics are
// omitted, so an empty input yields an empty map.
func CountByStatus(topics []catalog.Topic) map[lifecycle.ContentStatus]int {
	counts := map[lifecycle.ContentStatus]int{}
	for _, topic := range topics {
		counts[topic.Status]++
	}
	return counts
}

// CompletionPercentage is 100 × finalized / total, or 0 for no topics. The
// value is unrounded; use RoundPercent for display.
func CompletionPercentage(topics []catalog.Topic) float64 {
	if len(topics) == 0 {
		return 0
	}
	return percent(countStatus(topics, lifecycle.StatusFinalized), len(topics))
}

// TotalEstimatedMinutes sums estimated minutes across every topic.
func TotalEstimatedMinutes(topics []catalog.Topic) int {
	total := 0
	for _, topic := range topics {
		total += topic.EstimatedTime
	}
	return total
}

// PublishedMinutes sums estimated minutes of finalized topics only.
func PublishedMinutes(topics []catalog.Topic) int {
	total := 0
	for _, topic := range topics {
		if topic.Status == lifecycle.StatusFinalized {
			total += topic.EstimatedTime
		}
	}
	return total
}

// RoundPercent rounds half away from zero to the given number of decimal
// places. Negative places are treated as zero.
func RoundPercent(value float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// WholePercent rounds a percentage to the nearest integer, the way dashboards
// show course and degree progress.
func WholePercent(value float64) int {
	return int(math.Round(value))
}

// Reached counts topics whose status is at or beyond stage.
func Reached(topics []catalog.Topic, stage lifecycle.ContentStatus) int {
	count := 0
	for _, topic := range topics {
		if topic.Status.AtLeast(stage) {
			count++
		}
	}
	return count
}

func countStatus(topics []catalog.Topic, status lifecycle.ContentStatus) int {
	count := 0
	for _, topic := range topics {
		if topic.Status == status {
			count++
		}
	}
	return count
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
