package velocity

import "math"

// Stats caches aggregate sample statistics for a session. StdDev is the
// population standard deviation.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ComputeStats derives session statistics from a reading set. An empty set
// yields the zero value.
func ComputeStats(readings []Reading) Stats {
	if len(readings) == 0 {
		return Stats{}
	}

	stats := Stats{
		Count: len(readings),
		Min:   readings[0].Speed,
		Max:   readings[0].Speed,
	}

	sum := 0.0
	for _, r := range readings {
		sum += r.Speed
		if r.Speed < stats.Min {
			stats.Min = r.Speed
		}
		if r.Speed > stats.Max {
			stats.Max = r.Speed
		}
	}
	stats.Mean = sum / float64(stats.Count)

	sumSq := 0.0
	for _, r := range readings {
		d := r.Speed - stats.Mean
		sumSq += d * d
	}
	stats.StdDev = math.Sqrt(sumSq / float64(stats.Count))

	return stats
}
