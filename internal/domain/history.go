package domain

// Trend describes how the working weight of an exercise moved over recent sessions.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendNoData     Trend = "no_data"
)

const (
	recentSessionCount = 3
	trendMinSessions   = 4
	trendThreshold     = 1.05
)

// ExerciseSession is one past performance of a named exercise.
type ExerciseSession struct {
	Date         Date
	Sets         []WorkoutSet
	TargetRepMin int
	TargetRepMax int
}

type BestPerformance struct {
	Weight float64
	Reps   int
}

type ExerciseHistory struct {
	RecentSessions []ExerciseSession
	Trend          Trend
	Best           *BestPerformance
	TotalSessions  int
}

// SummarizeExerciseHistory collects every session of the named exercise from
// workouts, which must be ordered newest first.
func SummarizeExerciseHistory(workouts []Workout, name string) ExerciseHistory {
	var sessions []ExerciseSession
	for _, w := range workouts {
		for _, ex := range w.Exercises {
			if ex.Name == name {
				sessions = append(sessions, ExerciseSession{
					Date:         w.Date,
					Sets:         ex.Sets,
					TargetRepMin: ex.TargetRepMin,
					TargetRepMax: ex.TargetRepMax,
				})
			}
		}
	}
	if len(sessions) == 0 {
		return ExerciseHistory{Trend: TrendNoData}
	}

	history := ExerciseHistory{
		RecentSessions: sessions[:min(recentSessionCount, len(sessions))],
		Trend:          TrendStable,
		TotalSessions:  len(sessions),
	}

	var best BestPerformance
	for _, session := range sessions {
		for _, s := range session.Sets {
			weight, reps, ok := loggedSet(s)
			if !ok || reps == 0 {
				continue
			}
			if weight > best.Weight || (weight == best.Weight && reps > best.Reps) {
				best = BestPerformance{Weight: weight, Reps: reps}
			}
		}
	}
	if best.Weight > 0 {
		history.Best = &best
	}

	if len(sessions) >= trendMinSessions {
		half := len(sessions) / 2
		newer, okNewer := averageCompletedWeight(sessions[:half])
		older, okOlder := averageCompletedWeight(sessions[half:])
		if okNewer && okOlder {
			switch {
			case newer > older*trendThreshold:
				history.Trend = TrendIncreasing
			case older > newer*trendThreshold:
				history.Trend = TrendDecreasing
			}
		}
	}
	return history
}

// CompletedSetAverages returns the number of completed sets and the average
// reps and weight over those with both values logged.
func (s ExerciseSession) CompletedSetAverages() (completed int, avgReps, avgWeight float64, ok bool) {
	var reps, weights []float64
	for _, set := range s.Sets {
		if !set.Completed {
			continue
		}
		completed++
		if set.Weight != nil && *set.Weight > 0 {
			weights = append(weights, *set.Weight)
		}
		if set.Reps != nil && *set.Reps > 0 {
			reps = append(reps, float64(*set.Reps))
		}
	}
	if len(reps) == 0 || len(weights) == 0 {
		return completed, 0, 0, false
	}
	return completed, mean(reps), mean(weights), true
}

func loggedSet(s WorkoutSet) (weight float64, reps int, ok bool) {
	if !s.Completed || s.Weight == nil || *s.Weight <= 0 || s.Reps == nil {
		return 0, 0, false
	}
	return *s.Weight, *s.Reps, true
}

func averageCompletedWeight(sessions []ExerciseSession) (float64, bool) {
	var weights []float64
	for _, session := range sessions {
		for _, s := range session.Sets {
			if s.Completed && s.Weight != nil && *s.Weight > 0 {
				weights = append(weights, *s.Weight)
			}
		}
	}
	if len(weights) == 0 {
		return 0, false
	}
	return mean(weights), true
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
