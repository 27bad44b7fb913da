package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedWith(date Date, name string, sets ...WorkoutSet) Workout {
	return Workout{
		Date: date,
		Exercises: []TrackedExercise{
			{Name: name, TargetSets: len(sets), TargetRepMin: 5, TargetRepMax: 8, Sets: sets},
			{Name: "Other", Sets: []WorkoutSet{{Reps: intPtr(20), Weight: floatPtr(500), Completed: true}}},
		},
	}
}

func done(reps int, weight float64) WorkoutSet {
	return WorkoutSet{Reps: intPtr(reps), Weight: floatPtr(weight), Completed: true}
}

func TestSummarizeExerciseHistoryNoData(t *testing.T) {
	h := SummarizeExerciseHistory(nil, "Squat")
	assert.Equal(t, TrendNoData, h.Trend)
	assert.Zero(t, h.TotalSessions)
	assert.Nil(t, h.Best)
}

func TestSummarizeExerciseHistory(t *testing.T) {
	d := NewDate(2025, time.June, 20)
	// newest first
	workouts := []Workout{
		finishedWith(d, "Squat", done(5, 110), done(5, 110)),
		finishedWith(d.AddDays(-3), "Squat", done(6, 105), WorkoutSet{Reps: intPtr(12), Weight: floatPtr(200)}),
		finishedWith(d.AddDays(-7), "Squat", done(5, 100)),
		finishedWith(d.AddDays(-10), "Squat", done(5, 100), done(3, 0)),
	}
	h := SummarizeExerciseHistory(workouts, "Squat")
	assert.Equal(t, 4, h.TotalSessions)
	require.Len(t, h.RecentSessions, 3)
	assert.True(t, h.RecentSessions[0].Date.Equal(d))
	require.NotNil(t, h.Best)
	assert.Equal(t, BestPerformance{Weight: 110, Reps: 5}, *h.Best, "uncompleted heavy set ignored")
	assert.Equal(t, TrendIncreasing, h.Trend)
}

func TestSummarizeExerciseHistoryTrends(t *testing.T) {
	d := NewDate(2025, time.June, 20)
	build := func(weights ...float64) []Workout {
		out := make([]Workout, len(weights))
		for i, w := range weights {
			out[i] = finishedWith(d.AddDays(-i), "Bench", done(5, w))
		}
		return out
	}
	assert.Equal(t, TrendDecreasing, SummarizeExerciseHistory(build(80, 80, 100, 100), "Bench").Trend)
	assert.Equal(t, TrendStable, SummarizeExerciseHistory(build(101, 100, 100, 100), "Bench").Trend)
	assert.Equal(t, TrendStable, SummarizeExerciseHistory(build(150, 100), "Bench").Trend, "too few sessions")
}

func TestBestPerformanceTieBreaksOnReps(t *testing.T) {
	d := NewDate(2025, time.June, 20)
	h := SummarizeExerciseHistory([]Workout{
		finishedWith(d, "Row", done(8, 60), done(10, 60)),
	}, "Row")
	require.NotNil(t, h.Best)
	assert.Equal(t, 10, h.Best.Reps)
}

func TestCompletedSetAverages(t *testing.T) {
	s := ExerciseSession{Sets: []WorkoutSet{done(5, 100), done(7, 110), {Reps: intPtr(1), Weight: floatPtr(1)}}}
	completed, reps, weight, ok := s.CompletedSetAverages()
	require.True(t, ok)
	assert.Equal(t, 2, completed)
	assert.InDelta(t, 6.0, reps, 1e-9)
	assert.InDelta(t, 105.0, weight, 1e-9)

	_, _, _, ok = ExerciseSession{Sets: []WorkoutSet{{Completed: true}}}.CompletedSetAverages()
	assert.False(t, ok)
}
