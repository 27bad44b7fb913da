package domain

// Snapshot converts a template prescription into tracked exercises with empty,
// loggable sets. It overwrites nothing by itself; callers must only apply it to
// workouts whose exercises are still nil (see Workout.NeedsSnapshot).
func Snapshot(prescription []TemplateExercise) []TrackedExercise {
	tracked := make([]TrackedExercise, 0, len(prescription))
	for _, ex := range prescription {
		tracked = append(tracked, TrackedExercise{
			Name:         ex.Name,
			TargetSets:   ex.Sets,
			TargetRepMin: ex.RepMin,
			TargetRepMax: ex.RepMax,
			Sets:         make([]WorkoutSet, max(ex.Sets, 0)),
		})
	}
	return tracked
}
