package domain

// OnboardingState is the best-known profile gathered during onboarding.
// A nil field is unknown; an empty list is a known, empty answer.
type OnboardingState struct {
	FitnessGoals        []string `bson:"fitnessGoals" json:"fitness_goals"`
	ExperienceLevel     *string  `bson:"experienceLevel" json:"experience_level"`
	CurrentRoutine      *string  `bson:"currentRoutine" json:"current_routine"`
	DaysPerWeek         *int     `bson:"daysPerWeek" json:"days_per_week"`
	EquipmentAvailable  []string `bson:"equipmentAvailable" json:"equipment_available"`
	InjuriesLimitations []string `bson:"injuriesLimitations" json:"injuries_limitations"`
	Preferences         *string  `bson:"preferences" json:"preferences"`
}

// MergeOnboardingState overlays next onto old field by field: non-nil values in
// next win, nil values fall back to old.
func MergeOnboardingState(old *OnboardingState, next OnboardingState) OnboardingState {
	merged := next.Clone()
	if old == nil {
		return merged
	}
	if merged.FitnessGoals == nil {
		merged.FitnessGoals = cloneStrings(old.FitnessGoals)
	}
	if merged.ExperienceLevel == nil {
		merged.ExperienceLevel = clonePtr(old.ExperienceLevel)
	}
	if merged.CurrentRoutine == nil {
		merged.CurrentRoutine = clonePtr(old.CurrentRoutine)
	}
	if merged.DaysPerWeek == nil {
		merged.DaysPerWeek = clonePtr(old.DaysPerWeek)
	}
	if merged.EquipmentAvailable == nil {
		merged.EquipmentAvailable = cloneStrings(old.EquipmentAvailable)
	}
	if merged.InjuriesLimitations == nil {
		merged.InjuriesLimitations = cloneStrings(old.InjuriesLimitations)
	}
	if merged.Preferences == nil {
		merged.Preferences = clonePtr(old.Preferences)
	}
	return merged
}

func (s OnboardingState) Clone() OnboardingState {
	return OnboardingState{
		FitnessGoals:        cloneStrings(s.FitnessGoals),
		ExperienceLevel:     clonePtr(s.ExperienceLevel),
		CurrentRoutine:      clonePtr(s.CurrentRoutine),
		DaysPerWeek:         clonePtr(s.DaysPerWeek),
		EquipmentAvailable:  cloneStrings(s.EquipmentAvailable),
		InjuriesLimitations: cloneStrings(s.InjuriesLimitations),
		Preferences:         clonePtr(s.Preferences),
	}
}

// IsEmpty reports whether no field is known.
func (s OnboardingState) IsEmpty() bool {
	return s.FitnessGoals == nil && s.ExperienceLevel == nil && s.CurrentRoutine == nil &&
		s.DaysPerWeek == nil && s.EquipmentAvailable == nil && s.InjuriesLimitations == nil &&
		s.Preferences == nil
}
