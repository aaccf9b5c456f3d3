package domain

// Achievement is a milestone badge surfaced on the completion summary.
type Achievement struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

var workoutMilestones = map[int]Achievement{
	1:   {Code: "first_workout", Title: "First Workout!"},
	10:  {Code: "workouts_10", Title: "10 Workouts"},
	50:  {Code: "workouts_50", Title: "50 Workouts"},
	100: {Code: "workouts_100", Title: "100 Workouts"},
}

var streakMilestones = map[int]Achievement{
	7:  {Code: "streak_7", Title: "7-Day Streak"},
	30: {Code: "streak_30", Title: "30-Day Streak"},
	90: {Code: "streak_90", Title: "90-Day Streak"},
}

// AchievementsFor returns the badges earned by the session that produced
// these stats. Thresholds match exactly, never "at least", so each badge
// fires once: going 9 -> 10 total workouts awards "10 Workouts", 10 -> 11
// awards nothing.
func AchievementsFor(stats *UserStats) []Achievement {
	if stats == nil {
		return nil
	}
	var earned []Achievement
	if a, ok := workoutMilestones[stats.TotalWorkouts]; ok {
		earned = append(earned, a)
	}
	if a, ok := streakMilestones[stats.CurrentStreak]; ok {
		earned = append(earned, a)
	}
	return earned
}
