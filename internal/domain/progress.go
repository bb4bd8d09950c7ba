package domain

import "time"

// LessonProgress is the local record of learning progress for one lesson.
// Exactly one row exists per lesson id; the row is mutated in place and
// never deleted except by a full local-data wipe.
//
// Synced=false means the backend has not yet durably received this version.
type LessonProgress struct {
	LessonID            string    `json:"lesson_id"`
	CourseID            string    `json:"course_id"`
	Completed           bool      `json:"completed"`
	ProgressPercentage  int       `json:"progress_percentage"`
	TimeSpentMinutes    int       `json:"time_spent_minutes"`
	LastPositionSeconds int       `json:"last_position_seconds,omitempty"` // 0 = unset
	LastUpdated         time.Time `json:"last_updated"`
	Synced              bool      `json:"synced"`
}

// ProgressUpdate is a partial update to a lesson's progress.
// Nil fields retain the prior value.
type ProgressUpdate struct {
	Completed           *bool
	ProgressPercentage  *int
	TimeSpentMinutes    *int
	LastPositionSeconds *int
}

// CourseProgress is the derived aggregate over all progress rows of a course.
// Never stored; recomputed on demand.
type CourseProgress struct {
	CourseID           string `json:"course_id"`
	TotalLessons       int    `json:"total_lessons"`
	CompletedLessons   int    `json:"completed_lessons"`
	ProgressPercentage int    `json:"progress_percentage"` // round(mean of row percentages)
	TotalTimeSpent     int    `json:"total_time_spent"`    // minutes
}

// UserStats summarizes learning activity across all courses.
type UserStats struct {
	CoursesStarted   int `json:"courses_started"`
	CoursesCompleted int `json:"courses_completed"`
	HoursLearned     int `json:"hours_learned"` // total minutes / 60, rounded
	LessonsCompleted int `json:"lessons_completed"`
}

// Winner identifies which side of a sync conflict is kept.
type Winner int

const (
	WinnerLocal Winner = iota
	WinnerRemote
)

// ResolveConflict is the documented merge policy for pull-sync: the remote
// row is authoritative unless the local row is strictly newer. Ties go to
// remote. Clock skew between device and backend is not special-cased; the
// comparison is on raw timestamps.
func ResolveConflict(local *LessonProgress, remote *LessonProgress) Winner {
	if local != nil && local.LastUpdated.After(remote.LastUpdated) {
		return WinnerLocal
	}
	return WinnerRemote
}
