package domain

import (
	"context"
)

// CourseRepository provides read access to the hosted course catalog.
// Every call may fail with ErrBackendUnavailable; callers fall back
// to the local cache.
type CourseRepository interface {
	// GetCourses returns published courses ordered by creation time descending
	GetCourses(ctx context.Context) ([]Course, error)

	// GetCourse returns a single course by id
	GetCourse(ctx context.Context, courseID string) (*Course, error)

	// GetCourseLessons returns a course's lessons ordered by order index ascending
	GetCourseLessons(ctx context.Context, courseID string) ([]Lesson, error)

	// GetLesson returns a single lesson by id
	GetLesson(ctx context.Context, lessonID string) (*Lesson, error)

	// SearchCourses performs a case-insensitive substring match on title and
	// description plus an exact category match, over published courses.
	// Empty query or category disables that predicate.
	SearchCourses(ctx context.Context, query, category string) ([]Course, error)

	// GetCoursesByDifficulty returns published courses filtered by level
	GetCoursesByDifficulty(ctx context.Context, level Difficulty) ([]Course, error)
}

// RemoteProgress is a progress row as the backend stores it.
// The backend keys progress by (user, lesson) and carries no course id.
type RemoteProgress struct {
	LessonID            string
	Completed           bool
	ProgressPercentage  int
	TimeSpentMinutes    int
	LastPositionSeconds int
	UpdatedAt           int64 // Unix timestamp assigned by the backend
}

// ProgressRepository provides the remote side of progress sync.
type ProgressRepository interface {
	// UpsertProgress pushes one progress row, keyed by (user, lesson)
	UpsertProgress(ctx context.Context, userID string, p LessonProgress) error

	// ListProgress returns all progress rows stored remotely for a user
	ListProgress(ctx context.Context, userID string) ([]RemoteProgress, error)
}

// DownloadRepository provides remote bookkeeping for downloaded content.
// The binary transfer itself never goes through this interface.
type DownloadRepository interface {
	// UpsertDownload records a completed download for a user
	UpsertDownload(ctx context.Context, userID string, rec DownloadRecord) error

	// DeleteDownload removes the bookkeeping row for a deleted download
	DeleteDownload(ctx context.Context, userID, lessonID string) error
}

// Identity yields the current user identity, if any. The core never
// authenticates; it only branches on identity presence. An absent
// identity means anonymous, local-only operation.
type Identity interface {
	// UserID returns the stable user identifier and whether one is resolved
	UserID() (string, bool)
}
