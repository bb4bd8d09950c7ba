package domain

import "time"

// Store is the durable local cache (BoltDB + memory). Reads return
// (value, ok); storage failures degrade to a cache miss rather than
// propagating, so callers always prefer stale data over crashing.
type Store interface {
	// === Courses ===
	PutCourse(c Course) error
	PutCourses(courses []Course) error
	GetCourse(courseID string) (Course, bool)
	ListCourses() ([]Course, bool)
	// LastCourseRefresh reports when the course list was last replaced
	// from a successful remote fetch (freshness checks).
	LastCourseRefresh() (time.Time, bool)

	// === Lessons (indexed by parent course) ===
	PutLesson(l Lesson) error
	PutLessons(lessons []Lesson) error
	GetLesson(lessonID string) (Lesson, bool)
	// ListLessonsByCourse returns a course's cached lessons ordered by
	// order index ascending.
	ListLessonsByCourse(courseID string) ([]Lesson, bool)

	// === Progress (indexed by course and by synced flag) ===
	PutProgress(p LessonProgress) error
	GetProgress(lessonID string) (LessonProgress, bool)
	ListProgressByCourse(courseID string) ([]LessonProgress, bool)
	ListAllProgress() ([]LessonProgress, bool)
	ListUnsyncedProgress() ([]LessonProgress, bool)
	MarkSynced(lessonID string) error

	// === Lifecycle ===

	// Wipe deletes all cached rows (sign-out)
	Wipe() error

	Close() error
}
