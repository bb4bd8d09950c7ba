package domain

// Read results carry a FromCache flag so callers (and tests) can tell
// fresh data from offline fallback without inspecting the network.

// CourseList is the result of a catalog list/search read.
type CourseList struct {
	Courses   []Course
	FromCache bool
}

// CourseDetail is the result of a single-course read.
// Course is nil when the id is unknown both remotely and locally.
type CourseDetail struct {
	Course    *CourseWithLessons
	FromCache bool
}

// LessonList is the result of a per-course lesson read.
type LessonList struct {
	Lessons   []Lesson
	FromCache bool
}

// LessonDetail is the result of a single-lesson read.
// Lesson is nil when the id is unknown both remotely and locally.
type LessonDetail struct {
	Lesson    *Lesson
	FromCache bool
}
