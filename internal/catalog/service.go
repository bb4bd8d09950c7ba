package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/edubridge/edubridge/internal/domain"
)

// cacheTTL bounds how long a cached course list is considered fresh
// enough to skip the network on non-forced reads.
const cacheTTL = 24 * time.Hour

// Service is the read-through cache over the hosted course catalog.
// Every read is total: connectivity failures degrade to the last cached
// data (or an empty result), never to an error.
type Service struct {
	client domain.CourseRepository
	store  domain.Store
	logger *slog.Logger
}

// NewService creates a new catalog service.
func NewService(client domain.CourseRepository, store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, logger: logger}
}

// GetCourses returns the published course list. A fresh cache is served
// directly unless forceRefresh is set; otherwise the remote result
// replaces the cached rows. On remote failure the full cached set is
// returned, unfiltered, so it may include unpublished or stale entries.
func (s *Service) GetCourses(ctx context.Context, forceRefresh bool) domain.CourseList {
	if !forceRefresh {
		if ts, ok := s.store.LastCourseRefresh(); ok && time.Since(ts) < cacheTTL {
			if cached, ok := s.store.ListCourses(); ok {
				s.logger.Debug("course cache fresh", "count", len(cached))
				return domain.CourseList{Courses: cached, FromCache: true}
			}
		}
	}

	courses, err := s.client.GetCourses(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch courses, serving cache", "error", err)
		return s.cachedCourseList()
	}

	if err := s.store.PutCourses(courses); err != nil {
		s.logger.Error("failed to cache courses", "error", err)
	}
	s.logger.Debug("fetched courses", "count", len(courses))
	return domain.CourseList{Courses: courses}
}

// GetCourse returns a course composed with its ordered lessons. Course and
// lessons are fetched in parallel; the cache is refreshed only when both
// fetches succeed. On any failure the composed cached view is served, and
// Course is nil when the id is unknown both remotely and locally.
func (s *Service) GetCourse(ctx context.Context, courseID string) domain.CourseDetail {
	type courseResult struct {
		course *domain.Course
		err    error
	}
	type lessonsResult struct {
		lessons []domain.Lesson
		err     error
	}

	courseCh := make(chan courseResult, 1)
	lessonsCh := make(chan lessonsResult, 1)

	go func() {
		c, err := s.client.GetCourse(ctx, courseID)
		courseCh <- courseResult{c, err}
	}()
	go func() {
		l, err := s.client.GetCourseLessons(ctx, courseID)
		lessonsCh <- lessonsResult{l, err}
	}()

	cr := <-courseCh
	lr := <-lessonsCh

	if cr.err != nil || lr.err != nil {
		if cr.err != nil {
			s.logger.Warn("failed to fetch course, serving cache", "courseID", courseID, "error", cr.err)
		} else {
			s.logger.Warn("failed to fetch lessons, serving cache", "courseID", courseID, "error", lr.err)
		}
		return s.cachedCourseDetail(courseID)
	}

	if err := s.store.PutCourse(*cr.course); err != nil {
		s.logger.Error("failed to cache course", "courseID", courseID, "error", err)
	}
	if err := s.store.PutLessons(lr.lessons); err != nil {
		s.logger.Error("failed to cache lessons", "courseID", courseID, "error", err)
	}

	return domain.CourseDetail{
		Course: &domain.CourseWithLessons{Course: *cr.course, Lessons: lr.lessons},
	}
}

// GetCourseLessons returns a course's lessons ordered by order index.
func (s *Service) GetCourseLessons(ctx context.Context, courseID string) domain.LessonList {
	lessons, err := s.client.GetCourseLessons(ctx, courseID)
	if err != nil {
		s.logger.Warn("failed to fetch lessons, serving cache", "courseID", courseID, "error", err)
		cached, _ := s.store.ListLessonsByCourse(courseID)
		return domain.LessonList{Lessons: cached, FromCache: true}
	}

	if err := s.store.PutLessons(lessons); err != nil {
		s.logger.Error("failed to cache lessons", "courseID", courseID, "error", err)
	}
	return domain.LessonList{Lessons: lessons}
}

// GetLesson returns a single lesson, nil when unknown everywhere.
func (s *Service) GetLesson(ctx context.Context, lessonID string) domain.LessonDetail {
	lesson, err := s.client.GetLesson(ctx, lessonID)
	if err != nil {
		s.logger.Warn("failed to fetch lesson, serving cache", "lessonID", lessonID, "error", err)
		if cached, ok := s.store.GetLesson(lessonID); ok {
			return domain.LessonDetail{Lesson: &cached, FromCache: true}
		}
		return domain.LessonDetail{FromCache: true}
	}

	if err := s.store.PutLesson(*lesson); err != nil {
		s.logger.Error("failed to cache lesson", "lessonID", lessonID, "error", err)
	}
	return domain.LessonDetail{Lesson: lesson}
}

// SearchCourses matches query as a case-insensitive substring of title or
// description, and category exactly. The predicate runs on the backend
// when online and over cached rows offline.
func (s *Service) SearchCourses(ctx context.Context, query, category string) domain.CourseList {
	courses, err := s.client.SearchCourses(ctx, query, category)
	if err != nil {
		s.logger.Warn("search fell back to cache", "query", query, "error", err)
		cached, _ := s.store.ListCourses()
		return domain.CourseList{Courses: filterCourses(cached, query, category), FromCache: true}
	}
	return domain.CourseList{Courses: courses}
}

// GetCoursesByDifficulty filters published courses by level, with the
// same offline fallback filter over cached rows.
func (s *Service) GetCoursesByDifficulty(ctx context.Context, level domain.Difficulty) domain.CourseList {
	courses, err := s.client.GetCoursesByDifficulty(ctx, level)
	if err != nil {
		s.logger.Warn("difficulty filter fell back to cache", "level", level, "error", err)
		cached, _ := s.store.ListCourses()
		var filtered []domain.Course
		for _, c := range cached {
			if c.DifficultyLevel == level {
				filtered = append(filtered, c)
			}
		}
		return domain.CourseList{Courses: filtered, FromCache: true}
	}
	return domain.CourseList{Courses: courses}
}

// ClearCache wipes all locally cached data.
func (s *Service) ClearCache() error {
	if err := s.store.Wipe(); err != nil {
		s.logger.Error("failed to clear cache", "error", err)
		return err
	}
	s.logger.Info("cleared local cache")
	return nil
}

// --- Private helpers ---

func (s *Service) cachedCourseList() domain.CourseList {
	cached, _ := s.store.ListCourses()
	return domain.CourseList{Courses: cached, FromCache: true}
}

func (s *Service) cachedCourseDetail(courseID string) domain.CourseDetail {
	course, ok := s.store.GetCourse(courseID)
	if !ok {
		return domain.CourseDetail{FromCache: true}
	}
	lessons, _ := s.store.ListLessonsByCourse(courseID)
	return domain.CourseDetail{
		Course:    &domain.CourseWithLessons{Course: course, Lessons: lessons},
		FromCache: true,
	}
}

// filterCourses applies the offline search predicate: case-insensitive
// substring on title/description plus exact category match.
func filterCourses(courses []domain.Course, query, category string) []domain.Course {
	q := strings.ToLower(query)
	var matched []domain.Course
	for _, c := range courses {
		matchesQuery := q == "" ||
			strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q)
		matchesCategory := category == "" || c.Category == category
		if matchesQuery && matchesCategory {
			matched = append(matched, c)
		}
	}
	return matched
}
