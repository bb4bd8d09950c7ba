package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/edubridge/edubridge/internal/domain"
	"github.com/edubridge/edubridge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory domain.CourseRepository with switchable
// connectivity.
type fakeRepo struct {
	courses     []domain.Course
	lessons     map[string][]domain.Lesson
	offline     bool
	lessonsFail bool
	calls       int
}

func (f *fakeRepo) GetCourses(ctx context.Context) ([]domain.Course, error) {
	f.calls++
	if f.offline {
		return nil, domain.ErrBackendUnavailable
	}
	var published []domain.Course
	for _, c := range f.courses {
		if c.IsPublished {
			published = append(published, c)
		}
	}
	return published, nil
}

func (f *fakeRepo) GetCourse(ctx context.Context, courseID string) (*domain.Course, error) {
	f.calls++
	if f.offline {
		return nil, domain.ErrBackendUnavailable
	}
	for _, c := range f.courses {
		if c.ID == courseID {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) GetCourseLessons(ctx context.Context, courseID string) ([]domain.Lesson, error) {
	f.calls++
	if f.offline || f.lessonsFail {
		return nil, domain.ErrBackendUnavailable
	}
	return f.lessons[courseID], nil
}

func (f *fakeRepo) GetLesson(ctx context.Context, lessonID string) (*domain.Lesson, error) {
	f.calls++
	if f.offline {
		return nil, domain.ErrBackendUnavailable
	}
	for _, lessons := range f.lessons {
		for _, l := range lessons {
			if l.ID == lessonID {
				return &l, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) SearchCourses(ctx context.Context, query, category string) ([]domain.Course, error) {
	f.calls++
	if f.offline {
		return nil, domain.ErrBackendUnavailable
	}
	var matched []domain.Course
	for _, c := range f.courses {
		if !c.IsPublished {
			continue
		}
		q := strings.ToLower(query)
		matchesQuery := q == "" || strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q)
		if matchesQuery && (category == "" || c.Category == category) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (f *fakeRepo) GetCoursesByDifficulty(ctx context.Context, level domain.Difficulty) ([]domain.Course, error) {
	f.calls++
	if f.offline {
		return nil, domain.ErrBackendUnavailable
	}
	var matched []domain.Course
	for _, c := range f.courses {
		if c.IsPublished && c.DifficultyLevel == level {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func newTestService(t *testing.T, repo *fakeRepo) (*Service, domain.Store) {
	t.Helper()
	st, err := store.NewCacheStore("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(repo, st, nil), st
}

func testCourses() []domain.Course {
	return []domain.Course{
		{
			ID: "c1", Title: "Python Basics", Description: "Learn Python from scratch",
			Category: "programming", DifficultyLevel: domain.DifficultyBeginner,
			IsPublished: true, CreatedAt: time.Now(),
		},
		{
			ID: "c2", Title: "Algebra I", Description: "Equations and functions",
			Category: "math", DifficultyLevel: domain.DifficultyIntermediate,
			IsPublished: true, CreatedAt: time.Now().Add(-time.Hour),
		},
	}
}

func TestGetCoursesRefreshesCache(t *testing.T) {
	repo := &fakeRepo{courses: testCourses()}
	svc, st := newTestService(t, repo)

	list := svc.GetCourses(context.Background(), true)
	assert.False(t, list.FromCache)
	assert.Len(t, list.Courses, 2)

	cached, ok := st.ListCourses()
	require.True(t, ok)
	assert.Len(t, cached, 2)
}

func TestGetCoursesServesFreshCacheWithoutNetwork(t *testing.T) {
	repo := &fakeRepo{courses: testCourses()}
	svc, _ := newTestService(t, repo)

	svc.GetCourses(context.Background(), true)
	callsAfterRefresh := repo.calls

	list := svc.GetCourses(context.Background(), false)
	assert.True(t, list.FromCache)
	assert.Equal(t, callsAfterRefresh, repo.calls, "fresh cache should not hit the network")

	list = svc.GetCourses(context.Background(), true)
	assert.False(t, list.FromCache)
	assert.Equal(t, callsAfterRefresh+1, repo.calls)
}

func TestGetCoursesOfflineFallsBackToCache(t *testing.T) {
	repo := &fakeRepo{courses: testCourses()}
	svc, _ := newTestService(t, repo)

	svc.GetCourses(context.Background(), true)

	repo.offline = true
	list := svc.GetCourses(context.Background(), true)
	assert.True(t, list.FromCache)
	assert.Len(t, list.Courses, 2)
}

func TestGetCoursesOfflineNoCacheReturnsEmpty(t *testing.T) {
	repo := &fakeRepo{offline: true}
	svc, _ := newTestService(t, repo)

	list := svc.GetCourses(context.Background(), true)
	assert.True(t, list.FromCache)
	assert.Empty(t, list.Courses)
}

func TestGetCourseCachesBothOnSuccess(t *testing.T) {
	repo := &fakeRepo{
		courses: testCourses(),
		lessons: map[string][]domain.Lesson{
			"c1": {
				{ID: "l1", CourseID: "c1", Title: "Intro", OrderIndex: 1},
				{ID: "l2", CourseID: "c1", Title: "Variables", OrderIndex: 2},
			},
		},
	}
	svc, st := newTestService(t, repo)

	detail := svc.GetCourse(context.Background(), "c1")
	require.NotNil(t, detail.Course)
	assert.False(t, detail.FromCache)
	assert.Len(t, detail.Course.Lessons, 2)

	_, ok := st.GetCourse("c1")
	assert.True(t, ok)
	lessons, ok := st.ListLessonsByCourse("c1")
	require.True(t, ok)
	assert.Len(t, lessons, 2)
}

func TestGetCoursePartialFailureServesCache(t *testing.T) {
	repo := &fakeRepo{
		courses: testCourses(),
		lessons: map[string][]domain.Lesson{
			"c1": {{ID: "l1", CourseID: "c1", OrderIndex: 1}},
		},
	}
	svc, st := newTestService(t, repo)

	// Warm the cache, then make only the lessons fetch fail.
	svc.GetCourse(context.Background(), "c1")
	repo.lessonsFail = true

	detail := svc.GetCourse(context.Background(), "c1")
	require.NotNil(t, detail.Course)
	assert.True(t, detail.FromCache)
	assert.Len(t, detail.Course.Lessons, 1)

	// The cache must not have been touched by the failed round.
	lessons, ok := st.ListLessonsByCourse("c1")
	require.True(t, ok)
	assert.Len(t, lessons, 1)
}

func TestGetCourseMissingEverywhereReturnsNil(t *testing.T) {
	repo := &fakeRepo{offline: true}
	svc, _ := newTestService(t, repo)

	detail := svc.GetCourse(context.Background(), "missing-id")
	assert.Nil(t, detail.Course)
	assert.True(t, detail.FromCache)
}

func TestGetLessonOfflineFallback(t *testing.T) {
	repo := &fakeRepo{
		courses: testCourses(),
		lessons: map[string][]domain.Lesson{
			"c1": {{ID: "l1", CourseID: "c1", Title: "Intro", OrderIndex: 1}},
		},
	}
	svc, _ := newTestService(t, repo)

	svc.GetLesson(context.Background(), "l1")

	repo.offline = true
	detail := svc.GetLesson(context.Background(), "l1")
	require.NotNil(t, detail.Lesson)
	assert.True(t, detail.FromCache)
	assert.Equal(t, "Intro", detail.Lesson.Title)

	missing := svc.GetLesson(context.Background(), "nope")
	assert.Nil(t, missing.Lesson)
}

func TestSearchCoursesOfflinePredicate(t *testing.T) {
	repo := &fakeRepo{courses: testCourses()}
	svc, _ := newTestService(t, repo)

	svc.GetCourses(context.Background(), true)
	repo.offline = true

	list := svc.SearchCourses(context.Background(), "python", "")
	assert.True(t, list.FromCache)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "c1", list.Courses[0].ID)

	// Description matches too
	list = svc.SearchCourses(context.Background(), "equations", "")
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "c2", list.Courses[0].ID)

	// Category must match exactly
	list = svc.SearchCourses(context.Background(), "", "math")
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "c2", list.Courses[0].ID)

	list = svc.SearchCourses(context.Background(), "python", "math")
	assert.Empty(t, list.Courses)
}

func TestGetCoursesByDifficultyOfflineFallback(t *testing.T) {
	repo := &fakeRepo{courses: testCourses()}
	svc, _ := newTestService(t, repo)

	svc.GetCourses(context.Background(), true)
	repo.offline = true

	list := svc.GetCoursesByDifficulty(context.Background(), domain.DifficultyIntermediate)
	assert.True(t, list.FromCache)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "c2", list.Courses[0].ID)
}

func TestSearchCoursesRanked(t *testing.T) {
	repo := &fakeRepo{courses: testCourses()}
	svc, _ := newTestService(t, repo)

	svc.GetCourses(context.Background(), true)

	results := svc.SearchCoursesRanked("pyton")
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].ID)

	assert.Nil(t, svc.SearchCoursesRanked(""))
}

func TestClearCache(t *testing.T) {
	repo := &fakeRepo{courses: testCourses()}
	svc, st := newTestService(t, repo)

	svc.GetCourses(context.Background(), true)
	require.NoError(t, svc.ClearCache())

	_, ok := st.ListCourses()
	assert.False(t, ok)
}
