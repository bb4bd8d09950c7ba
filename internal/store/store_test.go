package store

import (
	"testing"
	"time"

	"github.com/edubridge/edubridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *CacheStore {
	t.Helper()
	s, err := NewCacheStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func course(id string, createdAt time.Time) domain.Course {
	return domain.Course{
		ID:              id,
		Title:           "Course " + id,
		Category:        "math",
		DifficultyLevel: domain.DifficultyBeginner,
		IsPublished:     true,
		CreatedAt:       createdAt,
	}
}

func TestCourseRoundTrip(t *testing.T) {
	s := newTestStore(t)

	c := course("c1", time.Now())
	require.NoError(t, s.PutCourse(c))

	got, ok := s.GetCourse("c1")
	require.True(t, ok)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Title, got.Title)

	_, ok = s.GetCourse("missing")
	assert.False(t, ok)
}

func TestListCoursesNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	require.NoError(t, s.PutCourses([]domain.Course{
		course("old", base.Add(-2*time.Hour)),
		course("new", base),
		course("mid", base.Add(-time.Hour)),
	}))

	got, ok := s.ListCourses()
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}

func TestPutCoursesStampsRefreshTime(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.LastCourseRefresh()
	assert.False(t, ok)

	require.NoError(t, s.PutCourses([]domain.Course{course("c1", time.Now())}))

	ts, ok := s.LastCourseRefresh()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)
}

func TestLessonsOrderedByIndex(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutLessons([]domain.Lesson{
		{ID: "l3", CourseID: "c1", OrderIndex: 3},
		{ID: "l1", CourseID: "c1", OrderIndex: 1},
		{ID: "l2", CourseID: "c1", OrderIndex: 2},
		{ID: "other", CourseID: "c2", OrderIndex: 1},
	}))

	lessons, ok := s.ListLessonsByCourse("c1")
	require.True(t, ok)
	require.Len(t, lessons, 3)
	assert.Equal(t, "l1", lessons[0].ID)
	assert.Equal(t, "l2", lessons[1].ID)
	assert.Equal(t, "l3", lessons[2].ID)

	_, ok = s.ListLessonsByCourse("unknown")
	assert.False(t, ok)
}

func TestProgressIndexes(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	require.NoError(t, s.PutProgress(domain.LessonProgress{
		LessonID: "l1", CourseID: "c1", ProgressPercentage: 50, LastUpdated: now,
	}))
	require.NoError(t, s.PutProgress(domain.LessonProgress{
		LessonID: "l2", CourseID: "c1", Completed: true, ProgressPercentage: 100,
		LastUpdated: now, Synced: true,
	}))
	require.NoError(t, s.PutProgress(domain.LessonProgress{
		LessonID: "l3", CourseID: "c2", ProgressPercentage: 10, LastUpdated: now,
	}))

	byCourse, ok := s.ListProgressByCourse("c1")
	require.True(t, ok)
	assert.Len(t, byCourse, 2)

	unsynced, ok := s.ListUnsyncedProgress()
	require.True(t, ok)
	require.Len(t, unsynced, 2)
	for _, p := range unsynced {
		assert.False(t, p.Synced)
	}

	all, ok := s.ListAllProgress()
	require.True(t, ok)
	assert.Len(t, all, 3)
}

func TestMarkSyncedKeepsOtherFields(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.PutProgress(domain.LessonProgress{
		LessonID: "l1", CourseID: "c1", ProgressPercentage: 50,
		TimeSpentMinutes: 12, LastUpdated: now,
	}))

	require.NoError(t, s.MarkSynced("l1"))

	p, ok := s.GetProgress("l1")
	require.True(t, ok)
	assert.True(t, p.Synced)
	assert.Equal(t, 50, p.ProgressPercentage)
	assert.Equal(t, 12, p.TimeSpentMinutes)
	assert.True(t, p.LastUpdated.Equal(now))

	assert.Error(t, s.MarkSynced("missing"))
}

func TestWipe(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutCourses([]domain.Course{course("c1", time.Now())}))
	require.NoError(t, s.PutLesson(domain.Lesson{ID: "l1", CourseID: "c1"}))
	require.NoError(t, s.PutProgress(domain.LessonProgress{LessonID: "l1", CourseID: "c1"}))

	require.NoError(t, s.Wipe())

	_, ok := s.GetCourse("c1")
	assert.False(t, ok)
	_, ok = s.GetLesson("l1")
	assert.False(t, ok)
	_, ok = s.GetProgress("l1")
	assert.False(t, ok)
	_, ok = s.LastCourseRefresh()
	assert.False(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCacheStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.PutCourse(course("c1", time.Now())))
	require.NoError(t, s.Close())

	reopened, err := NewCacheStore(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.GetCourse("c1")
	require.True(t, ok)
	assert.Equal(t, "Course c1", got.Title)
}

func TestMemoryOnlyMode(t *testing.T) {
	s, err := NewCacheStore("", nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutCourses([]domain.Course{
		course("c1", time.Now()),
		course("c2", time.Now().Add(-time.Hour)),
	}))
	require.NoError(t, s.PutLesson(domain.Lesson{ID: "l1", CourseID: "c1", OrderIndex: 1}))

	courses, ok := s.ListCourses()
	require.True(t, ok)
	assert.Len(t, courses, 2)
	assert.Equal(t, "c1", courses[0].ID)

	lessons, ok := s.ListLessonsByCourse("c1")
	require.True(t, ok)
	assert.Len(t, lessons, 1)
}
