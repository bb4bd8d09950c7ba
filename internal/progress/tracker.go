package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/edubridge/edubridge/internal/domain"
)

// Tracker owns lesson progress state: local-first writes, bidirectional
// sync with the backend, and derived per-course aggregates.
//
// Writes for one lesson id are serialized by a per-id mutex so concurrent
// updates cannot interleave their read-merge-write sequence.
type Tracker struct {
	remote   domain.ProgressRepository
	identity domain.Identity
	store    domain.Store
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a new progress tracker.
func NewTracker(remote domain.ProgressRepository, identity domain.Identity, store domain.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		remote:   remote,
		identity: identity,
		store:    store,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) lessonLock(lessonID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[lessonID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[lessonID] = l
	}
	return l
}

// UpdateLessonProgress merges a partial update over the existing row (or
// zero defaults), stamps a strictly increasing LastUpdated, writes the row
// with synced=false, then attempts an immediate push. A failed push is not
// an error: the local write already succeeded and the row stays queued for
// a later sync.
func (t *Tracker) UpdateLessonProgress(ctx context.Context, lessonID, courseID string, upd domain.ProgressUpdate) error {
	lock := t.lessonLock(lessonID)
	lock.Lock()
	defer lock.Unlock()

	existing, ok := t.store.GetProgress(lessonID)
	if !ok {
		existing = domain.LessonProgress{LessonID: lessonID, CourseID: courseID}
	}

	merged := existing
	merged.CourseID = courseID
	if upd.Completed != nil {
		merged.Completed = *upd.Completed
	}
	if upd.ProgressPercentage != nil {
		merged.ProgressPercentage = *upd.ProgressPercentage
	}
	if upd.TimeSpentMinutes != nil {
		merged.TimeSpentMinutes = *upd.TimeSpentMinutes
	}
	if upd.LastPositionSeconds != nil {
		merged.LastPositionSeconds = *upd.LastPositionSeconds
	}

	// LastUpdated must strictly increase even when the wall clock has not
	// advanced between two updates.
	stamp := t.now()
	if ok && !stamp.After(existing.LastUpdated) {
		stamp = existing.LastUpdated.Add(time.Millisecond)
	}
	merged.LastUpdated = stamp
	merged.Synced = false

	if err := t.store.PutProgress(merged); err != nil {
		return fmt.Errorf("failed to save progress for lesson %s: %w", lessonID, err)
	}

	t.pushRow(ctx, merged)
	return nil
}

// GetLessonProgress returns the local row for a lesson, nil when none.
func (t *Tracker) GetLessonProgress(lessonID string) *domain.LessonProgress {
	p, ok := t.store.GetProgress(lessonID)
	if !ok {
		return nil
	}
	return &p
}

// === Sync protocol ===

// pushRow upserts one row remotely and marks it synced on success.
// Without a resolved identity this is a silent no-op (local-only mode).
func (t *Tracker) pushRow(ctx context.Context, p domain.LessonProgress) {
	userID, ok := t.identity.UserID()
	if !ok {
		return
	}

	if err := t.remote.UpsertProgress(ctx, userID, p); err != nil {
		t.logger.Warn("progress push failed, will retry on next sync",
			"lessonID", p.LessonID, "error", err)
		return
	}

	if err := t.store.MarkSynced(p.LessonID); err != nil {
		t.logger.Error("failed to mark progress synced", "lessonID", p.LessonID, "error", err)
	}
}

// SyncAllToCloud pushes every unsynced row. Failures leave rows unsynced
// for the next attempt; nothing is surfaced past logging.
func (t *Tracker) SyncAllToCloud(ctx context.Context) {
	if _, ok := t.identity.UserID(); !ok {
		return
	}

	unsynced, ok := t.store.ListUnsyncedProgress()
	if !ok {
		return
	}

	t.logger.Debug("pushing unsynced progress", "count", len(unsynced))
	for _, p := range unsynced {
		lock := t.lessonLock(p.LessonID)
		lock.Lock()
		// Re-read: the row may have changed since the listing.
		if current, ok := t.store.GetProgress(p.LessonID); ok && !current.Synced {
			t.pushRow(ctx, current)
		}
		lock.Unlock()
	}
}

// PullFromCloud fetches all remote rows for the current user and merges
// them with the local state under the ResolveConflict policy: a remote row
// replaces the local one unless the local row is strictly newer. Pulled
// rows are stored synced=true since they already match the backend.
//
// The pull payload carries no course id; the merge keeps the course id of
// the local row it replaces and leaves it empty for rows that exist only
// remotely, to be backfilled by the next local update.
func (t *Tracker) PullFromCloud(ctx context.Context) {
	userID, ok := t.identity.UserID()
	if !ok {
		return
	}

	remote, err := t.remote.ListProgress(ctx, userID)
	if err != nil {
		t.logger.Warn("progress pull failed", "error", err)
		return
	}

	for _, r := range remote {
		lock := t.lessonLock(r.LessonID)
		lock.Lock()

		incoming := domain.LessonProgress{
			LessonID:            r.LessonID,
			Completed:           r.Completed,
			ProgressPercentage:  r.ProgressPercentage,
			TimeSpentMinutes:    r.TimeSpentMinutes,
			LastPositionSeconds: r.LastPositionSeconds,
			LastUpdated:         time.Unix(r.UpdatedAt, 0),
			Synced:              true,
		}

		var localPtr *domain.LessonProgress
		if local, ok := t.store.GetProgress(r.LessonID); ok {
			localPtr = &local
			incoming.CourseID = local.CourseID
		}

		if domain.ResolveConflict(localPtr, &incoming) == domain.WinnerRemote {
			if err := t.store.PutProgress(incoming); err != nil {
				t.logger.Error("failed to store pulled progress", "lessonID", r.LessonID, "error", err)
			}
		}

		lock.Unlock()
	}
	t.logger.Debug("pulled remote progress", "count", len(remote))
}

// === Aggregation ===

// GetCourseProgress derives the aggregate for one course, nil when the
// course has no progress rows.
func (t *Tracker) GetCourseProgress(courseID string) *domain.CourseProgress {
	rows, ok := t.store.ListProgressByCourse(courseID)
	if !ok || len(rows) == 0 {
		return nil
	}
	agg := aggregate(courseID, rows)
	return &agg
}

// GetInProgressCourses returns aggregates for every course with at least
// one but not all lessons completed.
func (t *Tracker) GetInProgressCourses() []domain.CourseProgress {
	rows, ok := t.store.ListAllProgress()
	if !ok {
		return nil
	}

	byCourse := groupByCourse(rows)
	var result []domain.CourseProgress
	for courseID, courseRows := range byCourse {
		agg := aggregate(courseID, courseRows)
		if agg.CompletedLessons > 0 && agg.CompletedLessons < agg.TotalLessons {
			result = append(result, agg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseID < result[j].CourseID })
	return result
}

// GetUserStats summarizes activity across all courses.
func (t *Tracker) GetUserStats() domain.UserStats {
	rows, ok := t.store.ListAllProgress()
	if !ok {
		return domain.UserStats{}
	}

	var stats domain.UserStats
	totalMinutes := 0
	for _, p := range rows {
		totalMinutes += p.TimeSpentMinutes
		if p.Completed {
			stats.LessonsCompleted++
		}
	}
	stats.HoursLearned = int(math.Round(float64(totalMinutes) / 60))

	for _, courseRows := range groupByCourse(rows) {
		stats.CoursesStarted++
		completed := 0
		for _, p := range courseRows {
			if p.Completed {
				completed++
			}
		}
		if completed == len(courseRows) {
			stats.CoursesCompleted++
		}
	}
	return stats
}

// --- Private helpers ---

func groupByCourse(rows []domain.LessonProgress) map[string][]domain.LessonProgress {
	byCourse := make(map[string][]domain.LessonProgress)
	for _, p := range rows {
		byCourse[p.CourseID] = append(byCourse[p.CourseID], p)
	}
	return byCourse
}

func aggregate(courseID string, rows []domain.LessonProgress) domain.CourseProgress {
	agg := domain.CourseProgress{CourseID: courseID, TotalLessons: len(rows)}
	sum := 0
	for _, p := range rows {
		if p.Completed {
			agg.CompletedLessons++
		}
		sum += p.ProgressPercentage
		agg.TotalTimeSpent += p.TimeSpentMinutes
	}
	agg.ProgressPercentage = int(math.Round(float64(sum) / float64(len(rows))))
	return agg
}
