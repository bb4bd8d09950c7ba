package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edubridge/edubridge/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCourses  = []byte("courses")
	bucketLessons  = []byte("lessons")
	bucketProgress = []byte("progress")
	bucketMeta     = []byte("meta")
)

const keyCoursesRefreshedAt = "courses:refreshed_at"

// cachedRow wraps an entity payload with the time it was cached.
type cachedRow struct {
	CachedAt time.Time       `json:"cached_at"`
	Data     json.RawMessage `json:"data"`
}

// CacheStore implements domain.Store using BoltDB.
// Storage errors are logged and degrade to cache misses; the store never
// fails a read because the underlying file is unavailable.
type CacheStore struct {
	db     *bolt.DB
	logger *slog.Logger

	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access).
	// Sole backing storage in memory-only mode.
	cache map[string][]byte
}

// NewCacheStore opens (or creates) the cache database under dir.
// Opening is idempotent: buckets are created if absent. An empty dir
// selects memory-only mode (no persistence), used by tests and as the
// degraded mode when the filesystem is unavailable.
func NewCacheStore(dir string, logger *slog.Logger) (*CacheStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return &CacheStore{cache: make(map[string][]byte), logger: logger}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "edubridge.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCourses, bucketLessons, bucketProgress, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CacheStore{db: db, cache: make(map[string][]byte), logger: logger}, nil
}

func (s *CacheStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CacheStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return unwrapRow(data, dest)
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return unwrapRow(data, dest)
}

func (s *CacheStore) set(bucket []byte, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	data, err := json.Marshal(cachedRow{CachedAt: time.Now(), Data: payload})
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

// listRows returns the raw envelope bytes of every row in a bucket.
func (s *CacheStore) listRows(bucket []byte) [][]byte {
	if s.db == nil {
		prefix := string(bucket) + ":"
		s.mu.RLock()
		defer s.mu.RUnlock()
		var rows [][]byte
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				rows = append(rows, v)
			}
		}
		return rows
	}

	var rows [][]byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			data := make([]byte, len(v))
			copy(data, v)
			rows = append(rows, data)
			return nil
		})
	})
	return rows
}

func unwrapRow(data []byte, dest interface{}) bool {
	var row cachedRow
	if err := json.Unmarshal(data, &row); err != nil {
		return false
	}
	return json.Unmarshal(row.Data, dest) == nil
}

// === Courses ===

func (s *CacheStore) PutCourse(c domain.Course) error {
	return s.set(bucketCourses, c.ID, c)
}

// PutCourses replaces the matching course rows and stamps the refresh time
// used for freshness checks.
func (s *CacheStore) PutCourses(courses []domain.Course) error {
	for _, c := range courses {
		if err := s.set(bucketCourses, c.ID, c); err != nil {
			return err
		}
	}
	return s.set(bucketMeta, keyCoursesRefreshedAt, time.Now().Unix())
}

func (s *CacheStore) GetCourse(courseID string) (domain.Course, bool) {
	var c domain.Course
	ok := s.get(bucketCourses, courseID, &c)
	return c, ok
}

func (s *CacheStore) ListCourses() ([]domain.Course, bool) {
	var courses []domain.Course
	for _, data := range s.listRows(bucketCourses) {
		var c domain.Course
		if unwrapRow(data, &c) {
			courses = append(courses, c)
		}
	}
	if courses == nil {
		return nil, false
	}
	// Newest first, matching the remote ordering
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	return courses, true
}

// LastCourseRefresh reports when the course list was last replaced from
// a successful remote fetch.
func (s *CacheStore) LastCourseRefresh() (time.Time, bool) {
	var ts int64
	if !s.get(bucketMeta, keyCoursesRefreshedAt, &ts) || ts == 0 {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

// === Lessons ===

func (s *CacheStore) PutLesson(l domain.Lesson) error {
	return s.set(bucketLessons, l.ID, l)
}

func (s *CacheStore) PutLessons(lessons []domain.Lesson) error {
	for _, l := range lessons {
		if err := s.set(bucketLessons, l.ID, l); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheStore) GetLesson(lessonID string) (domain.Lesson, bool) {
	var l domain.Lesson
	ok := s.get(bucketLessons, lessonID, &l)
	return l, ok
}

func (s *CacheStore) ListLessonsByCourse(courseID string) ([]domain.Lesson, bool) {
	var lessons []domain.Lesson
	for _, data := range s.listRows(bucketLessons) {
		var l domain.Lesson
		if unwrapRow(data, &l) && l.CourseID == courseID {
			lessons = append(lessons, l)
		}
	}
	if lessons == nil {
		return nil, false
	}
	sort.Slice(lessons, func(i, j int) bool {
		return lessons[i].OrderIndex < lessons[j].OrderIndex
	})
	return lessons, true
}

// === Progress ===

func (s *CacheStore) PutProgress(p domain.LessonProgress) error {
	return s.set(bucketProgress, p.LessonID, p)
}

func (s *CacheStore) GetProgress(lessonID string) (domain.LessonProgress, bool) {
	var p domain.LessonProgress
	ok := s.get(bucketProgress, lessonID, &p)
	return p, ok
}

func (s *CacheStore) ListProgressByCourse(courseID string) ([]domain.LessonProgress, bool) {
	return s.listProgress(func(p domain.LessonProgress) bool { return p.CourseID == courseID })
}

func (s *CacheStore) ListAllProgress() ([]domain.LessonProgress, bool) {
	return s.listProgress(func(domain.LessonProgress) bool { return true })
}

func (s *CacheStore) ListUnsyncedProgress() ([]domain.LessonProgress, bool) {
	return s.listProgress(func(p domain.LessonProgress) bool { return !p.Synced })
}

func (s *CacheStore) listProgress(match func(domain.LessonProgress) bool) ([]domain.LessonProgress, bool) {
	var rows []domain.LessonProgress
	for _, data := range s.listRows(bucketProgress) {
		var p domain.LessonProgress
		if unwrapRow(data, &p) && match(p) {
			rows = append(rows, p)
		}
	}
	if rows == nil {
		return nil, false
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LessonID < rows[j].LessonID
	})
	return rows, true
}

// MarkSynced flips the synced flag on an existing progress row without
// touching any other field.
func (s *CacheStore) MarkSynced(lessonID string) error {
	p, ok := s.GetProgress(lessonID)
	if !ok {
		return fmt.Errorf("no progress row for lesson %s", lessonID)
	}
	p.Synced = true
	return s.set(bucketProgress, lessonID, p)
}

// === Wipe (sign-out) ===

func (s *CacheStore) Wipe() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCourses, bucketLessons, bucketProgress, bucketMeta} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
