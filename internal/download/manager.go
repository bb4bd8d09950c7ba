package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/edubridge/edubridge/internal/domain"
)

const (
	filePrefix = "lesson_"
	fileExt    = ".mp4"
	partExt    = ".part"

	localRecordsFile = "downloads.json"

	copyChunkSize     = 256 * 1024
	pausePollInterval = 200 * time.Millisecond
	transferTimeout   = 0 // streaming transfers manage their own deadline via ctx
)

// Manager handles resumable lesson video downloads: streaming transfer
// with progress reporting, pause/resume, and bookkeeping of completed
// downloads (remote-backed when a user identity is resolved, a local
// JSON list otherwise).
//
// The in-memory progress map only tracks live and recently touched
// sessions; file existence on disk is the single source of truth for
// "is downloaded".
type Manager struct {
	dir        string
	remote     domain.DownloadRepository
	identity   domain.Identity
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.RWMutex
	downloads map[string]*domain.DownloadProgress
	callbacks map[string]domain.DownloadProgressFunc
}

// NewManager creates a download manager rooted at dir. remote may be nil
// for a purely anonymous setup.
func NewManager(dir string, remote domain.DownloadRepository, identity domain.Identity, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:        dir,
		remote:     remote,
		identity:   identity,
		httpClient: &http.Client{Timeout: transferTimeout},
		logger:     logger,
		downloads:  make(map[string]*domain.DownloadProgress),
		callbacks:  make(map[string]domain.DownloadProgressFunc),
	}
}

func (m *Manager) localPath(lessonID string) string {
	return filepath.Join(m.dir, filePrefix+lessonID+fileExt)
}

// DownloadLesson transfers a lesson video to local storage and returns the
// local file path. If the destination file already exists the call
// short-circuits to Completed without re-downloading. The transfer streams
// through a .part file that is renamed only on completion, so a failed
// transfer never leaves a file that IsDownloaded would report.
//
// This is the one operation that surfaces failure to the caller: the user
// asked for a specific outcome and is waiting on it.
func (m *Manager) DownloadLesson(ctx context.Context, lessonID, videoURL string, onProgress domain.DownloadProgressFunc) (string, error) {
	// Pending counts as in progress: the slot is claimed under the lock
	// before any network I/O, so a second call for the same lesson cannot
	// start a competing transfer onto the same .part file.
	m.mu.Lock()
	if existing, ok := m.downloads[lessonID]; ok &&
		(existing.Status == domain.DownloadPending ||
			existing.Status == domain.DownloadActive ||
			existing.Status == domain.DownloadPaused) {
		m.mu.Unlock()
		return "", fmt.Errorf("download already in progress for lesson %s", lessonID)
	}
	m.downloads[lessonID] = &domain.DownloadProgress{LessonID: lessonID, Status: domain.DownloadPending}
	if onProgress != nil {
		m.callbacks[lessonID] = onProgress
	}
	m.mu.Unlock()

	path, err := m.transfer(ctx, lessonID, videoURL)
	if err != nil {
		m.setError(lessonID, err)
		return "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	return path, nil
}

func (m *Manager) transfer(ctx context.Context, lessonID, videoURL string) (string, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create downloads directory: %w", err)
	}

	dest := m.localPath(lessonID)

	// Idempotent short-circuit: already downloaded.
	if info, err := os.Stat(dest); err == nil {
		m.update(lessonID, func(p *domain.DownloadProgress) {
			p.Status = domain.DownloadCompleted
			p.Progress = 100
			p.TotalBytes = info.Size()
			p.DownloadedBytes = info.Size()
			p.LocalPath = dest
		})
		m.logger.Debug("lesson already downloaded", "lessonID", lessonID, "path", dest)
		return dest, nil
	}

	partPath := dest + partExt
	var offset int64
	if info, err := os.Stat(partPath); err == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transfer failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the Range request; restart from zero.
		if offset > 0 {
			if err := os.Truncate(partPath, 0); err != nil {
				return "", fmt.Errorf("failed to reset partial file: %w", err)
			}
			offset = 0
		}
	case http.StatusPartialContent:
		// Resuming from offset.
	default:
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Without a Content-Length the total is unknown; TotalBytes stays 0
	// and Progress reports 0 until completion rather than a fake 100.
	var total int64
	if resp.ContentLength > 0 {
		total = offset + resp.ContentLength
	}

	m.update(lessonID, func(p *domain.DownloadProgress) {
		p.Status = domain.DownloadActive
		p.TotalBytes = total
		p.DownloadedBytes = offset
		p.Progress = percent(offset, total)
	})

	out, err := os.OpenFile(partPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open partial file: %w", err)
	}

	written := offset
	buf := make([]byte, copyChunkSize)
	for {
		if err := m.waitWhilePaused(ctx, lessonID); err != nil {
			out.Close()
			return "", err
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				return "", fmt.Errorf("failed to write chunk: %w", err)
			}
			written += int64(n)
			m.update(lessonID, func(p *domain.DownloadProgress) {
				p.DownloadedBytes = written
				if p.TotalBytes > 0 {
					if written > p.TotalBytes {
						p.TotalBytes = written
					}
					p.Progress = percent(written, p.TotalBytes)
				}
			})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			return "", fmt.Errorf("transfer interrupted: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}
	if err := os.Rename(partPath, dest); err != nil {
		return "", fmt.Errorf("failed to move completed file: %w", err)
	}

	m.update(lessonID, func(p *domain.DownloadProgress) {
		p.Status = domain.DownloadCompleted
		p.Progress = 100
		p.TotalBytes = written
		p.DownloadedBytes = written
		p.LocalPath = dest
	})

	m.saveRecord(ctx, domain.DownloadRecord{
		LessonID:      lessonID,
		LocalPath:     dest,
		FileSizeBytes: written,
	})

	m.logger.Info("lesson downloaded", "lessonID", lessonID, "bytes", written)
	return dest, nil
}

// waitWhilePaused blocks the transfer loop while the download is paused.
// Pause is an intent flag on the status field; the byte stream simply
// stops being drained until the status changes back.
func (m *Manager) waitWhilePaused(ctx context.Context, lessonID string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m.mu.RLock()
		p, ok := m.downloads[lessonID]
		paused := ok && p.Status == domain.DownloadPaused
		m.mu.RUnlock()

		if !paused {
			return nil
		}
		time.Sleep(pausePollInterval)
	}
}

// PauseDownload pauses an active download. No-op from any other state.
func (m *Manager) PauseDownload(lessonID string) {
	m.toggleStatus(lessonID, domain.DownloadActive, domain.DownloadPaused)
}

// ResumeDownload resumes a paused download. No-op from any other state.
func (m *Manager) ResumeDownload(lessonID string) {
	m.toggleStatus(lessonID, domain.DownloadPaused, domain.DownloadActive)
}

func (m *Manager) toggleStatus(lessonID string, from, to domain.DownloadStatus) {
	var snapshot *domain.DownloadProgress
	m.mu.Lock()
	if p, ok := m.downloads[lessonID]; ok && p.Status == from {
		p.Status = to
		cp := *p
		snapshot = &cp
	}
	m.mu.Unlock()
	if snapshot != nil {
		m.notify(lessonID, *snapshot)
	}
}

// DeleteDownload removes the local file (missing file counts as success),
// best-effort removes the remote bookkeeping row, and clears in-memory
// state for the lesson.
func (m *Manager) DeleteDownload(ctx context.Context, lessonID string) error {
	dest := m.localPath(lessonID)
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete download: %w", err)
	}
	if err := os.Remove(dest + partExt); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to delete partial file", "lessonID", lessonID, "error", err)
	}

	if userID, ok := m.identity.UserID(); ok && m.remote != nil {
		if err := m.remote.DeleteDownload(ctx, userID, lessonID); err != nil {
			m.logger.Warn("failed to delete remote download record", "lessonID", lessonID, "error", err)
		}
	} else {
		m.removeLocalRecord(lessonID)
	}

	m.mu.Lock()
	delete(m.downloads, lessonID)
	delete(m.callbacks, lessonID)
	m.mu.Unlock()

	m.logger.Info("deleted download", "lessonID", lessonID)
	return nil
}

// GetLocalPath returns the local file path iff the file exists on disk.
func (m *Manager) GetLocalPath(lessonID string) (string, bool) {
	dest := m.localPath(lessonID)
	if _, err := os.Stat(dest); err != nil {
		return "", false
	}
	return dest, true
}

// IsDownloaded reports whether the lesson's video file exists locally.
func (m *Manager) IsDownloaded(lessonID string) bool {
	_, ok := m.GetLocalPath(lessonID)
	return ok
}

// GetDownloadedLessons returns the lesson ids of all completed downloads,
// derived from the files present in the downloads directory.
func (m *Manager) GetDownloadedLessons() []string {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt))
	}
	return ids
}

// GetStorageUsed sums the sizes of all files in the downloads directory.
// A missing directory counts as zero; unreadable files are skipped.
func (m *Manager) GetStorageUsed() int64 {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0
	}

	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total
}

// GetProgress returns the live snapshot for a lesson's download session.
func (m *Manager) GetProgress(lessonID string) (domain.DownloadProgress, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.downloads[lessonID]
	if !ok {
		return domain.DownloadProgress{}, false
	}
	return *p, true
}

// --- Private helpers ---

// update applies a mutation under the lock and notifies the registered
// callback with a snapshot.
func (m *Manager) update(lessonID string, mutate func(*domain.DownloadProgress)) {
	m.mu.Lock()
	p, ok := m.downloads[lessonID]
	if !ok {
		p = &domain.DownloadProgress{LessonID: lessonID}
		m.downloads[lessonID] = p
	}
	mutate(p)
	snapshot := *p
	m.mu.Unlock()

	m.notify(lessonID, snapshot)
}

func (m *Manager) notify(lessonID string, snapshot domain.DownloadProgress) {
	m.mu.RLock()
	cb := m.callbacks[lessonID]
	m.mu.RUnlock()
	if cb != nil {
		cb(snapshot)
	}
}

func (m *Manager) setError(lessonID string, err error) {
	m.update(lessonID, func(p *domain.DownloadProgress) {
		p.Status = domain.DownloadError
		p.Error = err.Error()
	})
}

// saveRecord persists the bookkeeping row: remote when a user identity is
// resolved, otherwise appended to the local-only list. Failures are logged,
// not raised; the file on disk is already the source of truth.
func (m *Manager) saveRecord(ctx context.Context, rec domain.DownloadRecord) {
	if userID, ok := m.identity.UserID(); ok && m.remote != nil {
		if err := m.remote.UpsertDownload(ctx, userID, rec); err != nil {
			m.logger.Warn("failed to save remote download record", "lessonID", rec.LessonID, "error", err)
		}
		return
	}

	records := m.readLocalRecords()
	records = append(records, rec)
	m.writeLocalRecords(records)
}

func (m *Manager) removeLocalRecord(lessonID string) {
	records := m.readLocalRecords()
	kept := records[:0]
	for _, rec := range records {
		if rec.LessonID != lessonID {
			kept = append(kept, rec)
		}
	}
	m.writeLocalRecords(kept)
}

func (m *Manager) readLocalRecords() []domain.DownloadRecord {
	data, err := os.ReadFile(filepath.Join(m.dir, localRecordsFile))
	if err != nil {
		return nil
	}
	var records []domain.DownloadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

func (m *Manager) writeLocalRecords(records []domain.DownloadRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		m.logger.Error("failed to encode local download records", "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(m.dir, localRecordsFile), data, 0644); err != nil {
		m.logger.Warn("failed to write local download records", "error", err)
	}
}

func percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
