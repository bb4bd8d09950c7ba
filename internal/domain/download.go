package domain

// DownloadStatus is the lifecycle state of a lesson video download.
type DownloadStatus int

const (
	DownloadPending DownloadStatus = iota
	DownloadActive
	DownloadPaused
	DownloadCompleted
	DownloadError
)

// String returns a human-readable representation of the download status
func (s DownloadStatus) String() string {
	switch s {
	case DownloadPending:
		return "pending"
	case DownloadActive:
		return "downloading"
	case DownloadPaused:
		return "paused"
	case DownloadCompleted:
		return "completed"
	case DownloadError:
		return "error"
	default:
		return "unknown"
	}
}

// DownloadProgress is the live, in-memory snapshot of one download.
// It is not persisted; completed downloads are re-derived from the
// filesystem after a restart.
type DownloadProgress struct {
	LessonID        string
	TotalBytes      int64
	DownloadedBytes int64
	Progress        float64 // 0..100
	Status          DownloadStatus
	LocalPath       string
	Error           string
}

// DownloadProgressFunc receives progress snapshots during a transfer:
// zero or more intermediate events followed by exactly one terminal
// event (Completed or Error).
type DownloadProgressFunc func(p DownloadProgress)

// DownloadRecord is the persisted bookkeeping row for a completed download.
type DownloadRecord struct {
	LessonID      string `json:"lesson_id"`
	LocalPath     string `json:"local_path"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}
