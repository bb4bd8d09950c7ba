package backend

import "time"

// Wire representations of API payloads. Kept separate from domain types so
// schema drift on the backend stays contained to the mapper.

type courseDTO struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	Category        string    `json:"category"`
	DifficultyLevel string    `json:"difficulty_level"`
	EstimatedHours  float64   `json:"estimated_hours"`
	CreatorID       string    `json:"creator_id"`
	IsPublished     bool      `json:"is_published"`
	Languages       []string  `json:"languages"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type lessonDTO struct {
	ID                 string    `json:"id"`
	CourseID           string    `json:"course_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Content            string    `json:"content"`
	VideoURL           string    `json:"video_url"`
	VideoSizeMB        float64   `json:"video_size_mb"`
	CompressedVideoURL string    `json:"compressed_video_url"`
	OrderIndex         int       `json:"order_index"`
	DurationMinutes    int       `json:"duration_minutes"`
	IsFree             bool      `json:"is_free"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// progressDTO is a remote progress row. The backend keys rows by
// (user, lesson) and does not store a course id.
type progressDTO struct {
	LessonID            string    `json:"lesson_id"`
	Completed           bool      `json:"completed"`
	ProgressPercentage  int       `json:"progress_percentage"`
	TimeSpentMinutes    int       `json:"time_spent_minutes"`
	LastPositionSeconds int       `json:"last_position_seconds"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// progressUpsertDTO is the push payload; the backend assigns updated_at.
type progressUpsertDTO struct {
	Completed           bool `json:"completed"`
	ProgressPercentage  int  `json:"progress_percentage"`
	TimeSpentMinutes    int  `json:"time_spent_minutes"`
	LastPositionSeconds int  `json:"last_position_seconds,omitempty"`
}

type downloadDTO struct {
	LessonID      string `json:"lesson_id"`
	LocalPath     string `json:"local_path"`
	FileSizeBytes int64  `json:"file_size_bytes"`
	Completed     bool   `json:"download_completed"`
}
