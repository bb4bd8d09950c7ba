package domain

import "time"

// Difficulty is the course difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Course represents a published (or draft) course in the catalog
type Course struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	ThumbnailURL    string     `json:"thumbnail_url,omitempty"`
	Category        string     `json:"category"`
	DifficultyLevel Difficulty `json:"difficulty_level"`
	EstimatedHours  float64    `json:"estimated_hours,omitempty"`
	CreatorID       string     `json:"creator_id"`
	IsPublished     bool       `json:"is_published"`
	Languages       []string   `json:"languages,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Lesson represents a single lesson within a course
type Lesson struct {
	ID                 string    `json:"id"`
	CourseID           string    `json:"course_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Content            string    `json:"content,omitempty"` // Opaque serialized lesson body
	VideoURL           string    `json:"video_url,omitempty"`
	VideoSizeMB        float64   `json:"video_size_mb,omitempty"`
	CompressedVideoURL string    `json:"compressed_video_url,omitempty"`
	OrderIndex         int       `json:"order_index"`
	DurationMinutes    int       `json:"duration_minutes,omitempty"`
	IsFree             bool      `json:"is_free"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CourseWithLessons is the composed detail view of a course,
// with lessons ordered by OrderIndex ascending.
type CourseWithLessons struct {
	Course
	Lessons []Lesson `json:"lessons"`
}
