package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/edubridge/edubridge/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "EduBridge/1.0"
)

// Client implements domain.CourseRepository, domain.ProgressRepository and
// domain.DownloadRepository against the hosted EduBridge API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated HTTP request. Transport failures map
// to domain.ErrBackendUnavailable so callers can branch to the local cache.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "error", err)
		return nil, domain.ErrBackendUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrAuthRequired
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode >= 300:
		c.logger.Error("backend request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// === domain.CourseRepository ===

// GetCourses returns published courses ordered by creation time descending
func (c *Client) GetCourses(ctx context.Context) ([]domain.Course, error) {
	query := url.Values{}
	query.Set("published", "true")
	query.Set("order", "created_desc")

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v1/courses", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []courseDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse courses: %w", err)
	}
	return mapCourses(dtos), nil
}

func (c *Client) GetCourse(ctx context.Context, courseID string) (*domain.Course, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v1/courses/"+url.PathEscape(courseID), nil, nil)
	if err != nil {
		return nil, err
	}

	var dto courseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse course: %w", err)
	}
	course := mapCourse(dto)
	return &course, nil
}

// GetCourseLessons returns lessons ordered by order index ascending
func (c *Client) GetCourseLessons(ctx context.Context, courseID string) ([]domain.Lesson, error) {
	query := url.Values{}
	query.Set("order", "index_asc")

	path := fmt.Sprintf("/api/v1/courses/%s/lessons", url.PathEscape(courseID))
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []lessonDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse lessons: %w", err)
	}
	return mapLessons(dtos), nil
}

func (c *Client) GetLesson(ctx context.Context, lessonID string) (*domain.Lesson, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v1/lessons/"+url.PathEscape(lessonID), nil, nil)
	if err != nil {
		return nil, err
	}

	var dto lessonDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse lesson: %w", err)
	}
	lesson := mapLesson(dto)
	return &lesson, nil
}

// SearchCourses pushes the substring/category predicate to the backend
// query layer.
func (c *Client) SearchCourses(ctx context.Context, searchQuery, category string) ([]domain.Course, error) {
	query := url.Values{}
	query.Set("published", "true")
	query.Set("order", "created_desc")
	if searchQuery != "" {
		query.Set("q", searchQuery)
	}
	if category != "" {
		query.Set("category", category)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v1/courses", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []courseDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse courses: %w", err)
	}
	return mapCourses(dtos), nil
}

func (c *Client) GetCoursesByDifficulty(ctx context.Context, level domain.Difficulty) ([]domain.Course, error) {
	query := url.Values{}
	query.Set("published", "true")
	query.Set("order", "created_desc")
	query.Set("difficulty", string(level))

	body, err := c.doRequest(ctx, http.MethodGet, "/api/v1/courses", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []courseDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse courses: %w", err)
	}
	return mapCourses(dtos), nil
}

// === domain.ProgressRepository ===

func (c *Client) UpsertProgress(ctx context.Context, userID string, p domain.LessonProgress) error {
	path := fmt.Sprintf("/api/v1/users/%s/progress/%s", url.PathEscape(userID), url.PathEscape(p.LessonID))
	dto := progressUpsertDTO{
		Completed:           p.Completed,
		ProgressPercentage:  p.ProgressPercentage,
		TimeSpentMinutes:    p.TimeSpentMinutes,
		LastPositionSeconds: p.LastPositionSeconds,
	}
	_, err := c.doRequest(ctx, http.MethodPut, path, nil, dto)
	return err
}

func (c *Client) ListProgress(ctx context.Context, userID string) ([]domain.RemoteProgress, error) {
	path := fmt.Sprintf("/api/v1/users/%s/progress", url.PathEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var dtos []progressDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse progress: %w", err)
	}
	return mapRemoteProgress(dtos), nil
}

// === domain.DownloadRepository ===

func (c *Client) UpsertDownload(ctx context.Context, userID string, rec domain.DownloadRecord) error {
	path := fmt.Sprintf("/api/v1/users/%s/downloads/%s", url.PathEscape(userID), url.PathEscape(rec.LessonID))
	dto := downloadDTO{
		LessonID:      rec.LessonID,
		LocalPath:     rec.LocalPath,
		FileSizeBytes: rec.FileSizeBytes,
		Completed:     true,
	}
	_, err := c.doRequest(ctx, http.MethodPut, path, nil, dto)
	return err
}

func (c *Client) DeleteDownload(ctx context.Context, userID, lessonID string) error {
	path := fmt.Sprintf("/api/v1/users/%s/downloads/%s", url.PathEscape(userID), url.PathEscape(lessonID))
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	return err
}
