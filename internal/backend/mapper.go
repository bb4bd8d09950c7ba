package backend

import "github.com/edubridge/edubridge/internal/domain"

func mapCourse(dto courseDTO) domain.Course {
	return domain.Course{
		ID:              dto.ID,
		Title:           dto.Title,
		Description:     dto.Description,
		ThumbnailURL:    dto.ThumbnailURL,
		Category:        dto.Category,
		DifficultyLevel: domain.Difficulty(dto.DifficultyLevel),
		EstimatedHours:  dto.EstimatedHours,
		CreatorID:       dto.CreatorID,
		IsPublished:     dto.IsPublished,
		Languages:       dto.Languages,
		CreatedAt:       dto.CreatedAt,
		UpdatedAt:       dto.UpdatedAt,
	}
}

func mapCourses(dtos []courseDTO) []domain.Course {
	courses := make([]domain.Course, len(dtos))
	for i, dto := range dtos {
		courses[i] = mapCourse(dto)
	}
	return courses
}

func mapLesson(dto lessonDTO) domain.Lesson {
	return domain.Lesson{
		ID:                 dto.ID,
		CourseID:           dto.CourseID,
		Title:              dto.Title,
		Description:        dto.Description,
		Content:            dto.Content,
		VideoURL:           dto.VideoURL,
		VideoSizeMB:        dto.VideoSizeMB,
		CompressedVideoURL: dto.CompressedVideoURL,
		OrderIndex:         dto.OrderIndex,
		DurationMinutes:    dto.DurationMinutes,
		IsFree:             dto.IsFree,
		CreatedAt:          dto.CreatedAt,
		UpdatedAt:          dto.UpdatedAt,
	}
}

func mapLessons(dtos []lessonDTO) []domain.Lesson {
	lessons := make([]domain.Lesson, len(dtos))
	for i, dto := range dtos {
		lessons[i] = mapLesson(dto)
	}
	return lessons
}

func mapRemoteProgress(dtos []progressDTO) []domain.RemoteProgress {
	rows := make([]domain.RemoteProgress, len(dtos))
	for i, dto := range dtos {
		rows[i] = domain.RemoteProgress{
			LessonID:            dto.LessonID,
			Completed:           dto.Completed,
			ProgressPercentage:  dto.ProgressPercentage,
			TimeSpentMinutes:    dto.TimeSpentMinutes,
			LastPositionSeconds: dto.LastPositionSeconds,
			UpdatedAt:           dto.UpdatedAt.Unix(),
		}
	}
	return rows
}
