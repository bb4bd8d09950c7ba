package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/edubridge/edubridge/internal/backend"
	"github.com/edubridge/edubridge/internal/catalog"
	"github.com/edubridge/edubridge/internal/config"
	"github.com/edubridge/edubridge/internal/domain"
	"github.com/edubridge/edubridge/internal/download"
	"github.com/edubridge/edubridge/internal/log"
	"github.com/edubridge/edubridge/internal/progress"
	"github.com/edubridge/edubridge/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `Usage: edubridge <command> [args]

Commands:
  courses [-refresh]              list published courses
  course <id>                     show a course with its lessons
  lesson <id>                     show a single lesson
  search <query> [category]       search courses
  find <query>                    fuzzy-match cached course titles
  difficulty <level>              list courses by difficulty
  watch <courseID> <lessonID> <percent> [minutes]
                                  record lesson progress
  sync                            push unsynced progress, then pull
  stats                           show learning statistics
  download <lessonID>             download a lesson video
  downloads                       list downloaded lessons and storage use
  delete <lessonID>               delete a downloaded lesson
  signout                         clear identity and wipe local data
`

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("edubridge %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting edubridge", "version", Version)

	if !cfg.IsConfigured() {
		return fmt.Errorf("backend not configured: set backend.url and backend.api_key in config.yaml")
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, logger)
	session := backend.NewSession(cfg.Backend.UserID, cfg.Device.ID)

	st, err := store.NewCacheStore(cfg.Storage.CacheDir, logger)
	if err != nil {
		// Degrade to memory-only rather than refusing to start
		logger.Error("failed to open cache store, running without persistence", "error", err)
		st, _ = store.NewCacheStore("", logger)
	}
	defer st.Close()

	courses := catalog.NewService(client, st, logger)
	tracker := progress.NewTracker(client, session, st, logger)
	downloads := download.NewManager(cfg.Storage.DownloadsDir, client, session, logger)

	ctx := context.Background()

	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	switch args[0] {
	case "courses":
		force := len(args) > 1 && args[1] == "-refresh"
		list := courses.GetCourses(ctx, force)
		printCourses(list)

	case "course":
		if len(args) < 2 {
			return fmt.Errorf("usage: edubridge course <id>")
		}
		detail := courses.GetCourse(ctx, args[1])
		if detail.Course == nil {
			fmt.Println("course not found")
			return nil
		}
		printCourseDetail(detail, tracker)

	case "lesson":
		if len(args) < 2 {
			return fmt.Errorf("usage: edubridge lesson <id>")
		}
		detail := courses.GetLesson(ctx, args[1])
		if detail.Lesson == nil {
			fmt.Println("lesson not found")
			return nil
		}
		l := detail.Lesson
		fmt.Printf("%s  %s (%d min)%s\n", l.ID, l.Title, l.DurationMinutes, cacheMark(detail.FromCache))

	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: edubridge search <query> [category]")
		}
		category := ""
		if len(args) > 2 {
			category = args[2]
		}
		printCourses(courses.SearchCourses(ctx, args[1], category))

	case "find":
		if len(args) < 2 {
			return fmt.Errorf("usage: edubridge find <query>")
		}
		ranked := courses.SearchCoursesRanked(args[1])
		for _, c := range ranked {
			fmt.Printf("%s  %-40s %s/%s\n", c.ID, c.Title, c.Category, c.DifficultyLevel)
		}
		if len(ranked) == 0 {
			fmt.Println("no matches")
		}

	case "difficulty":
		if len(args) < 2 {
			return fmt.Errorf("usage: edubridge difficulty <beginner|intermediate|advanced>")
		}
		printCourses(courses.GetCoursesByDifficulty(ctx, domain.Difficulty(args[1])))

	case "watch":
		if len(args) < 4 {
			return fmt.Errorf("usage: edubridge watch <courseID> <lessonID> <percent> [minutes]")
		}
		pct, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid percent: %q", args[3])
		}
		upd := domain.ProgressUpdate{ProgressPercentage: &pct}
		if pct >= 100 {
			completed := true
			upd.Completed = &completed
		}
		if len(args) > 4 {
			minutes, err := strconv.Atoi(args[4])
			if err != nil {
				return fmt.Errorf("invalid minutes: %q", args[4])
			}
			upd.TimeSpentMinutes = &minutes
		}
		if err := tracker.UpdateLessonProgress(ctx, args[2], args[1], upd); err != nil {
			return err
		}
		fmt.Println("progress recorded")

	case "sync":
		tracker.SyncAllToCloud(ctx)
		tracker.PullFromCloud(ctx)
		fmt.Println("sync complete")

	case "stats":
		stats := tracker.GetUserStats()
		fmt.Printf("courses started:   %d\n", stats.CoursesStarted)
		fmt.Printf("courses completed: %d\n", stats.CoursesCompleted)
		fmt.Printf("lessons completed: %d\n", stats.LessonsCompleted)
		fmt.Printf("hours learned:     %d\n", stats.HoursLearned)
		for _, cp := range tracker.GetInProgressCourses() {
			fmt.Printf("in progress: %s  %d/%d lessons, %d%%\n",
				cp.CourseID, cp.CompletedLessons, cp.TotalLessons, cp.ProgressPercentage)
		}

	case "download":
		if len(args) < 2 {
			return fmt.Errorf("usage: edubridge download <lessonID>")
		}
		return downloadLesson(ctx, courses, downloads, args[1])

	case "downloads":
		for _, id := range downloads.GetDownloadedLessons() {
			path, _ := downloads.GetLocalPath(id)
			fmt.Printf("%s  %s\n", id, path)
		}
		fmt.Printf("storage used: %.1f MB\n", float64(downloads.GetStorageUsed())/(1024*1024))

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: edubridge delete <lessonID>")
		}
		if err := downloads.DeleteDownload(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("deleted")

	case "signout":
		if err := config.ClearIdentity(cfg); err != nil {
			return err
		}
		if err := st.Wipe(); err != nil {
			return err
		}
		fmt.Println("signed out, local data wiped")

	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command: %s", args[0])
	}

	return nil
}

func downloadLesson(ctx context.Context, courses *catalog.Service, downloads *download.Manager, lessonID string) error {
	detail := courses.GetLesson(ctx, lessonID)
	if detail.Lesson == nil {
		return fmt.Errorf("unknown lesson: %s", lessonID)
	}
	if detail.Lesson.VideoURL == "" {
		return fmt.Errorf("lesson %s has no video", lessonID)
	}

	path, err := downloads.DownloadLesson(ctx, lessonID, detail.Lesson.VideoURL, func(p domain.DownloadProgress) {
		fmt.Printf("\r%s %.1f%% (%d/%d bytes)", p.Status, p.Progress, p.DownloadedBytes, p.TotalBytes)
	})
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Printf("saved to %s\n", path)
	return nil
}

func cacheMark(fromCache bool) string {
	if fromCache {
		return "  [cached]"
	}
	return ""
}

func printCourses(list domain.CourseList) {
	for _, c := range list.Courses {
		fmt.Printf("%s  %-40s %s/%s%s\n", c.ID, c.Title, c.Category, c.DifficultyLevel, cacheMark(list.FromCache))
	}
	if len(list.Courses) == 0 {
		fmt.Println("no courses")
	}
}

func printCourseDetail(detail domain.CourseDetail, tracker *progress.Tracker) {
	c := detail.Course
	fmt.Printf("%s (%s, %s)%s\n", c.Title, c.Category, c.DifficultyLevel, cacheMark(detail.FromCache))
	if c.Description != "" {
		fmt.Println(c.Description)
	}
	for _, l := range c.Lessons {
		marker := " "
		if p := tracker.GetLessonProgress(l.ID); p != nil {
			if p.Completed {
				marker = "x"
			} else if p.ProgressPercentage > 0 {
				marker = "~"
			}
		}
		fmt.Printf("  [%s] %2d. %s (%d min)\n", marker, l.OrderIndex, l.Title, l.DurationMinutes)
	}
	if cp := tracker.GetCourseProgress(c.ID); cp != nil {
		fmt.Printf("progress: %d/%d lessons, %d%%, %d min\n",
			cp.CompletedLessons, cp.TotalLessons, cp.ProgressPercentage, cp.TotalTimeSpent)
	}
}
