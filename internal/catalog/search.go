package catalog

import (
	"sort"

	"github.com/edubridge/edubridge/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SearchCoursesRanked performs a typo-tolerant ranked search over cached
// course titles. Purely local; it never touches the network, so it works
// identically online and offline.
func (s *Service) SearchCoursesRanked(query string) []domain.Course {
	if query == "" {
		return nil
	}
	cached, ok := s.store.ListCourses()
	if !ok {
		return nil
	}

	titles := make([]string, len(cached))
	for i, c := range cached {
		titles[i] = c.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Sort(ranks)

	results := make([]domain.Course, 0, len(ranks))
	for _, r := range ranks {
		results = append(results, cached[r.OriginalIndex])
	}
	return results
}
