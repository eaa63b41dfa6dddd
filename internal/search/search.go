package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/reel/internal/domain"
)

// FilterResult is a story matching a feed filter
type FilterResult struct {
	Story          domain.Story
	Index          int   // Position in the filtered slice
	MatchedIndexes []int // Rune positions in Story.Title that matched
	Score          int   // Higher is better
}

// Index implements sahilm/fuzzy.Source over story titles
type Index struct {
	stories     []domain.Story
	lowerTitles []string // Pre-computed lowercase titles
}

// NewIndex builds a filter index over stories in feed order
func NewIndex(stories []domain.Story) *Index {
	idx := &Index{
		stories:     stories,
		lowerTitles: make([]string, len(stories)),
	}
	for i, s := range stories {
		idx.lowerTitles[i] = strings.ToLower(s.Title)
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of stories (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.stories) }

// Filter returns the stories whose title fuzzy-matches query, best first.
// An empty query matches nothing; callers show the full feed instead.
func (idx *Index) Filter(query string) []FilterResult {
	query = strings.TrimSpace(query)
	if query == "" || idx.Len() == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)

	results := make([]FilterResult, len(matches))
	for i, m := range matches {
		results[i] = FilterResult{
			Story:          idx.stories[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// Rank orders stories by how closely their title matches query.
// Ties keep catalog order. Stories that do not match are dropped.
func Rank(query string, stories []domain.Story) []domain.Story {
	query = strings.TrimSpace(query)
	if query == "" {
		return stories
	}

	targets := make([]string, len(stories))
	for i, s := range stories {
		targets[i] = s.Title
	}
	ranks := lfuzzy.RankFindFold(query, targets)

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]domain.Story, len(ranks))
	for i, r := range ranks {
		out[i] = stories[r.OriginalIndex]
	}
	return out
}
