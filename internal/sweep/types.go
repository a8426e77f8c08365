package sweep

import (
	"time"

	"github.com/fenilsonani/tidyd/internal/category"
)

// Candidate is a file old enough to be archived
type Candidate struct {
	Path     string
	Target   string
	Size     int64
	ModTime  time.Time
	Category category.Category
	Archived bool
}

// Result summarizes one sweep
type Result struct {
	Root       string
	Visited    int // regular files examined
	Archived   int // files moved into the archive
	Young      int // files newer than the cutoff
	Candidates []Candidate
	TotalSize  int64
	Errors     []error
	Duration   time.Duration
}

// CategorySummary totals the candidates of one category
type CategorySummary struct {
	Category category.Category
	Count    int
	Size     int64
}

// GroupByCategory totals candidates per category in category.All order
func (r *Result) GroupByCategory() []CategorySummary {
	byCat := make(map[category.Category]*CategorySummary)
	for _, c := range r.Candidates {
		s, ok := byCat[c.Category]
		if !ok {
			s = &CategorySummary{Category: c.Category}
			byCat[c.Category] = s
		}
		s.Count++
		s.Size += c.Size
	}

	grouped := make([]CategorySummary, 0, len(byCat))
	for _, cat := range category.All() {
		if s, ok := byCat[cat]; ok {
			grouped = append(grouped, *s)
		}
	}
	return grouped
}
