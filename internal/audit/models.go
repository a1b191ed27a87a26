package audit

import (
	"time"

	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
)

type Entry struct {
	ID        int64
	Reason    string
	Title     string
	URL       string
	URI       string
	Source    string
	Details   filter.BlockedDetails
	BlockedAt time.Time
}

type QueryOpts struct {
	Since  time.Time
	Reason string
	Search string
	Limit  int
}

type TermCount struct {
	Term  string
	Count int
}

type Stats struct {
	Count    int
	Size     int64
	TopTerms []TermCount
}
