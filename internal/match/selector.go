package match

import (
	"sort"
	"strings"

	"github.com/scanreview/reconciler/internal/entity"
)

// Result is the outcome of one best-match pass. Item is nil when no
// candidate reached the acceptance threshold; Score still carries the best
// effort so callers can display "best match 32%, please confirm manually".
type Result struct {
	Item  *entity.ReceiptLineItem `json:"item,omitempty"`
	Score float64                 `json:"score"`
}

// SelectBestMatch scores every line item's designation against the target
// product name and returns the top candidate. Ties resolve to the
// first-seen maximum; items are scanned in original line order so repeated
// fetches cannot reorder equal-score winners. An empty item list or blank
// target yields {nil, 0}.
func (c Config) SelectBestMatch(items []*entity.ReceiptLineItem, targetName string) Result {
	if len(items) == 0 || strings.TrimSpace(targetName) == "" {
		return Result{}
	}

	ordered := make([]*entity.ReceiptLineItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LineOrder < ordered[j].LineOrder
	})

	var best *entity.ReceiptLineItem
	bestScore := -1.0
	for _, it := range ordered {
		s := c.Weights.Score(it.Designation, targetName)
		if s > bestScore {
			best = it
			bestScore = s
		}
	}

	if bestScore < c.SelectionThreshold {
		return Result{Score: bestScore}
	}
	return Result{Item: best, Score: bestScore}
}

// AttachScores computes and stores the match score of every item against
// the target name. This is the only mutation the matching flow performs on
// line items.
func (c Config) AttachScores(items []*entity.ReceiptLineItem, targetName string) {
	for _, it := range items {
		s := c.Weights.Score(it.Designation, targetName)
		it.MatchScore = &s
	}
}

// SortByScoreDesc orders items descending by their attached match score so
// "top of list" and "best match" stay consistent for display. Unscored
// items sort last; equal scores keep their relative order.
func SortByScoreDesc(items []*entity.ReceiptLineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return scoreOf(items[i]) > scoreOf(items[j])
	})
}

func scoreOf(it *entity.ReceiptLineItem) float64 {
	if it.MatchScore == nil {
		return -1
	}
	return *it.MatchScore
}
