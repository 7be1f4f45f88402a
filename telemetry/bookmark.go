package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/island/components"
	"github.com/pthm-cable/island/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction BookmarkType = "extinction"
	BookmarkPreyCrash  BookmarkType = "prey_crash"
	BookmarkPlantBloom BookmarkType = "plant_bloom"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	RunID       string       `csv:"run_id"`
	Type        BookmarkType `csv:"type"`
	Cycle       int          `csv:"cycle"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"cycle", b.Cycle,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
// It is driven by the report task only and is not goroutine-safe.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []CycleStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPreyPeak int                       // peak herbivore count since the last crash
	extinct        [components.NumKinds]bool // kinds already reported extinct
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]CycleStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats CycleStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		bookmarks = append(bookmarks, bd.checkExtinction(stats)...)

		if b := bd.checkPreyCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		if b := bd.checkPlantBloom(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Herbivores > bd.recentPreyPeak {
		bd.recentPreyPeak = stats.Herbivores
	}

	for i := range bookmarks {
		bookmarks[i].RunID = stats.RunID
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats CycleStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []CycleStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// previous returns the most recent stats added to history.
func (bd *BookmarkDetector) previous() CycleStats {
	idx := (bd.historyIdx - 1 + bd.historySize) % bd.historySize
	return bd.history[idx]
}

func kindCount(s CycleStats, k components.Kind) int {
	switch k {
	case components.KindWolf:
		return s.Wolves
	case components.KindRabbit:
		return s.Rabbits
	}
	return 0
}

func (bd *BookmarkDetector) checkExtinction(stats CycleStats) []Bookmark {
	prev := bd.previous()
	var out []Bookmark
	for k := components.Kind(0); int(k) < components.NumKinds; k++ {
		before, now := kindCount(prev, k), kindCount(stats, k)
		if now > 0 {
			bd.extinct[k] = false
			continue
		}
		if before > 0 && !bd.extinct[k] {
			bd.extinct[k] = true
			out = append(out, Bookmark{
				Type:        BookmarkExtinction,
				Cycle:       stats.Cycle,
				Description: fmt.Sprintf("Last %s gone (was %d)", k, before),
			})
		}
	}
	return out
}

func (bd *BookmarkDetector) checkPreyCrash(stats CycleStats) *Bookmark {
	if bd.recentPreyPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Herbivores)/float64(bd.recentPreyPeak)
	drop := bd.recentPreyPeak - stats.Herbivores
	if dropPercent > bd.cfg.PreyCrash.DropPercent && drop >= bd.cfg.PreyCrash.MinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPreyPeak
		bd.recentPreyPeak = stats.Herbivores

		return &Bookmark{
			Type:        BookmarkPreyCrash,
			Cycle:       stats.Cycle,
			Description: fmt.Sprintf("Herbivores crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Herbivores),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPlantBloom(stats CycleStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += float64(h.Plants)
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	plants := float64(stats.Plants)
	if plants > avg*bd.cfg.PlantBloom.Multiplier && stats.Plants >= bd.cfg.PlantBloom.MinPlants {
		return &Bookmark{
			Type:        BookmarkPlantBloom,
			Cycle:       stats.Cycle,
			Description: fmt.Sprintf("Plants %d are %.1fx the rolling average (%.0f)", stats.Plants, plants/avg, avg),
		}
	}

	return nil
}
