package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/serpent/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkKillSpree       BookmarkType = "kill_spree"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkFeedingFrenzy   BookmarkType = "feeding_frenzy"
	BookmarkBossDefeated    BookmarkType = "boss_defeated"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	RunID       string       `csv:"run_id"`
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the arena.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentBotPeak int // peak bot count since the last crash
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(cfg config.BookmarksConfig, historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	add := func(t BookmarkType, desc string) {
		bookmarks = append(bookmarks, Bookmark{RunID: stats.RunID, Type: t, Tick: stats.WindowEndTick, Description: desc})
	}

	if k := bd.cfg.KillSpree.MinKills; k > 0 && stats.MaxKillsByOne >= k {
		add(BookmarkKillSpree, fmt.Sprintf("One agent made %d kills in a window", stats.MaxKillsByOne))
	}

	if stats.BossFalls > 0 {
		add(BookmarkBossDefeated, fmt.Sprintf("%d boss(es) defeated", stats.BossFalls))
	}

	if b := bd.checkFeedingFrenzy(stats); b != "" {
		add(BookmarkFeedingFrenzy, b)
	}

	if b := bd.checkPopulationCrash(stats); b != "" {
		add(BookmarkPopulationCrash, b)
	}

	bd.addToHistory(stats)
	if stats.BotCount > bd.recentBotPeak {
		bd.recentBotPeak = stats.BotCount
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkFeedingFrenzy compares food intake against the rolling average.
func (bd *BookmarkDetector) checkFeedingFrenzy(stats WindowStats) string {
	history := bd.getHistory()
	if len(history) < 3 {
		return ""
	}

	var total int
	for _, h := range history {
		total += h.FoodEaten
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return ""
	}

	cfg := bd.cfg.FeedingFrenzy
	if float64(stats.FoodEaten) > avg*cfg.Multiplier && stats.FoodEaten >= cfg.MinEaten {
		return fmt.Sprintf("Food eaten %d is %.1fx average (%.1f)", stats.FoodEaten, float64(stats.FoodEaten)/avg, avg)
	}
	return ""
}

// checkPopulationCrash fires when live bots drop sharply below the recent peak.
func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) string {
	if bd.recentBotPeak == 0 {
		return ""
	}

	drop := 1.0 - float64(stats.BotCount)/float64(bd.recentBotPeak)
	if drop >= bd.cfg.PopulationCrash.DropFraction {
		oldPeak := bd.recentBotPeak
		bd.recentBotPeak = stats.BotCount
		return fmt.Sprintf("Bots crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.BotCount)
	}
	return ""
}
