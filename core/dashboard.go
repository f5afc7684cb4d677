package core

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ChannelOverview is the analytics summary shown on the dashboard home
type ChannelOverview struct {
	ChannelID   string       `json:"channelId" yaml:"channelId"`
	Title       string       `json:"title" yaml:"title"`
	Subscribers int64        `json:"subscribers" yaml:"subscribers"`
	Views       int64        `json:"views" yaml:"views"`
	Videos      int          `json:"videos" yaml:"videos"`
	WatchHours  int64        `json:"watchHours" yaml:"watchHours"`
	GrowthRate  float64      `json:"growthRate" yaml:"growthRate"`
	Daily       []DailyStats `json:"daily" yaml:"daily"`
}

// DailyStats is one point in the overview chart
type DailyStats struct {
	Date        string `json:"date" yaml:"date"`
	Views       int64  `json:"views" yaml:"views"`
	Subscribers int64  `json:"subscribers" yaml:"subscribers"`
}

// Keyword is a keyword research row
type Keyword struct {
	Term         string  `json:"term" yaml:"term"`
	SearchVolume int64   `json:"searchVolume" yaml:"searchVolume"`
	Competition  string  `json:"competition" yaml:"competition"` // low, medium, high
	Score        float64 `json:"score" yaml:"score"`
}

// Competitor is a tracked competing channel
type Competitor struct {
	ChannelID   string  `json:"channelId" yaml:"channelId"`
	Title       string  `json:"title" yaml:"title"`
	Subscribers int64   `json:"subscribers" yaml:"subscribers"`
	AvgViews    int64   `json:"avgViews" yaml:"avgViews"`
	UploadsWeek float64 `json:"uploadsPerWeek" yaml:"uploadsPerWeek"`
}

// ChatMessage is one turn of the AI coaching conversation
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatRequest is the body posted to the coach
type ChatRequest struct {
	Message string `json:"message"`
}

// VideoOptimization holds the suggestions for a single video
type VideoOptimization struct {
	VideoID        string   `json:"videoId" yaml:"videoId"`
	Title          string   `json:"title" yaml:"title"`
	Score          int      `json:"score" yaml:"score"`
	SuggestedTitle string   `json:"suggestedTitle" yaml:"suggestedTitle"`
	SuggestedTags  []string `json:"suggestedTags" yaml:"suggestedTags"`
	Tips           []string `json:"tips" yaml:"tips"`
}

// FilterKeywords keeps keywords whose term contains query (case-insensitive),
// best score first, at most limit rows. limit <= 0 means no limit.
func FilterKeywords(all []Keyword, query string, limit int) []Keyword {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]Keyword, 0, len(all))
	for _, k := range all {
		if q == "" || strings.Contains(strings.ToLower(k.Term), q) {
			out = append(out, k)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FormatCount renders a count the way the widgets show it: 950, 1.2K, 3.4M, 1.1B
func FormatCount(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	units := []struct {
		size   int64
		suffix string
	}{
		{1_000_000_000, "B"},
		{1_000_000, "M"},
		{1_000, "K"},
	}

	for _, u := range units {
		if n >= u.size {
			v := strconv.FormatFloat(float64(n)/float64(u.size), 'f', 1, 64)
			v = strings.TrimSuffix(v, ".0")
			return sign + v + u.suffix
		}
	}
	return sign + strconv.FormatInt(n, 10)
}
