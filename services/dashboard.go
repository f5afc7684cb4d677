package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/cuonglevan23/ybproject/core"
)

// DashboardService is the typed surface of the dashboard endpoints
type DashboardService struct {
	client *APIClient
}

func NewDashboardService(client *APIClient) *DashboardService {
	return &DashboardService{client: client}
}

func (d *DashboardService) ChannelOverview(ctx context.Context) (*core.ChannelOverview, error) {
	return Get[*core.ChannelOverview](ctx, d.client, "/channel/overview", nil)
}

// Keywords runs keyword research; limit <= 0 lets the backend decide
func (d *DashboardService) Keywords(ctx context.Context, query string, limit int) ([]core.Keyword, error) {
	params := url.Values{}
	if q := strings.TrimSpace(query); q != "" {
		params.Set("q", q)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return Get[[]core.Keyword](ctx, d.client, "/keywords", params)
}

func (d *DashboardService) Competitors(ctx context.Context) ([]core.Competitor, error) {
	return Get[[]core.Competitor](ctx, d.client, "/competitors", nil)
}

// ChatHistory lists the coaching conversation, oldest first
func (d *DashboardService) ChatHistory(ctx context.Context) ([]core.ChatMessage, error) {
	return Get[[]core.ChatMessage](ctx, d.client, "/chat/messages", nil)
}

// SendChatMessage posts a message to the coach and returns its reply
func (d *DashboardService) SendChatMessage(ctx context.Context, message string) (*core.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, core.ErrEmptyMessage
	}
	return Post[*core.ChatMessage](ctx, d.client, "/chat/messages", core.ChatRequest{Message: message})
}

func (d *DashboardService) VideoOptimization(ctx context.Context, videoID string) (*core.VideoOptimization, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, core.ErrVideoIDRequired
	}
	return Get[*core.VideoOptimization](ctx, d.client, "/videos/"+url.PathEscape(videoID)+"/optimization", nil)
}
