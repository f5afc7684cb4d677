package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuonglevan23/ybproject/core"
)

func TestDashboardService_Endpoints(t *testing.T) {
	var lastPath, lastQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath, lastQuery = r.URL.Path, r.URL.RawQuery
		switch r.URL.Path {
		case "/api/channel/overview":
			writeEnvelope(w, http.StatusOK, core.ChannelOverview{ChannelID: "c1", Subscribers: 1200})
		case "/api/keywords":
			writeEnvelope(w, http.StatusOK, []core.Keyword{{Term: "go"}})
		case "/api/competitors":
			writeEnvelope(w, http.StatusOK, []core.Competitor{{ChannelID: "c2"}, {ChannelID: "c3"}})
		case "/api/chat/messages":
			if r.Method == http.MethodPost {
				var req core.ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				writeEnvelope(w, http.StatusOK, core.ChatMessage{ID: "m2", Role: "assistant", Content: "re: " + req.Message})
				return
			}
			writeEnvelope(w, http.StatusOK, []core.ChatMessage{{ID: "m1", Role: "user"}})
		case "/api/videos/v 1/optimization":
			writeEnvelope(w, http.StatusOK, core.VideoOptimization{VideoID: "v 1", Score: 72})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/api", core.ClientConfig{Retry: fastRetry(1)}, nil)
	dashboard := NewDashboardService(client)
	ctx := context.Background()

	overview, err := dashboard.ChannelOverview(ctx)
	if err != nil || overview.ChannelID != "c1" || core.FormatCount(overview.Subscribers) != "1.2K" {
		t.Errorf("ChannelOverview() = %+v, %v", overview, err)
	}

	keywords, err := dashboard.Keywords(ctx, " go ", 5)
	if err != nil || len(keywords) != 1 {
		t.Errorf("Keywords() = %+v, %v", keywords, err)
	}
	if lastQuery != "limit=5&q=go" {
		t.Errorf("query = %q, want limit=5&q=go", lastQuery)
	}

	competitors, err := dashboard.Competitors(ctx)
	if err != nil || len(competitors) != 2 {
		t.Errorf("Competitors() = %+v, %v", competitors, err)
	}

	history, err := dashboard.ChatHistory(ctx)
	if err != nil || len(history) != 1 {
		t.Errorf("ChatHistory() = %+v, %v", history, err)
	}

	reply, err := dashboard.SendChatMessage(ctx, "how do I grow?")
	if err != nil || reply.Content != "re: how do I grow?" {
		t.Errorf("SendChatMessage() = %+v, %v", reply, err)
	}

	video, err := dashboard.VideoOptimization(ctx, "v 1")
	if err != nil || video.Score != 72 {
		t.Errorf("VideoOptimization() = %+v, %v (path %s)", video, err, lastPath)
	}
}

func TestDashboardService_ValidatesInput(t *testing.T) {
	client := newTestClient(t, "http://unused.test", core.ClientConfig{Retry: fastRetry(1)}, nil)
	dashboard := NewDashboardService(client)

	if _, err := dashboard.SendChatMessage(context.Background(), "   "); !errors.Is(err, core.ErrEmptyMessage) {
		t.Errorf("SendChatMessage() error = %v, want ErrEmptyMessage", err)
	}
	if _, err := dashboard.VideoOptimization(context.Background(), ""); !errors.Is(err, core.ErrVideoIDRequired) {
		t.Errorf("VideoOptimization() error = %v, want ErrVideoIDRequired", err)
	}
}
