package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemnet-bee/viplayer/internal/config"
	"github.com/beemnet-bee/viplayer/internal/model"
	"github.com/beemnet-bee/viplayer/pkg/anthropic"
	"github.com/beemnet-bee/viplayer/pkg/perplexity"
)

type stubClaude struct {
	text string
	err  error
}

func (s *stubClaude) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: s.text}},
	}, nil
}

type stubSearch struct {
	resp *perplexity.ChatCompletionResponse
	err  error
}

func (s *stubSearch) ChatCompletion(_ context.Context, _ perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newService(claude anthropic.Client, search perplexity.Client) Client {
	cfg := &config.Config{}
	cfg.Agents.TimeoutSecs = 5
	cfg.Agents.RatePerSecond = 1000
	cfg.Agents.RateBurst = 1000
	cfg.Anthropic.Model = "test-model"
	cfg.Anthropic.MaxTokens = 1024
	cfg.Discovery.MinFacilities = 5
	return New(cfg, claude, search)
}

func TestParseReport(t *testing.T) {
	t.Run("structured output", func(t *testing.T) {
		svc := newService(&stubClaude{text: "Here you go:\n```json\n" +
			`{"facility_name": "Tamale Teaching Hospital", "beds": 400, "specialties": ["Surgery"], "equipment_list": [{"name": "MRI", "status": "Offline"}], "gaps": ["ICU capacity"], "confidence": 0.93}` +
			"\n```"}, &stubSearch{})

		data, metrics, err := svc.ParseReport(context.Background(), "raw report text")
		require.NoError(t, err)
		assert.Equal(t, "Tamale Teaching Hospital", data.FacilityName)
		assert.Equal(t, 400, data.Beds)
		assert.Equal(t, model.EquipmentOffline, data.EquipmentList[0].Status)
		assert.False(t, data.NeedsVerification())
		require.NotNil(t, metrics)
		assert.GreaterOrEqual(t, metrics.ExecutionTimeMs, int64(0))
		assert.InDelta(t, 0.975, metrics.SuccessRate, 0.025)
	})

	t.Run("low confidence flagged", func(t *testing.T) {
		svc := newService(&stubClaude{text: `{"facility_name": "Ho Clinic", "confidence": 0.4}`}, &stubSearch{})

		data, _, err := svc.ParseReport(context.Background(), "vague text")
		require.NoError(t, err)
		assert.True(t, data.NeedsVerification())
	})

	t.Run("no structured data", func(t *testing.T) {
		svc := newService(&stubClaude{text: "I could not find any facility details."}, &stubSearch{})

		_, _, err := svc.ParseReport(context.Background(), "noise")
		assert.Error(t, err)
	})
}

func TestDiscoverFacilities(t *testing.T) {
	t.Run("parses reports and grounding", func(t *testing.T) {
		svc := newService(&stubClaude{}, &stubSearch{resp: &perplexity.ChatCompletionResponse{
			Choices: []perplexity.Choice{{Message: perplexity.Message{Content: `Recent findings:
[{"facility_name": "Korle Bu Teaching Hospital", "region": "Greater Accra", "coordinates": [5.55, -0.22], "extracted_data": {"beds": 2000, "gaps": ["dialysis"], "confidence": 0.9}}]`}}},
			SearchResults: []perplexity.SearchResult{{Title: "GHS bulletin", URL: "https://example.com/ghs"}},
		}})

		res, err := svc.DiscoverFacilities(context.Background(), "Ghana")
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Equal(t, "Korle Bu Teaching Hospital", res.Data[0].FacilityName)
		require.NotNil(t, res.Data[0].Coordinates)
		assert.InDelta(t, 5.55, res.Data[0].Coordinates.Lat(), 0.001)
		require.Len(t, res.Grounding, 1)
		assert.Equal(t, "GHS bulletin", res.Grounding[0].Title)
		// The agent never assigns report ids.
		assert.Empty(t, res.Data[0].ID)
	})

	t.Run("single object wrapped as one-element array", func(t *testing.T) {
		svc := newService(&stubClaude{}, &stubSearch{resp: &perplexity.ChatCompletionResponse{
			Choices: []perplexity.Choice{{Message: perplexity.Message{Content: `I found one facility: {"facility_name": "Wa Regional Hospital", "region": "Upper West", "coordinates": [10.06, -2.5]}`}}},
		}})

		res, err := svc.DiscoverFacilities(context.Background(), "Upper West")
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Equal(t, "Wa Regional Hospital", res.Data[0].FacilityName)
	})

	t.Run("malformed output degrades to empty", func(t *testing.T) {
		svc := newService(&stubClaude{}, &stubSearch{resp: &perplexity.ChatCompletionResponse{
			Choices: []perplexity.Choice{{Message: perplexity.Message{Content: "No facilities matched your query."}}},
		}})

		res, err := svc.DiscoverFacilities(context.Background(), "Ghana")
		require.NoError(t, err)
		assert.Empty(t, res.Data)
		assert.NotNil(t, res.Data)
	})

	t.Run("citation fallback", func(t *testing.T) {
		svc := newService(&stubClaude{}, &stubSearch{resp: &perplexity.ChatCompletionResponse{
			Choices:   []perplexity.Choice{{Message: perplexity.Message{Content: "[]"}}},
			Citations: []string{"https://example.com/report"},
		}})

		res, err := svc.DiscoverFacilities(context.Background(), "Ghana")
		require.NoError(t, err)
		require.Len(t, res.Grounding, 1)
		assert.Equal(t, "https://example.com/report", res.Grounding[0].URI)
	})
}

func TestGenerateStrategy(t *testing.T) {
	svc := newService(&stubClaude{}, &stubSearch{resp: &perplexity.ChatCompletionResponse{
		Choices:       []perplexity.Choice{{Message: perplexity.Message{Content: "## 12-Month Plan\n\n| Facility | Action |\n"}}},
		SearchResults: []perplexity.SearchResult{{Title: "WHO profile", URL: "https://example.com/who"}},
	}})

	res, err := svc.GenerateStrategy(context.Background(), []model.HospitalReport{{FacilityName: "Korle Bu"}})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "12-Month Plan")
	assert.Len(t, res.Grounding, 1)
	assert.NotNil(t, res.Metrics)
}

func TestMatchExpertise(t *testing.T) {
	t.Run("recommendations decoded", func(t *testing.T) {
		svc := newService(&stubClaude{text: `{"recommendations": [{"facility": "Korle Bu", "role": "Nephrologist", "reason": "dialysis gap", "priority": "Critical"}]}`}, &stubSearch{})

		res, err := svc.MatchExpertise(context.Background(), []model.HospitalReport{{FacilityName: "Korle Bu"}})
		require.NoError(t, err)
		require.Len(t, res.Recommendations, 1)
		assert.Equal(t, "Nephrologist", res.Recommendations[0].Role)
	})

	t.Run("prose only is an error", func(t *testing.T) {
		svc := newService(&stubClaude{text: "no placements needed"}, &stubSearch{})

		_, err := svc.MatchExpertise(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestForecastNeeds(t *testing.T) {
	svc := newService(&stubClaude{text: `{"forecasts": [{"region": "Northern", "future_gap": "oxygen supply", "probability": 0.7, "timeframe": "18 months"}]}`}, &stubSearch{})

	res, err := svc.ForecastNeeds(context.Background(), []model.HospitalReport{{FacilityName: "Tamale Teaching"}})
	require.NoError(t, err)
	require.Len(t, res.Forecasts, 1)
	assert.Equal(t, "Northern", res.Forecasts[0].Region)
}
