// Package agents implements the specialist model calls behind one client
// interface: extraction and matching run against Anthropic, discovery and
// planning against Perplexity where answers must be grounded in live search.
package agents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/beemnet-bee/viplayer/internal/config"
	"github.com/beemnet-bee/viplayer/internal/jsonx"
	"github.com/beemnet-bee/viplayer/internal/model"
	"github.com/beemnet-bee/viplayer/pkg/anthropic"
	"github.com/beemnet-bee/viplayer/pkg/perplexity"
)

// Client is the orchestrator's view of the specialist agents.
type Client interface {
	ParseReport(ctx context.Context, rawText string) (*model.ExtractedData, *model.AgentMetrics, error)
	DiscoverFacilities(ctx context.Context, regionOrQuery string) (*DiscoveryResult, error)
	GenerateStrategy(ctx context.Context, reports []model.HospitalReport) (*StrategyResult, error)
	MatchExpertise(ctx context.Context, reports []model.HospitalReport) (*MatchResult, error)
	ForecastNeeds(ctx context.Context, reports []model.HospitalReport) (*ForecastResult, error)
}

// DiscoveryResult holds the facilities the discovery agent found, with the
// web sources the completion was grounded on. Report ids are assigned by the
// caller, never by the agent.
type DiscoveryResult struct {
	Data      []model.HospitalReport
	Grounding []model.Citation
	Metrics   *model.AgentMetrics
}

// StrategyResult is a markdown resource-allocation plan plus grounding.
type StrategyResult struct {
	Text      string
	Grounding []model.Citation
	Metrics   *model.AgentMetrics
}

// Recommendation is one suggested professional placement.
type Recommendation struct {
	Facility string `json:"facility"`
	Role     string `json:"role"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

// MatchResult holds the matcher agent's placement recommendations.
type MatchResult struct {
	Recommendations []Recommendation
	Metrics         *model.AgentMetrics
}

// Forecast is one predicted infrastructure gap.
type Forecast struct {
	Region      string  `json:"region"`
	FutureGap   string  `json:"future_gap"`
	Probability float64 `json:"probability"`
	Timeframe   string  `json:"timeframe"`
}

// ForecastResult holds the predictor agent's gap forecasts.
type ForecastResult struct {
	Forecasts []Forecast
	Metrics   *model.AgentMetrics
}

type service struct {
	claude    anthropic.Client
	search    perplexity.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	model     string
	maxTokens int64
	minHits   int
}

// New creates the agent client over the two upstream APIs. All calls share
// one rate limiter and a per-call timeout; a timeout surfaces through the
// same error path as any other upstream failure.
func New(cfg *config.Config, claude anthropic.Client, search perplexity.Client) Client {
	return &service{
		claude:    claude,
		search:    search,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Agents.RatePerSecond), cfg.Agents.RateBurst),
		timeout:   time.Duration(cfg.Agents.TimeoutSecs) * time.Second,
		model:     cfg.Anthropic.Model,
		maxTokens: int64(cfg.Anthropic.MaxTokens),
		minHits:   cfg.Discovery.MinFacilities,
	}
}

// callContext blocks on the shared limiter, then bounds the call.
func (s *service) callContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, nil, eris.Wrap(err, "agents: rate limit wait")
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	return callCtx, cancel, nil
}

func (s *service) complete(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel, err := s.callContext(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	resp, err := s.claude.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (s *service) groundedComplete(ctx context.Context, user string) (*perplexity.ChatCompletionResponse, error) {
	callCtx, cancel, err := s.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	return s.search.ChatCompletion(callCtx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{{Role: "user", Content: user}},
	})
}

func (s *service) ParseReport(ctx context.Context, rawText string) (*model.ExtractedData, *model.AgentMetrics, error) {
	start := time.Now()

	text, err := s.complete(ctx, parserSystem, parserPrompt(rawText))
	if err != nil {
		return nil, nil, eris.Wrap(err, "agents: parse report")
	}

	raw := jsonx.ExtractObject(text)
	if raw == "" {
		return nil, nil, eris.New("agents: parser returned no structured data")
	}

	var data model.ExtractedData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, nil, eris.Wrap(err, "agents: decode parser output")
	}

	zap.L().Debug("parsed report",
		zap.String("facility", data.FacilityName),
		zap.Float64("confidence", data.Confidence))
	return &data, measure(start), nil
}

func (s *service) DiscoverFacilities(ctx context.Context, regionOrQuery string) (*DiscoveryResult, error) {
	start := time.Now()

	resp, err := s.groundedComplete(ctx, discoveryPrompt(regionOrQuery, s.minHits))
	if err != nil {
		return nil, eris.Wrap(err, "agents: discover facilities")
	}

	result := &DiscoveryResult{
		Data:      []model.HospitalReport{},
		Grounding: citations(resp),
	}

	// Empty slice on malformed output, never an error: a discovery run with
	// no usable hits still completes. The agent is asked for an array but
	// sometimes answers with a single object; that object counts as a
	// one-element array.
	raw := jsonx.ExtractArray(resp.Text())
	if raw == "" {
		if obj := jsonx.ExtractObject(resp.Text()); obj != "" {
			raw = "[" + obj + "]"
		}
	}
	if raw != "" {
		var reports []model.HospitalReport
		if err := json.Unmarshal([]byte(raw), &reports); err != nil {
			zap.L().Warn("discarding malformed discovery output", zap.Error(err))
		} else {
			result.Data = reports
		}
	} else {
		zap.L().Warn("discovery returned no JSON payload",
			zap.String("query", regionOrQuery))
	}

	result.Metrics = measure(start)
	return result, nil
}

func (s *service) GenerateStrategy(ctx context.Context, reports []model.HospitalReport) (*StrategyResult, error) {
	start := time.Now()

	resp, err := s.groundedComplete(ctx, strategistPrompt(reports))
	if err != nil {
		return nil, eris.Wrap(err, "agents: generate strategy")
	}

	return &StrategyResult{
		Text:      resp.Text(),
		Grounding: citations(resp),
		Metrics:   measure(start),
	}, nil
}

func (s *service) MatchExpertise(ctx context.Context, reports []model.HospitalReport) (*MatchResult, error) {
	start := time.Now()

	text, err := s.complete(ctx, matcherSystem, matcherPrompt(reports))
	if err != nil {
		return nil, eris.Wrap(err, "agents: match expertise")
	}

	raw := jsonx.ExtractObject(text)
	if raw == "" {
		return nil, eris.New("agents: matcher returned no structured data")
	}

	var out struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, eris.Wrap(err, "agents: decode matcher output")
	}

	return &MatchResult{
		Recommendations: out.Recommendations,
		Metrics:         measure(start),
	}, nil
}

func (s *service) ForecastNeeds(ctx context.Context, reports []model.HospitalReport) (*ForecastResult, error) {
	start := time.Now()

	text, err := s.complete(ctx, predictorSystem, predictorPrompt(reports))
	if err != nil {
		return nil, eris.Wrap(err, "agents: forecast needs")
	}

	raw := jsonx.ExtractObject(text)
	if raw == "" {
		return nil, eris.New("agents: predictor returned no structured data")
	}

	var out struct {
		Forecasts []Forecast `json:"forecasts"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, eris.Wrap(err, "agents: decode predictor output")
	}

	return &ForecastResult{
		Forecasts: out.Forecasts,
		Metrics:   measure(start),
	}, nil
}

// citations maps the search results backing a grounded completion. The
// citations list is the fallback when structured search results are absent.
func citations(resp *perplexity.ChatCompletionResponse) []model.Citation {
	if len(resp.SearchResults) > 0 {
		out := make([]model.Citation, len(resp.SearchResults))
		for i, r := range resp.SearchResults {
			out[i] = model.Citation{Title: r.Title, URI: r.URL}
		}
		return out
	}
	out := make([]model.Citation, len(resp.Citations))
	for i, u := range resp.Citations {
		out[i] = model.Citation{Title: u, URI: u}
	}
	return out
}
