package search

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/young1lin/groundsearch/internal/config"
	"github.com/young1lin/groundsearch/internal/models"
	"github.com/young1lin/groundsearch/pkg/logger"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider answers queries with Gemini using the Google Search tool
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	config  *genai.GenerateContentConfig
}

// NewGeminiProvider creates a Gemini provider. httpClient may be nil.
func NewGeminiProvider(ctx context.Context, cfg *config.GeminiConfig, httpClient *http.Client) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, NewError(models.ErrorKindConfig, "Gemini API key is not configured", config.ErrMissingAPIKey)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiProvider{
		client:  client,
		model:   model,
		timeout: time.Duration(cfg.Timeout) * time.Second,
		config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Search performs one grounded generation for query
func (p *GeminiProvider) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	log := logger.Named("gemini")

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(query), p.config)
	if err != nil {
		kind, msg := Classify(err)
		log.Warn("generate content failed",
			zap.String("model", p.model),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, NewError(kind, msg, errors.Wrap(err, "generate content"))
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, NewError(models.ErrorKindParse, "The search service returned no answer", nil)
	}

	result := &models.SearchResponse{
		Text:              resp.Text(),
		GroundingMetadata: convertGroundingMetadata(resp.Candidates[0].GroundingMetadata),
	}

	log.Info("gemini search completed",
		zap.String("model", p.model),
		zap.String("query", query),
		zap.Int("chunk_count", len(result.Chunks())),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// convertGroundingMetadata copies SDK grounding data into the wire model,
// keeping chunk order and chunks that have no web source.
func convertGroundingMetadata(gm *genai.GroundingMetadata) *models.GroundingMetadata {
	if gm == nil {
		return nil
	}

	out := &models.GroundingMetadata{
		GroundingChunks:  make([]models.GroundingChunk, 0, len(gm.GroundingChunks)),
		WebSearchQueries: gm.WebSearchQueries,
	}

	for _, chunk := range gm.GroundingChunks {
		var c models.GroundingChunk
		if chunk != nil && chunk.Web != nil {
			c.Web = &models.WebSource{URI: chunk.Web.URI, Title: chunk.Web.Title}
		}
		out.GroundingChunks = append(out.GroundingChunks, c)
	}

	for _, support := range gm.GroundingSupports {
		raw, err := json.Marshal(support)
		if err != nil {
			continue
		}
		out.GroundingSupports = append(out.GroundingSupports, raw)
	}

	if gm.SearchEntryPoint != nil {
		out.SearchEntryPoint = &models.SearchEntryPoint{RenderedContent: gm.SearchEntryPoint.RenderedContent}
	}

	return out
}
