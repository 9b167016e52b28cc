package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"prompt-forge/server/internal/generators"
	"prompt-forge/server/internal/interfaces"
	"prompt-forge/server/internal/prompts"
)

const DefaultMaxFailures = 3

// GenerateRequest is the inbound body of POST /api/generate
type GenerateRequest struct {
	Keywords         string  `json:"keywords"`
	NegativeKeywords string  `json:"negativeKeywords"`
	Style            *string `json:"style,omitempty"`
}

// GenerateResponse is the outbound body of a successful generation
type GenerateResponse struct {
	PositivePrompt string `json:"positive_prompt"`
	NegativePrompt string `json:"negative_prompt"`
	SamplingMethod string `json:"sampling_method"`
	Scheduler      string `json:"scheduler"`
}

// PromptService turns keywords into a structured Stable Diffusion prompt.
// Generations are serialized so the failure counter sees one request at a time.
type PromptService struct {
	generator   interfaces.TextGenerator
	counter     interfaces.FailureCounter
	styles      *prompts.StyleLibrary
	picker      *generators.SamplerPicker
	history     interfaces.HistoryRecorder
	apiKey      string
	maxFailures int
	logger      *slog.Logger

	mu sync.Mutex
}

// ServiceOptions configures a PromptService. Generator, Counter and Styles
// are required; History may be nil.
type ServiceOptions struct {
	APIKey      string
	Generator   interfaces.TextGenerator
	Counter     interfaces.FailureCounter
	Styles      *prompts.StyleLibrary
	Picker      *generators.SamplerPicker
	History     interfaces.HistoryRecorder
	MaxFailures int
	Logger      *slog.Logger
}

func NewPromptService(opts ServiceOptions) *PromptService {
	if opts.Picker == nil {
		opts.Picker = generators.NewSamplerPicker()
	}
	if opts.Styles == nil {
		opts.Styles = prompts.NewStyleLibrary()
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = DefaultMaxFailures
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &PromptService{
		generator:   opts.Generator,
		counter:     opts.Counter,
		styles:      opts.Styles,
		picker:      opts.Picker,
		history:     opts.History,
		apiKey:      opts.APIKey,
		maxFailures: opts.MaxFailures,
		logger:      opts.Logger.With("component", "prompt_service"),
	}
}

// StyleNames lists the loaded styles in load order
func (s *PromptService) StyleNames() []string {
	return s.styles.Names()
}

// CheckAPIKey fails with API_KEY_MISSING when no key is configured
func (s *PromptService) CheckAPIKey() error {
	if s.apiKey == "" {
		return &GenerateError{Code: CodeAPIKeyMissing, Message: "API key is missing."}
	}
	return nil
}

// Generate runs one generation. All failures are returned as *GenerateError.
func (s *PromptService) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := s.CheckAPIKey(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var style *prompts.StylePreset
	styleName := ""
	if req.Style != nil && *req.Style != "" {
		if p, ok := s.styles.Lookup(*req.Style); ok {
			style = &p
			styleName = p.Name
		} else {
			s.logger.Debug("unknown style ignored", "style", *req.Style)
		}
	}

	bases := prompts.MergeStyle(style, req.Keywords, req.NegativeKeywords)
	instruction := prompts.BuildInstruction(req.Keywords, bases)

	text, err := s.generator.Generate(ctx, instruction)
	if err != nil {
		return nil, s.classifyFailure(ctx, err)
	}

	s.counter.Reset(ctx)

	positive, negative := prompts.SplitResponse(text)
	sampler := s.picker.Pick()

	resp := &GenerateResponse{
		PositivePrompt: positive,
		NegativePrompt: negative,
		SamplingMethod: sampler.SamplingMethod,
		Scheduler:      sampler.Scheduler,
	}

	s.record(ctx, req, styleName, resp)

	s.logger.Info("prompt generated",
		"provider", s.generator.Name(),
		"style", styleName,
		"sampling_method", resp.SamplingMethod,
		"scheduler", resp.Scheduler,
	)

	return resp, nil
}

// classifyFailure maps a remote failure onto a client-facing error code and
// updates the failure counter. A malformed body means the remote accepted
// the key, so it resets the counter like any other successful call.
func (s *PromptService) classifyFailure(ctx context.Context, err error) *GenerateError {
	if errors.Is(err, ErrMalformedResponse) {
		s.counter.Reset(ctx)
		s.logger.Warn("remote response could not be parsed", "error", err)
		return &GenerateError{
			Code:    CodeAPIResponseParse,
			Message: fmt.Sprintf("Failed to parse API response: %v", err),
			Err:     err,
		}
	}

	if !IsBadRequest(err) {
		s.logger.Warn("remote request failed", "error", err)
		return &GenerateError{
			Code:    CodeAPIRequestFailed,
			Message: fmt.Sprintf("API request failed: %v", err),
			Err:     err,
		}
	}

	failures, cerr := s.counter.Increment(ctx)
	if cerr != nil {
		s.logger.Error("failed to update failure count", "error", cerr)
	}

	s.logger.Warn("remote request rejected", "error", err, "failures", failures, "max_failures", s.maxFailures)

	if failures >= s.maxFailures {
		return &GenerateError{
			Code:    CodeAPIKeyFailedTooMany,
			Message: "API key failed too many times. Please provide a new key.",
			Err:     err,
		}
	}

	return &GenerateError{
		Code:    CodeAPIRequestFailed,
		Message: fmt.Sprintf("API request failed: %v. Failure count: %d/%d", err, failures, s.maxFailures),
		Err:     err,
	}
}

func (s *PromptService) record(ctx context.Context, req *GenerateRequest, styleName string, resp *GenerateResponse) {
	if s.history == nil {
		return
	}

	err := s.history.Record(ctx, &interfaces.GenerationRecord{
		Keywords:         strings.TrimSpace(req.Keywords),
		NegativeKeywords: strings.TrimSpace(req.NegativeKeywords),
		Style:            styleName,
		PositivePrompt:   resp.PositivePrompt,
		NegativePrompt:   resp.NegativePrompt,
		SamplingMethod:   resp.SamplingMethod,
		Scheduler:        resp.Scheduler,
	})
	if err != nil {
		s.logger.Warn("failed to record generation", "error", err)
	}
}
