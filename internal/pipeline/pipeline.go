// Package pipeline wires the extraction engine together: text preparation,
// the generative producer, normalization, verification, guardrails, merge,
// derived fields, and contract validation, in that order.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lemonscan/internal/cache"
	"lemonscan/internal/contract"
	"lemonscan/internal/cost"
	"lemonscan/internal/derive"
	"lemonscan/internal/llm"
	"lemonscan/internal/merge"
	"lemonscan/internal/model"
	"lemonscan/internal/normalize"
	"lemonscan/internal/rules"
	"lemonscan/internal/schema"
	"lemonscan/internal/textprep"
	"lemonscan/internal/verify"
	"lemonscan/internal/worker"
)

// Pipeline orchestrates the complete analysis of one listing.
type Pipeline struct {
	config     *model.Config
	enums      *schema.Enums
	engine     *rules.Engine
	normalizer *normalize.Normalizer
	verifier   *verify.Verifier
	validator  *contract.Validator
	provider   llm.Provider // nil when extraction is disabled
	breaker    *llm.Breaker
	limiter    *worker.Limiter
	store      *cache.ReportStore // nil when caching is disabled
	costs      *cost.Tracker
	logger     *zap.Logger
}

// NewPipeline creates a pipeline from the given configuration. A provider
// that fails to initialize is logged and disabled; the pipeline then runs
// guardrails-only.
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	enums := schema.Default()

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM), enums, logger)
		if err != nil {
			logger.Warn("llm provider unavailable, running guardrails only", zap.Error(err))
		} else {
			provider = p
		}
	}

	var store *cache.ReportStore
	if cfg.Cache.Enabled {
		store = cache.NewReportStore(cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL))
	}

	return &Pipeline{
		config:     cfg,
		enums:      enums,
		engine:     rules.NewEngine(cfg.Engine),
		normalizer: normalize.New(enums),
		verifier:   verify.New(enums, cfg.Engine),
		validator:  contract.New(enums),
		provider:   provider,
		breaker:    llm.NewBreaker(cfg.LLM.Provider, logger),
		limiter:    worker.NewLimiter(cfg.LLM.RatePerSecond, cfg.LLM.Burst),
		store:      store,
		costs:      cost.NewTracker(),
		logger:     logger,
	}
}

// Costs returns the accumulated producer spend for this pipeline.
func (p *Pipeline) Costs() cost.Summary {
	return p.costs.Summary()
}

// Analyze runs the full extraction over one listing and returns a validated
// report. The only fatal conditions are context cancellation and a contract
// violation in the assembled report; producer failures degrade to
// guardrails-only output.
func (p *Pipeline) Analyze(ctx context.Context, listing model.Listing) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.store != nil {
		if report, ok := p.store.Get(listing, p.producerModel()); ok {
			p.logger.Debug("cache hit", zap.String("listing_id", listing.ListingID))
			return report, nil
		}
	}

	prepared := textprep.Prepare(listing.Title, listing.Description)

	var warnings []string
	if prepared.CombinedText == "" {
		warnings = append(warnings, "listing has no text; analysis ran on empty input")
	} else if len(listing.Description) < p.config.Engine.ShortDescriptionThreshold {
		warnings = append(warnings, "description is very short; signals may be incomplete")
	}

	candidate, usage := p.extract(ctx, listing, &warnings)

	// Untrusted producer output: normalize labels first, then ground every
	// signal in the source text.
	signals := p.normalizer.Signals(candidate.Signals)
	maintenance := p.normalizer.Maintenance(candidate.Maintenance)
	signals = p.verifier.Signals(signals, prepared.CombinedText)
	maintenance = p.verifier.Maintenance(maintenance, prepared.CombinedText)

	ruleSignals := p.engine.Run(prepared)

	merged := merge.Signals(signals, ruleSignals)
	maintenance = merge.Maintenance(maintenance)

	derived := derive.Compute(merged, maintenance, candidate.Summaries)
	missing := unionSorted(
		derive.MissingInfo(merged, maintenance),
		p.normalizer.MissingInfoList(candidate.MissingInfo),
	)

	report := &model.Report{
		ListingID:        listing.ListingID,
		SourceSnapshotID: snapshotID(listing),
		ReportID:         uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		StageName:        model.StageName,
		StageVersion:     model.StageVersion,
		RulesetVersion:   model.RulesetVersion,
		LLMVersion:       usageModel(usage),
		Payload: model.ExtractionPayload{
			RiskLevelOverall:    derived.RiskLevelOverall,
			NegotiationStance:   derived.NegotiationStance,
			ClaimedCondition:    derived.ClaimedCondition,
			ServiceHistoryLevel: derived.ServiceHistoryLevel,
			ModsRiskLevel:       derived.ModsRiskLevel,
			Signals:             merged,
			Maintenance:         maintenance,
			MissingInfo:         missing,
			FollowUpQuestions:   p.normalizeQuestions(candidate.FollowUpQuestions),
			ExtractionWarnings:  append(warnings, candidate.Warnings...),
			SourceTextStats: model.SourceTextStats{
				TitleLength:              len(listing.Title),
				DescriptionLength:        len(listing.Description),
				ContainsKeywordsHighRisk: rules.ContainsHighRiskKeywords(prepared.CombinedText),
			},
		},
	}

	if err := p.validator.ValidateReport(report); err != nil {
		return nil, fmt.Errorf("report failed contract validation: %w", err)
	}

	if p.store != nil {
		if err := p.store.Set(listing, p.producerModel(), report, p.config.Cache.DiskTTL); err != nil {
			p.logger.Warn("failed to cache report", zap.Error(err))
		}
	}

	return report, nil
}

// extract calls the producer behind the rate limiter and circuit breaker.
// Any failure returns an empty candidate and appends a warning; the caller
// proceeds on guardrails alone.
func (p *Pipeline) extract(ctx context.Context, listing model.Listing, warnings *[]string) (*model.CandidateExtraction, *model.TokenUsage) {
	empty := &model.CandidateExtraction{}

	if p.provider == nil {
		*warnings = append(*warnings, "llm extraction disabled; guardrails only")
		return empty, nil
	}

	if err := p.breaker.Allow(); err != nil {
		p.logger.Warn("circuit breaker rejected producer call",
			zap.String("listing_id", listing.ListingID), zap.Error(err))
		*warnings = append(*warnings, "llm extraction failed; guardrails only")
		return empty, nil
	}

	if err := p.limiter.Wait(ctx, p.provider.Name()); err != nil {
		*warnings = append(*warnings, "llm extraction failed; guardrails only")
		return empty, nil
	}

	candidate, usage, err := p.provider.Extract(ctx, llm.ExtractRequest{
		Listing:   listing,
		Prompt:    llm.BuildPrompt(listing, p.enums),
		Model:     p.config.LLM.Model,
		MaxTokens: p.config.LLM.MaxTokens,
	})
	if err != nil {
		p.breaker.RecordFailure()
		p.logger.Warn("producer extraction failed",
			zap.String("listing_id", listing.ListingID), zap.Error(err))
		*warnings = append(*warnings, "llm extraction failed; guardrails only")
		return empty, nil
	}

	p.breaker.RecordSuccess()
	p.costs.Record(usage)
	return candidate, usage
}

func (p *Pipeline) normalizeQuestions(questions []model.FollowUpQuestion) []model.FollowUpQuestion {
	var out []model.FollowUpQuestion
	for _, q := range questions {
		if q.Question == "" {
			continue
		}
		q.Priority = p.normalizer.QuestionPriority(q.Priority)
		out = append(out, q)
	}
	return out
}

func (p *Pipeline) producerModel() string {
	if p.provider == nil {
		return ""
	}
	return p.config.LLM.Model
}

func snapshotID(listing model.Listing) string {
	if listing.SourceSnapshotID != "" {
		return listing.SourceSnapshotID
	}
	return listing.ListingID
}

func usageModel(usage *model.TokenUsage) string {
	if usage == nil {
		return ""
	}
	return usage.Model
}

func unionSorted(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, item := range list {
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}
