package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ram-framework/ram/cache"
	"github.com/ram-framework/ram/llm"
	"github.com/ram-framework/ram/parser"
	"github.com/ram-framework/ram/prompt"
	"github.com/ram-framework/ram/search"
	"github.com/ram-framework/ram/types"
)

// Generation parameters per stage. Extraction and scoring run cold for
// reproducible structure; translation runs slightly warmer for fluent prose.
var (
	extractOptions = []llm.CompletionOption{
		llm.WithTemperature(0.1), llm.WithTopP(0.8), llm.WithTopK(40), llm.WithMaxTokens(2048),
	}
	translateOptions = []llm.CompletionOption{
		llm.WithTemperature(0.2), llm.WithTopP(0.8), llm.WithTopK(40), llm.WithMaxTokens(4096),
	}
	recommendOptions = []llm.CompletionOption{
		llm.WithTemperature(0.1), llm.WithTopP(0.9), llm.WithTopK(40), llm.WithMaxTokens(3072),
	}
	scoreOptions = []llm.CompletionOption{
		llm.WithTemperature(0.1), llm.WithTopP(0.8), llm.WithTopK(40), llm.WithMaxTokens(1024),
	}
)

// extractIoCs asks the model to pull indicators of compromise out of the
// rule text. Model or parse failures degrade to an empty set; later stages
// still run.
func (r *run) extractIoCs(ctx context.Context) (types.IoCSet, error) {
	promptText, err := prompt.ExtractIoCs(r.rule.Text)
	if err != nil {
		return nil, err
	}

	resp, err := r.complete(ctx, types.StageExtractIoCs, promptText, extractOptions...)
	if err != nil {
		if isCanceled(err) {
			return nil, err
		}
		r.degrade(types.StageExtractIoCs, "indicator extraction failed; continuing without indicators", err)
		return types.IoCSet{}, nil
	}

	obj, err := parser.ParseObject(resp.Content)
	if err != nil {
		r.degrade(types.StageExtractIoCs, "indicator extraction returned no parseable JSON; continuing without indicators", err)
		return types.IoCSet{}, nil
	}

	return types.IoCSetFromMap(obj), nil
}

// retrieveContext fetches one context snippet per indicator value, first 3
// values per category, consulting the cache before the search API. The
// inter-call delay applies between consecutive live searches only; cache
// hits cost nothing.
func (r *run) retrieveContext(ctx context.Context, iocs types.IoCSet) (types.Snippets, error) {
	snippets := types.Snippets{}
	delay := r.pipe.searchDelay()
	searched := false

	for _, category := range iocs.Categories() {
		for _, value := range iocs.Values(category, maxValuesPerCategory) {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context retrieval canceled: %w", err)
			}

			query := search.QueryForIoC(value)

			cached, err := r.pipe.cache.Get(ctx, query)
			if err == nil {
				r.pipe.telemetry.RecordSearchCall(ctx, true)
				snippets = append(snippets, cached)
				continue
			}
			if !errors.Is(err, cache.ErrNotFound) {
				r.logger.Warn("snippet cache read failed", "query", query, "error", err)
			}

			if searched {
				if err := r.pipe.sleep(ctx, delay); err != nil {
					return nil, fmt.Errorf("context retrieval canceled: %w", err)
				}
			}
			searched = true

			answer := r.pipe.search.Search(ctx, query)
			r.pipe.telemetry.RecordSearchCall(ctx, false)

			snippet := types.ContextSnippet{
				IoC:       value,
				Query:     query,
				Text:      answer.Text,
				SourceURL: answer.SourceURL,
			}
			snippets = append(snippets, snippet)

			if err := r.pipe.cache.Set(ctx, query, snippet); err != nil {
				r.logger.Warn("snippet cache write failed", "query", query, "error", err)
			}
		}
	}

	return snippets, nil
}

// translate asks the model to describe the rule in natural language,
// grounded on the extracted indicators and their retrieved context. Failures
// degrade to a generic description naming the indicators.
func (r *run) translate(ctx context.Context, iocs types.IoCSet, snippets types.Snippets) (string, error) {
	promptText, err := prompt.TranslateRule(r.rule.Text, iocs, snippets.TextByIoC())
	if err != nil {
		return "", err
	}

	resp, err := r.complete(ctx, types.StageTranslate, promptText, translateOptions...)
	if err != nil {
		if isCanceled(err) {
			return "", err
		}
		r.degrade(types.StageTranslate, "rule translation failed; using a generic description", err)
		return fallbackDescription(iocs), nil
	}

	description := strings.TrimSpace(resp.Content)
	if description == "" {
		r.degrade(types.StageTranslate, "rule translation returned no text; using a generic description", nil)
		return fallbackDescription(iocs), nil
	}

	return description, nil
}

// fallbackDescription is the degraded stage-3 output: a generic description
// naming the extracted indicators.
func fallbackDescription(iocs types.IoCSet) string {
	if iocs == nil {
		iocs = types.IoCSet{}
	}
	data, err := json.Marshal(iocs)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("Detection rule for monitoring: %s", data)
}

// recommend asks the model for candidate techniques matching the rule
// description. Model or parse failures degrade to an empty candidate list.
func (r *run) recommend(ctx context.Context, description string) ([]types.TechniqueCandidate, error) {
	promptText, err := prompt.RecommendTechniques(description, r.pipe.candidates)
	if err != nil {
		return nil, err
	}

	resp, err := r.complete(ctx, types.StageRecommend, promptText, recommendOptions...)
	if err != nil {
		if isCanceled(err) {
			return nil, err
		}
		r.degrade(types.StageRecommend, "technique recommendation failed; nothing to score", err)
		return nil, nil
	}

	maps, err := parser.ParseArrayOfMaps(resp.Content)
	if err != nil {
		r.degrade(types.StageRecommend, "technique recommendation returned no parseable JSON; nothing to score", err)
		return nil, nil
	}

	return types.CandidatesFromMaps(maps), nil
}

// score asks the model to rate every candidate's relevance to the rule,
// keeps the ones at or above the threshold, and orders them by descending
// confidence. A failing candidate is skipped, not fatal.
func (r *run) score(ctx context.Context, description string, candidates []types.TechniqueCandidate) (types.Mappings, error) {
	mappings := types.Mappings{}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("technique scoring canceled: %w", err)
		}

		promptText, err := prompt.ScoreTechnique(description, candidate)
		if err != nil {
			return nil, err
		}

		resp, err := r.complete(ctx, types.StageScore, promptText, scoreOptions...)
		if err != nil {
			if isCanceled(err) {
				return nil, err
			}
			r.skipCandidate(candidate, err)
			continue
		}

		parsed, err := parser.ParseScore(resp.Content)
		if err != nil {
			r.skipCandidate(candidate, err)
			continue
		}

		r.pipe.telemetry.RecordConfidence(ctx, candidate.ID, parsed.Confidence)

		if parsed.Confidence < r.pipe.threshold {
			r.logger.Debug("candidate below threshold",
				"technique", candidate.ID,
				"confidence", parsed.Confidence,
				"threshold", r.pipe.threshold)
			continue
		}

		reasoning := parsed.Reasoning
		if reasoning == "" {
			reasoning = types.NoReasoning
		}

		mappings = append(mappings, types.TechniqueMapping{
			TechniqueID: candidate.ID,
			Name:        candidate.Name,
			Description: candidate.Description,
			Confidence:  parsed.Confidence,
			Reasoning:   reasoning,
		})
	}

	mappings.SortByConfidence()
	return mappings, nil
}
