// Package recommend ranks candidate cards against a user's financial profile.
// The pipeline retrieves candidates from a vector index, scores each with an
// LLM call, and aggregates defensively: a malformed or failed score never
// drops a candidate or aborts the batch.
package recommend

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"cardsavvy/api/config"
	"cardsavvy/api/llm"
	"cardsavvy/api/logger"
	"cardsavvy/api/models"
)

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scorer rates one candidate against a profile.
type Scorer interface {
	ScoreCandidate(ctx context.Context, profile *models.FinancialProfile, doc models.CardDocument) (models.CardRecommendation, error)
}

// CandidateSource retrieves card documents, either by similarity or wholesale.
type CandidateSource interface {
	Query(ctx context.Context, vector []float32, limit int) ([]models.CardDocument, error)
	FetchAll(ctx context.Context) ([]models.CardDocument, error)
}

const embeddingDim = 1536

// Pipeline generates ranked card recommendations.
type Pipeline struct {
	embedder Embedder
	scorer   Scorer
	source   CandidateSource
	mode     string
	limit    int
}

// New wires the pipeline. mode is config.RetrievalSimilarity or
// config.RetrievalAll; limit caps the returned list.
func New(embedder Embedder, scorer Scorer, source CandidateSource, mode string, limit int) *Pipeline {
	if limit <= 0 {
		limit = 7
	}
	return &Pipeline{embedder: embedder, scorer: scorer, source: source, mode: mode, limit: limit}
}

// Generate runs the three pipeline stages and returns at most limit
// recommendations sorted non-increasing by match score. A vector-store
// failure yields an empty list, not an error; callers fall back to static
// data on empty.
func (p *Pipeline) Generate(ctx context.Context, profile *models.FinancialProfile) ([]models.CardRecommendation, error) {
	candidates := p.retrieve(ctx, profile)
	if len(candidates) == 0 {
		return []models.CardRecommendation{}, nil
	}

	now := time.Now()
	recs := make([]models.CardRecommendation, 0, len(candidates))
	for _, doc := range candidates {
		doc.MITCContent = llm.Truncate(doc.MITCContent, llm.MITCExcerptLimit)

		rec, err := p.scorer.ScoreCandidate(ctx, profile, doc)
		if err != nil {
			logger.Get().Warn("candidate scoring failed, substituting fallback entry",
				zap.String("card", doc.CardName),
				zap.Error(err))
			rec = models.CardRecommendation{
				CardName:    doc.CardName,
				Issuer:      doc.Issuer,
				CardType:    doc.CardType,
				MatchScore:  llm.FallbackScore,
				MatchReason: llm.FallbackReason,
			}
		}
		rec.GeneratedAt = now
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].MatchScore > recs[j].MatchScore })
	if len(recs) > p.limit {
		recs = recs[:p.limit]
	}
	return recs, nil
}

func (p *Pipeline) retrieve(ctx context.Context, profile *models.FinancialProfile) []models.CardDocument {
	if p.mode == config.RetrievalAll {
		docs, err := p.source.FetchAll(ctx)
		if err != nil {
			logger.Get().Error("candidate fetch-all failed", zap.Error(err))
			return nil
		}
		return docs
	}

	vec, err := p.embedder.Embed(ctx, llm.ProfileSummary(profile))
	if err != nil {
		// Stand-in, not production-safe: keeps the request alive when the
		// embedding service is down, at the cost of meaningless similarity.
		logger.Get().Warn("embedding failed, using random query vector", zap.Error(err))
		vec = randomVector(embeddingDim)
	}

	docs, err := p.source.Query(ctx, vec, p.limit*2)
	if err != nil {
		logger.Get().Error("candidate query failed", zap.Error(err))
		return nil
	}
	return docs
}

// StaticFallback scores the given corpus at the fallback score, for callers
// that got an empty pipeline result and still want something to show.
func StaticFallback(docs []models.CardDocument, limit int) []models.CardRecommendation {
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	now := time.Now()
	recs := make([]models.CardRecommendation, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, models.CardRecommendation{
			CardName:    doc.CardName,
			Issuer:      doc.Issuer,
			CardType:    doc.CardType,
			MatchScore:  llm.FallbackScore,
			MatchReason: llm.FallbackReason,
			GeneratedAt: now,
		})
	}
	return recs
}

func randomVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = rand.Float32()*2 - 1
	}
	return vec
}
