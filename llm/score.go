package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/models"
)

// Substituted when a model reply cannot be parsed or the call fails. One bad
// candidate must never abort the whole recommendation batch.
const (
	FallbackScore  = 50
	FallbackReason = "This card broadly matches your spending profile, but a detailed comparison could not be generated right now."
)

// MITCExcerptLimit caps the terms-and-conditions text embedded in a scoring
// prompt.
const MITCExcerptLimit = 4000

const scoringSystem = "You are a credit card advisor. Compare a user's financial profile against a card's " +
	"Most Important Terms and Conditions and rate the fit. Reply with a single JSON object: " +
	`{"cardName": string, "issuer": string, "matchScore": number 0-100, "matchReason": string}. No other text.`

type scoreReply struct {
	CardName    string  `json:"cardName"`
	Issuer      string  `json:"issuer"`
	MatchScore  float64 `json:"matchScore"`
	MatchReason string  `json:"matchReason"`
}

// ScoreCandidate asks the model to rate one card against the profile. The
// returned error covers transport failures only; malformed replies degrade to
// the fallback score inside ParseScoreReply.
func (c *Client) ScoreCandidate(ctx context.Context, profile *models.FinancialProfile, doc models.CardDocument) (models.CardRecommendation, error) {
	raw, err := c.Complete(ctx, scoringSystem, buildScoringPrompt(profile, doc), 0.2, 400)
	if err != nil {
		return models.CardRecommendation{}, err
	}
	return ParseScoreReply(raw, doc), nil
}

// ParseScoreReply turns a raw model reply into a recommendation. On any parse
// failure it substitutes FallbackScore and FallbackReason instead of erroring,
// and logs the raw text for observability.
func ParseScoreReply(raw string, doc models.CardDocument) models.CardRecommendation {
	rec := models.CardRecommendation{
		CardName: doc.CardName,
		Issuer:   doc.Issuer,
		CardType: doc.CardType,
	}

	obj, ok := ExtractObject(raw)
	if !ok {
		logger.Get().Warn("unparseable scoring reply, substituting fallback score",
			zap.String("card", doc.CardName),
			zap.String("raw", raw))
		rec.MatchScore = FallbackScore
		rec.MatchReason = FallbackReason
		return rec
	}

	var reply scoreReply
	if err := json.Unmarshal(obj, &reply); err != nil {
		logger.Get().Warn("scoring reply JSON did not match expected shape",
			zap.String("card", doc.CardName),
			zap.String("raw", raw),
			zap.Error(err))
		rec.MatchScore = FallbackScore
		rec.MatchReason = FallbackReason
		return rec
	}

	if reply.CardName != "" {
		rec.CardName = reply.CardName
	}
	if reply.Issuer != "" {
		rec.Issuer = reply.Issuer
	}
	rec.MatchScore = clampScore(int(reply.MatchScore))
	rec.MatchReason = reply.MatchReason
	if rec.MatchReason == "" {
		rec.MatchReason = FallbackReason
	}
	return rec
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func buildScoringPrompt(profile *models.FinancialProfile, doc models.CardDocument) string {
	var b strings.Builder
	b.WriteString("User profile:\n")
	b.WriteString(ProfileSummary(profile))
	b.WriteString("\n\nCard: ")
	b.WriteString(doc.CardName)
	b.WriteString(" (")
	b.WriteString(doc.Issuer)
	b.WriteString(")\nTerms excerpt:\n")
	b.WriteString(Truncate(doc.MITCContent, MITCExcerptLimit))
	return b.String()
}

// ProfileSummary renders the profile as plain text, used both for embedding
// queries and scoring prompts.
func ProfileSummary(p *models.FinancialProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Annual income: %.0f. Credit score: %d.\n", p.AnnualIncome, p.CreditScore)
	if len(p.PrimaryCategories) > 0 {
		fmt.Fprintf(&b, "Primary spending: %s.\n", strings.Join(p.PrimaryCategories, ", "))
	}
	for category, amount := range p.MonthlySpending {
		if amount > 0 {
			fmt.Fprintf(&b, "Spends %.0f per month on %s.\n", amount, category)
		}
	}
	fmt.Fprintf(&b, "Travels %s, dines out %s.\n", p.TravelFrequency, p.DiningFrequency)
	if len(p.PreferredAirlines) > 0 {
		fmt.Fprintf(&b, "Preferred airlines: %s.\n", strings.Join(p.PreferredAirlines, ", "))
	}
	if p.OnlineShoppingPct > 0 || p.InStoreShoppingPct > 0 {
		fmt.Fprintf(&b, "Shopping split: %d%% online, %d%% in store.\n", p.OnlineShoppingPct, p.InStoreShoppingPct)
	}
	if len(p.ExistingCards) > 0 {
		fmt.Fprintf(&b, "Already holds: %s.\n", strings.Join(p.ExistingCards, ", "))
	}
	if len(p.PreferredBenefits) > 0 {
		fmt.Fprintf(&b, "Wants benefits: %s.\n", strings.Join(p.PreferredBenefits, ", "))
	}
	return b.String()
}

// Truncate cuts s to at most limit bytes.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
