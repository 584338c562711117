package openrouter

import (
	"strings"

	"CoinDash/internal/domain/models"
)

const systemPrompt = "You are a knowledgeable cryptocurrency market analyst. Provide concise, accurate, and helpful insights about the crypto market. Focus on current trends and practical advice."

const basePrompt = "Provide a brief, insightful analysis of the current cryptocurrency market. Focus on key trends, notable movements, and actionable insights for crypto investors. Keep it concise (2-3 sentences) and engaging."

func humanize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", " ")
}

// BuildPrompt personalises the user prompt. Empty preference fields add
// nothing.
func BuildPrompt(p models.Preferences) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	var interests []string
	for _, i := range p.CryptoInterests {
		if i = strings.TrimSpace(i); i != "" {
			interests = append(interests, i)
		}
	}
	if len(interests) > 0 {
		b.WriteString(" The user is particularly interested in: ")
		b.WriteString(strings.Join(interests, ", "))
		b.WriteString(".")
	}
	if p.InvestorType != "" {
		b.WriteString(" They identify as a ")
		b.WriteString(humanize(string(p.InvestorType)))
		b.WriteString(".")
	}
	if len(p.ContentPreferences) > 0 {
		prefs := make([]string, len(p.ContentPreferences))
		for i, c := range p.ContentPreferences {
			prefs[i] = humanize(string(c))
		}
		b.WriteString(" They prefer content focused on: ")
		b.WriteString(strings.Join(prefs, ", "))
		b.WriteString(".")
	}
	return b.String()
}
