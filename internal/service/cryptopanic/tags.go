package cryptopanic

import (
	"strings"
	"unicode"
)

const maxTags = 5

var cryptoTerms = []string{
	"bitcoin", "btc", "ethereum", "eth", "cardano", "ada", "solana", "sol",
	"polkadot", "dot", "chainlink", "link", "uniswap", "uni", "dogecoin", "doge",
	"shiba", "shib", "ripple", "xrp", "litecoin", "ltc", "defi", "nft", "dao",
	"etf", "institutional", "regulation", "sec", "fed", "central bank",
}

// normalizeWords lower-cases s and replaces everything but letters and digits
// with single spaces, padded on both ends so whole words can be matched with
// strings.Contains(" term ").
func normalizeWords(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// extractTags derives up to five tags from free text. Known asset and topic
// terms must appear as whole words; the MARKET, ADOPTION and REGULATION
// groups match on substrings.
func extractTags(title, description string) []string {
	words := normalizeWords(title + " " + description)
	raw := strings.ToLower(title + " " + description)

	tags := make([]string, 0, maxTags)
	add := func(tag string) {
		for _, t := range tags {
			if t == tag {
				return
			}
		}
		tags = append(tags, tag)
	}
	for _, term := range cryptoTerms {
		if strings.Contains(words, " "+term+" ") {
			add(strings.ToUpper(term))
		}
	}
	if strings.Contains(raw, "price") || strings.Contains(raw, "market") {
		add("MARKET")
	}
	if strings.Contains(raw, "adoption") || strings.Contains(raw, "institutional") {
		add("ADOPTION")
	}
	if strings.Contains(raw, "regulation") || strings.Contains(words, " sec ") {
		add("REGULATION")
	}
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// sourceFromSlug guesses a source label from the first slug segment.
func sourceFromSlug(slug string) string {
	first, _, _ := strings.Cut(slug, "-")
	if first == "" {
		return "cryptopanic.com"
	}
	return strings.ToUpper(first)
}
