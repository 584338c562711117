package models

import (
	"sort"
	"strings"
)

type InvestorType string

const (
	InvestorHODLer       InvestorType = "HODLER"
	InvestorDayTrader    InvestorType = "DAY_TRADER"
	InvestorNFTCollector InvestorType = "NFT_COLLECTOR"
	InvestorDeFiUser     InvestorType = "DEFI_USER"
	InvestorNewbie       InvestorType = "NEWBIE"
)

type ContentPreference string

const (
	ContentMarketNews          ContentPreference = "MARKET_NEWS"
	ContentCharts              ContentPreference = "CHARTS"
	ContentSocial              ContentPreference = "SOCIAL"
	ContentFun                 ContentPreference = "FUN"
	ContentTechnicalAnalysis   ContentPreference = "TECHNICAL_ANALYSIS"
	ContentFundamentalAnalysis ContentPreference = "FUNDAMENTAL_ANALYSIS"
)

// Preferences is the caller's preference summary used to personalise the
// dashboard.
type Preferences struct {
	CryptoInterests    []string            `json:"cryptoInterests,omitempty"`
	InvestorType       InvestorType        `json:"investorType,omitempty"`
	ContentPreferences []ContentPreference `json:"contentPreferences,omitempty"`
}

func (p Preferences) IsZero() bool {
	return len(p.CryptoInterests) == 0 && p.InvestorType == "" && len(p.ContentPreferences) == 0
}

// Signature is a canonical string for p: order and case of list entries do
// not matter. The zero value signs as "default".
func (p Preferences) Signature() string {
	if p.IsZero() {
		return "default"
	}
	interests := normalizeList(p.CryptoInterests)
	content := make([]string, len(p.ContentPreferences))
	for i, c := range p.ContentPreferences {
		content[i] = string(c)
	}
	content = normalizeList(content)
	return "i=" + strings.Join(interests, ",") +
		";t=" + strings.ToUpper(strings.TrimSpace(string(p.InvestorType))) +
		";c=" + strings.Join(content, ",")
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
