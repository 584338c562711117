package models

import (
	"strings"

	"CoinDash/pkg/util"
)

// Requests for dashboard HTTP endpoints.

type DashboardRequest struct {
	Interests    string `query:"interests" validate:"max=500"`
	InvestorType string `query:"investor_type" validate:"omitempty,oneof=HODLER DAY_TRADER NFT_COLLECTOR DEFI_USER NEWBIE"`
	Content      string `query:"content" validate:"omitempty,csv_oneof=MARKET_NEWS CHARTS SOCIAL FUN TECHNICAL_ANALYSIS FUNDAMENTAL_ANALYSIS"`
}

type ChartRequest struct {
	CoinID   string `param:"coinId" validate:"required,max=100"`
	Days     int    `query:"days" default:"7" validate:"gte=1,lte=365"`
	Currency string `query:"currency" default:"usd" validate:"alpha,max=10"`
}

type NewsRequest struct {
	Filter     string `query:"filter" default:"hot" validate:"oneof=hot rising bullish bearish important saved lol"`
	Currencies string `query:"currencies"`
	Limit      int    `query:"limit" default:"10" validate:"gte=1,lte=50"`
}

type MemeRequest struct {
	Category string `query:"category" validate:"omitempty,oneof=HODL PUMP DUMP FOMO FUD GENERAL"`
	Tags     string `query:"tags"`
}

type FeedbackRequest struct {
	ContentType string `json:"contentType" validate:"required,oneof=NEWS CHART AI_INSIGHT MEME"`
	ContentID   string `json:"contentId" validate:"required,max=200"`
	Rating      string `json:"rating" validate:"required,oneof=THUMBS_UP THUMBS_DOWN"`
}

// Preferences converts the query parameters into a preference summary.
func (r DashboardRequest) Preferences() Preferences {
	p := Preferences{
		CryptoInterests: util.SplitCSV(r.Interests),
		InvestorType:    InvestorType(strings.ToUpper(strings.TrimSpace(r.InvestorType))),
	}
	for _, s := range util.SplitCSV(r.Content) {
		p.ContentPreferences = append(p.ContentPreferences, ContentPreference(strings.ToUpper(s)))
	}
	return p
}
