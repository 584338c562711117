package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignatureIgnoresOrderAndCase(t *testing.T) {
	a := Preferences{
		CryptoInterests:    []string{"btc", "ETH"},
		InvestorType:       InvestorHODLer,
		ContentPreferences: []ContentPreference{ContentCharts, ContentMarketNews},
	}
	b := Preferences{
		CryptoInterests:    []string{"ETH", "BTC", "eth"},
		InvestorType:       "hodler",
		ContentPreferences: []ContentPreference{ContentMarketNews, ContentCharts},
	}
	assert.Equal(t, a.Signature(), b.Signature())
	assert.NotEqual(t, a.Signature(), Preferences{InvestorType: InvestorNewbie}.Signature())
	assert.Equal(t, "default", Preferences{}.Signature())
}

func TestFallbackResultCarriesError(t *testing.T) {
	at := time.Unix(100, 0)
	r := FallbackResult(MarketOverview{}, errors.New("boom"), at)
	assert.True(t, r.IsFallback())
	assert.Equal(t, "boom", r.Error)
	assert.False(t, NewResult(1, SourceLive, at).IsFallback())
}

func TestNewsFilterValid(t *testing.T) {
	assert.True(t, NewsHot.Valid())
	assert.False(t, NewsFilter("top").Valid())
}
