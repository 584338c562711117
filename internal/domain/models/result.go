package models

import "time"

// DataSource tells where a ProviderResult's data came from.
type DataSource string

const (
	SourceLive     DataSource = "live"
	SourceCache    DataSource = "cache"
	SourceFallback DataSource = "fallback"
)

// ProviderResult carries data that is always usable. When Source is
// SourceFallback, Data is the static substitute and Error says why.
type ProviderResult[T any] struct {
	Data      T          `json:"data"`
	Source    DataSource `json:"source"`
	Error     string     `json:"error,omitempty"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

func (r ProviderResult[T]) IsFallback() bool {
	return r.Source == SourceFallback
}

func NewResult[T any](data T, src DataSource, at time.Time) ProviderResult[T] {
	return ProviderResult[T]{Data: data, Source: src, FetchedAt: at}
}

func FallbackResult[T any](data T, err error, at time.Time) ProviderResult[T] {
	r := ProviderResult[T]{Data: data, Source: SourceFallback, FetchedAt: at}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
