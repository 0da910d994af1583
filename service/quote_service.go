package service

import (
	"log/slog"

	"ipsign.app/cache"
	"ipsign.app/providers"
)

// FallbackQuote is returned when the quote upstream cannot be reached.
const FallbackQuote = "世界上黑暗中发的光，这束光就是你内心真正想要的。"

// QuoteService resolves the short inspirational line shown on the card.
// It never fails: any upstream problem yields the built-in fallback.
type QuoteService struct {
	store    *cache.Store
	provider providers.QuoteProvider
}

func NewQuoteService(store *cache.Store, provider providers.QuoteProvider) *QuoteService {
	return &QuoteService{
		store:    store,
		provider: provider,
	}
}

// Resolve returns the current quote, cached under the singleton key.
func (s *QuoteService) Resolve() string {
	var cached string
	if s.store.Get(cache.DomainQuote, cache.QuoteKey, &cached) {
		slog.Debug("quote cache hit")
		return cached
	}

	quote, err := s.provider.FetchQuote()
	if err != nil {
		slog.Error("quote upstream failed, using fallback", "error", err)
		return FallbackQuote
	}

	s.store.Set(cache.DomainQuote, cache.QuoteKey, quote)
	return quote
}
