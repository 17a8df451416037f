// Package sentiment implements the sentiment half of the Data Aggregator:
// independent news and social adapters combined per the weighted-source
// combination rule in spec §3.
package sentiment

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalforge/equityedge/internal/ticker"
)

// SourceReading is one source's contribution: a mention/article count and a
// sentiment score in [-1,1], or unavailable.
type SourceReading struct {
	Count     uint64
	Score     float64
	Available bool
}

// Snapshot is the Aggregator's sentiment-data output for one ticker.
type Snapshot struct {
	Ticker            ticker.Ticker `json:"ticker"`
	AsOf              time.Time     `json:"as_of"`
	CombinedSentiment float64       `json:"combined_sentiment"`
	Available         bool          `json:"available"`
	Reddit            SourceReading `json:"reddit"`
	News              SourceReading `json:"news"`
}

// Weights for the combination rule when both sources are available.
const (
	redditWeight = 0.6
	newsWeight   = 0.4
)

// Combine applies the weighted-source rule: 0.6*reddit + 0.4*news when both
// available; the sole available source takes weight 1.0; 0/unavailable when
// neither responds.
func combine(reddit, news SourceReading) (score float64, available bool) {
	switch {
	case reddit.Available && news.Available:
		return redditWeight*reddit.Score + newsWeight*news.Score, true
	case reddit.Available:
		return reddit.Score, true
	case news.Available:
		return news.Score, true
	default:
		return 0, false
	}
}

// NewsProvider fetches news-derived sentiment for a ticker.
type NewsProvider interface {
	News(ctx context.Context, t ticker.Ticker) (SourceReading, error)
}

// SocialProvider fetches social-media-derived sentiment for a ticker.
type SocialProvider interface {
	Social(ctx context.Context, t ticker.Ticker) (SourceReading, error)
}

// Aggregator fetches both sentiment sources concurrently and combines them.
type Aggregator struct {
	news   NewsProvider
	social SocialProvider
}

// NewAggregator builds a sentiment Aggregator. Either provider may be nil,
// in which case that source is always treated as unavailable.
func NewAggregator(news NewsProvider, social SocialProvider) *Aggregator {
	return &Aggregator{news: news, social: social}
}

// Fetch builds a Snapshot for t within a 10s deadline, per spec §4.1's
// per-operation time budget. Provider errors degrade that source to
// unavailable rather than failing the whole snapshot.
func (a *Aggregator) Fetch(ctx context.Context, t ticker.Ticker) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	snap := Snapshot{Ticker: t, AsOf: time.Now().UTC()}

	var news, social SourceReading
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if a.news == nil {
			return nil
		}
		reading, err := a.news.News(gctx, t)
		if err != nil {
			return nil
		}
		news = reading
		return nil
	})

	g.Go(func() error {
		if a.social == nil {
			return nil
		}
		reading, err := a.social.Social(gctx, t)
		if err != nil {
			return nil
		}
		social = reading
		return nil
	})

	_ = g.Wait()

	snap.News = news
	snap.Reddit = social
	snap.CombinedSentiment, snap.Available = combine(social, news)
	return snap
}
