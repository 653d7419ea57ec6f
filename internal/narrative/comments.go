package narrative

import (
	"math/rand/v2"

	"complaint-insights-go/internal/types"
)

// CommentSample holds the example messages picked for one sentiment.
type CommentSample struct {
	Sentiment string   `json:"sentiment"`
	Comments  []string `json:"comments"`
}

// SampleComments draws up to size messages per sentiment class, without
// replacement, in the fixed sentiment order. The draw is random on every call
// unless seed is set, in which case equal inputs give equal samples.
func SampleComments(t types.Table, size int, seed *int64) []CommentSample {
	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewPCG(uint64(*seed), uint64(*seed)))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pools := map[string][]string{}
	for _, r := range t.Records {
		s, ok := r.Value(types.ColSentiment)
		if !ok {
			continue
		}
		m, ok := r.Value(types.ColMessage)
		if !ok {
			continue
		}
		pools[s] = append(pools[s], m)
	}

	out := make([]CommentSample, 0, len(types.SentimentOrder))
	for _, s := range types.SentimentOrder {
		pool := pools[s]
		k := min(size, len(pool))
		picked := make([]string, 0, max(k, 0))
		for _, idx := range rng.Perm(len(pool))[:max(k, 0)] {
			picked = append(picked, pool[idx])
		}
		out = append(out, CommentSample{Sentiment: s, Comments: picked})
	}
	return out
}

// For returns the sample for one sentiment, or nil.
func For(samples []CommentSample, sentiment string) []string {
	for _, s := range samples {
		if s.Sentiment == sentiment {
			return s.Comments
		}
	}
	return nil
}
