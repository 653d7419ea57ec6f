// Package wordfreq builds the stop-word filtered token frequencies behind the
// word cloud.
package wordfreq

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"complaint-insights-go/internal/aggregator"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/extractor"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/types"
)

// DefaultMinLength drops tokens of one or two letters.
const DefaultMinLength = 3

// Stopwords is matched exactly and case-sensitively.
type Stopwords map[string]struct{}

func (s Stopwords) Has(w string) bool {
	_, ok := s[w]
	return ok
}

func NewStopwords(words ...string) Stopwords {
	s := Stopwords{}
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// ReadStopwords reads one word per line; blank lines are ignored.
func ReadStopwords(r io.Reader) (Stopwords, error) {
	s := Stopwords{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			s[w] = struct{}{}
		}
	}
	return s, sc.Err()
}

// LoadStopwords reads the stop-word file at path.
func LoadStopwords(path string) (Stopwords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.ExternalResource("stopwords "+path, err)
	}
	defer f.Close()
	s, err := ReadStopwords(f)
	if err != nil {
		return nil, apperrors.ExternalResource("stopwords "+path, err)
	}
	return s, nil
}

// Build counts the tokens of col across t, descending by count with ties in
// first-seen order. Tokens shorter than minLen runes or in stop are dropped.
// Rows whose token list cannot be decoded contribute nothing. The result is
// empty, never nil, when no token survives.
func Build(t types.Table, col types.Column, stop Stopwords, minLen int) []aggregator.KeyCount {
	log := logger.New().Component("wordfreq")
	var out []aggregator.KeyCount
	pos := map[string]int{}
	seq := 0
	skipped := 0
	for i, r := range t.Records {
		toks, err := extractor.RowTokens(r, i+1, col)
		if err != nil {
			skipped++
			log.WithError(err).Debug("row tokens skipped")
			continue
		}
		for _, tok := range toks {
			if utf8.RuneCountInString(tok) < minLen || stop.Has(tok) {
				continue
			}
			p, ok := pos[tok]
			if !ok {
				p = len(out)
				pos[tok] = p
				out = append(out, aggregator.KeyCount{Key: tok, FirstSeen: seq})
			}
			out[p].Count++
			seq++
		}
	}
	if skipped > 0 {
		log.WithField("column", string(col)).WithField("rows", skipped).Warn("unparseable token rows ignored")
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if out == nil {
		return []aggregator.KeyCount{}
	}
	return out
}
