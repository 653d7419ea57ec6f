// Package extractor turns the per-row text fields of a complaint into token
// lists: either the pre-tokenized list stored by the export, or free text.
package extractor

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/types"

	"github.com/tidwall/gjson"
)

// ParseTokens decodes a serialized token list. Both JSON arrays
// (["a","b"]) and the single-quoted list literals found in exports
// (['a', 'b']) are accepted; anything else is an error.
func ParseTokens(raw string) ([]string, error) {
	list := extractList(raw)
	if list == "" {
		return nil, fmt.Errorf("no list found in %q", truncate(raw, 40))
	}

	if gjson.Valid(list) {
		res := gjson.Parse(list)
		if !res.IsArray() {
			return nil, fmt.Errorf("not a list: %q", truncate(raw, 40))
		}
		out := []string{}
		for _, v := range res.Array() {
			if v.Type == gjson.Null {
				continue
			}
			out = append(out, v.String())
		}
		return out, nil
	}
	return parseQuotedList(list)
}

// RowTokens returns the tokens of one row for col. The tokens column is
// decoded; any other column is treated as free text and tokenized.
func RowTokens(r types.Record, row int, col types.Column) ([]string, error) {
	if col == types.ColTokens {
		if r.Tokens != nil {
			return r.Tokens, nil
		}
		if r.TokensRaw == nil {
			return nil, nil
		}
		toks, err := ParseTokens(*r.TokensRaw)
		if err != nil {
			return nil, apperrors.UnparseableValue(row, string(col), err)
		}
		return toks, nil
	}
	v, ok := r.Value(col)
	if !ok {
		return nil, nil
	}
	return Tokenize(v), nil
}

// Tokenize lower-cases text and splits it on runs of non-letters.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// extractList finds the first balanced [...] in s, ignoring brackets inside
// quoted elements.
func extractList(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	start := strings.Index(s, "[")
	if start == -1 {
		return ""
	}

	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

// parseQuotedList reads a flat list literal whose elements are quoted with
// either ' or ".
func parseQuotedList(list string) ([]string, error) {
	body := strings.TrimSpace(list[1 : len(list)-1])
	out := []string{}
	i := 0
	for i < len(body) {
		for i < len(body) && (body[i] == ' ' || body[i] == '\n' || body[i] == '\t') {
			i++
		}
		if i >= len(body) {
			break
		}
		q := body[i]
		if q != '\'' && q != '"' {
			return nil, fmt.Errorf("unquoted element at offset %d", i)
		}
		i++
		var sb strings.Builder
		closed := false
		for i < len(body) {
			c := body[i]
			if c == '\\' && i+1 < len(body) {
				sb.WriteByte(body[i+1])
				i += 2
				continue
			}
			i++
			if c == q {
				closed = true
				break
			}
			sb.WriteByte(c)
		}
		if !closed {
			return nil, fmt.Errorf("unterminated element")
		}
		out = append(out, sb.String())

		for i < len(body) && (body[i] == ' ' || body[i] == '\n' || body[i] == '\t') {
			i++
		}
		if i < len(body) {
			if body[i] != ',' {
				return nil, fmt.Errorf("expected ',' at offset %d", i)
			}
			i++
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
