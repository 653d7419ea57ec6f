package types

import (
	"strconv"
	"strings"
	"time"
)

// Column is the canonical name of a table column.
type Column string

const (
	ColCity        Column = "city"
	ColStateCode   Column = "state_code"
	ColStateName   Column = "state_name"
	ColCategory    Column = "category"
	ColStarRating  Column = "star_rating"
	ColSentiment   Column = "sentiment"
	ColMessage     Column = "message"
	ColTokens      Column = "tokens"
	ColSentDate    Column = "sent_date"
	ColProductType Column = "product_type"
	ColConfidence  Column = "confidence"
	ColZipCode     Column = "zip_code"
)

// headerAliases maps export headers onto canonical columns.
var headerAliases = map[string]Column{
	"predicted_category": ColCategory,
	"puntajeestrellas":   ColStarRating,
	"clasificacion":      ColSentiment,
	"product type":       ColProductType,
	"email sent date":    ColSentDate,
	"zip code":           ColZipCode,
}

var knownColumns = map[Column]bool{
	ColCity: true, ColStateCode: true, ColStateName: true, ColCategory: true,
	ColStarRating: true, ColSentiment: true, ColMessage: true, ColTokens: true,
	ColSentDate: true, ColProductType: true, ColConfidence: true, ColZipCode: true,
}

// CanonicalColumn resolves a source header to its column. Unknown headers are
// kept verbatim (trimmed) as pass-through columns.
func CanonicalColumn(header string) Column {
	h := strings.TrimSpace(header)
	l := strings.ToLower(h)
	if c, ok := headerAliases[l]; ok {
		return c
	}
	if knownColumns[Column(l)] {
		return Column(l)
	}
	return Column(h)
}

// IsKnown reports whether col is one of the typed record fields.
func IsKnown(col Column) bool {
	return knownColumns[col]
}

// Sentiment classes in their fixed display order.
const (
	SentimentPositive = "Positivo"
	SentimentNeutral  = "Neutro"
	SentimentNegative = "Negativo"
)

var SentimentOrder = []string{SentimentPositive, SentimentNeutral, SentimentNegative}

// DetailColumns are the pass-through contact and shipping fields shown verbatim
// in the complaint details table, in display order.
var DetailColumns = []Column{
	"Buyer ID", "complaint id", "subject", ColProductType, "product code",
	"Account Name Sales Rep", "kits request", "product for return", "Street Address",
	ColCity, ColStateName, ColZipCode, "Phone", "hospital name", "Contact",
	"Qty", "Shipper Kit PartNumber", "J&J Site", "Return", "No ChargePO",
	"hospital ncp", "email address",
}

// Record is one complaint row. A nil field means the cell was absent or empty.
type Record struct {
	City       *string  `json:"city,omitempty"`
	StateCode  *string  `json:"state_code,omitempty"`
	StateName  *string  `json:"state_name,omitempty"`
	Category   *string  `json:"category,omitempty"`
	StarRating *float64 `json:"star_rating,omitempty"`
	Sentiment  *string  `json:"sentiment,omitempty"`
	Message    *string  `json:"message,omitempty"`
	Tokens     []string `json:"tokens,omitempty"`
	// TokensRaw holds the serialized token list when the export stores it as text.
	TokensRaw   *string           `json:"tokens_raw,omitempty"`
	SentDate    *time.Time        `json:"sent_date,omitempty"`
	SentDateRaw *string           `json:"sent_date_raw,omitempty"`
	ProductType *string           `json:"product_type,omitempty"`
	Confidence  *float64          `json:"confidence,omitempty"`
	ZipCode     *string           `json:"zip_code,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Value returns the categorical (string) form of col for this row.
func (r Record) Value(col Column) (string, bool) {
	switch col {
	case ColCity:
		return deref(r.City)
	case ColStateCode:
		return deref(r.StateCode)
	case ColStateName:
		return deref(r.StateName)
	case ColCategory:
		return deref(r.Category)
	case ColSentiment:
		return deref(r.Sentiment)
	case ColMessage:
		return deref(r.Message)
	case ColProductType:
		return deref(r.ProductType)
	case ColZipCode:
		return deref(r.ZipCode)
	case ColStarRating:
		return formatFloat(r.StarRating)
	case ColConfidence:
		return formatFloat(r.Confidence)
	case ColSentDate:
		if r.SentDate != nil {
			return r.SentDate.Format("2006-01-02"), true
		}
		return deref(r.SentDateRaw)
	case ColTokens:
		if r.TokensRaw != nil {
			return *r.TokensRaw, true
		}
		if r.Tokens != nil {
			return strings.Join(r.Tokens, " "), true
		}
		return "", false
	}
	v, ok := r.Extra[string(col)]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Float returns the numeric form of col for this row.
func (r Record) Float(col Column) (float64, bool) {
	switch col {
	case ColStarRating:
		return derefFloat(r.StarRating)
	case ColConfidence:
		return derefFloat(r.Confidence)
	}
	s, ok := r.Value(col)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Time returns the timestamp form of col. Only sent_date carries one; a row
// whose date failed to parse reports false.
func (r Record) Time(col Column) (time.Time, bool) {
	if col == ColSentDate && r.SentDate != nil {
		return *r.SentDate, true
	}
	return time.Time{}, false
}

// Table is an ordered, read-only sequence of records.
type Table struct {
	Columns []Column `json:"columns"`
	Records []Record `json:"records"`
}

func NewTable(cols []Column, records []Record) Table {
	return Table{Columns: cols, Records: records}
}

func (t Table) Len() int { return len(t.Records) }

func (t Table) Has(col Column) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Select returns a new table holding the rows for which keep is true.
func (t Table) Select(keep func(Record) bool) Table {
	out := make([]Record, 0, len(t.Records))
	for _, r := range t.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return Table{Columns: t.Columns, Records: out}
}

// Ptr returns a pointer to v; handy for building records by hand.
func Ptr[T any](v T) *T { return &v }

// deref treats an empty string like a missing value, matching Extra.
func deref(s *string) (string, bool) {
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}

func derefFloat(f *float64) (float64, bool) {
	if f == nil {
		return 0, false
	}
	return *f, true
}

func formatFloat(f *float64) (string, bool) {
	if f == nil {
		return "", false
	}
	return strconv.FormatFloat(*f, 'f', -1, 64), true
}
