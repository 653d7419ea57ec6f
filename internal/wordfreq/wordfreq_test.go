package wordfreq

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTable(lists ...[]string) types.Table {
	recs := make([]types.Record, len(lists))
	for i, l := range lists {
		recs[i] = types.Record{Tokens: l}
	}
	return types.NewTable([]types.Column{types.ColTokens}, recs)
}

func TestBuildExample(t *testing.T) {
	tbl := tokenTable([]string{"the", "complaint", "box"}, []string{"box", "box"})
	got := Build(tbl, types.ColTokens, NewStopwords("the"), DefaultMinLength)
	require.Len(t, got, 2)
	assert.Equal(t, "box", got[0].Key)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, "complaint", got[1].Key)
	assert.Equal(t, 1, got[1].Count)
}

func TestBuildFiltersShortAndStopwords(t *testing.T) {
	tbl := tokenTable([]string{"ok", "an", "Late", "late", "shipping", "the"})
	got := Build(tbl, types.ColTokens, NewStopwords("late", "the"), DefaultMinLength)
	keys := []string{}
	for _, kc := range got {
		assert.GreaterOrEqual(t, len([]rune(kc.Key)), DefaultMinLength)
		keys = append(keys, kc.Key)
	}
	// stop-word match is case-sensitive
	assert.Equal(t, []string{"Late", "shipping"}, keys)
}

func TestBuildTiesKeepFirstSeen(t *testing.T) {
	tbl := tokenTable([]string{"zeta", "alpha"}, []string{"alpha", "zeta", "mid"})
	got := Build(tbl, types.ColTokens, nil, DefaultMinLength)
	require.Len(t, got, 3)
	assert.Equal(t, "zeta", got[0].Key)
	assert.Equal(t, "alpha", got[1].Key)
	assert.Equal(t, "mid", got[2].Key)
}

func TestBuildSkipsUnparseableRows(t *testing.T) {
	good := "['parcel', 'parcel']"
	bad := "parcel parcel"
	tbl := types.NewTable([]types.Column{types.ColTokens}, []types.Record{
		{TokensRaw: &bad}, {TokensRaw: &good}, {},
	})
	got := Build(tbl, types.ColTokens, nil, DefaultMinLength)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Count)
}

func TestBuildEmpty(t *testing.T) {
	got := Build(tokenTable([]string{"a", "to"}), types.ColTokens, nil, DefaultMinLength)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBuildFromMessages(t *testing.T) {
	m1, m2 := "The box was LATE.", "late again; box crushed"
	tbl := types.NewTable([]types.Column{types.ColMessage}, []types.Record{{Message: &m1}, {Message: &m2}})
	got := Build(tbl, types.ColMessage, NewStopwords("the", "was"), DefaultMinLength)
	require.Len(t, got, 4)
	assert.Equal(t, "box", got[0].Key)
	assert.Equal(t, "late", got[1].Key)
	assert.Equal(t, 2, got[1].Count)
}

func TestLoadStopwords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("the\n\n and \nof\n"), 0o644))
	s, err := LoadStopwords(path)
	require.NoError(t, err)
	assert.Len(t, s, 3)
	assert.True(t, s.Has("and"))

	_, err = LoadStopwords(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeExternalResource))
}

func TestReadStopwords(t *testing.T) {
	s, err := ReadStopwords(strings.NewReader("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, NewStopwords("a", "b"), s)
}
