package narrative

import (
	"fmt"
	"testing"

	"complaint-insights-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var s = types.Ptr[string]

func exampleTable() types.Table {
	return types.NewTable(
		[]types.Column{types.ColCategory, types.ColStarRating, types.ColSentiment},
		[]types.Record{
			{Category: s("A"), StarRating: types.Ptr(4.0), Sentiment: s("Positivo")},
			{Category: s("A"), StarRating: types.Ptr(2.0), Sentiment: s("Negativo")},
			{Category: s("B"), StarRating: types.Ptr(5.0), Sentiment: s("Positivo")},
		},
	)
}

func TestSynthesizeExample(t *testing.T) {
	got := Synthesize(exampleTable())
	require.Len(t, got, NumFindings)

	assert.Equal(t, "A (2)", got[0].Value)
	assert.Equal(t, "A", got[0].Key)
	assert.Equal(t, "A (3.0)", got[1].Value)

	// no city, state or product columns
	for _, i := range []int{2, 3, 4, 5} {
		assert.False(t, got[i].Sufficient)
		assert.Equal(t, InsufficientData, got[i].Value)
	}

	mix := got[6]
	require.True(t, mix.Sufficient)
	assert.Equal(t, "Positivo 66.7%, Neutro 0.0%, Negativo 33.3%", mix.Value)
	assert.Equal(t, 0.0, mix.Sentiments["Neutro"])
	assert.Equal(t, "7. Sentiment distribution: Positivo 66.7%, Neutro 0.0%, Negativo 33.3%", mix.Text())
}

func TestSynthesizeEmptyTableKeepsAllSlots(t *testing.T) {
	got := Synthesize(types.Table{})
	require.Len(t, got, NumFindings)
	for i, f := range got {
		assert.Equal(t, Slot(i+1), f.Slot)
		assert.False(t, f.Sufficient)
		assert.Equal(t, InsufficientData, f.Value)
		assert.NotEmpty(t, f.Label)
	}
}

func TestSynthesizeAllNullRatings(t *testing.T) {
	tbl := types.NewTable([]types.Column{types.ColCategory, types.ColCity, types.ColStarRating}, []types.Record{
		{Category: s("A"), City: s("Austin")},
		{Category: s("B"), City: s("Boston")},
	})
	got := Synthesize(tbl)
	assert.True(t, got[0].Sufficient)
	assert.Equal(t, "A (1)", got[0].Value, "tie goes to first seen")
	assert.False(t, got[1].Sufficient)
	assert.False(t, got[2].Sufficient)
	assert.False(t, got[3].Sufficient)
}

func TestSynthesizeCities(t *testing.T) {
	tbl := types.NewTable(
		[]types.Column{types.ColCity, types.ColStarRating, types.ColStateName, types.ColProductType},
		[]types.Record{
			{City: s("Boston"), StarRating: types.Ptr(4.0), StateName: s("Texas"), ProductType: s("kit")},
			{City: s("Austin"), StarRating: types.Ptr(4.0), StateName: s("Ohio"), ProductType: s("box")},
			{City: s("Dallas"), StarRating: types.Ptr(1.5), StateName: s("Ohio"), ProductType: s("box")},
		},
	)
	got := Synthesize(tbl)
	assert.Equal(t, "Boston (4.0)", got[2].Value)
	assert.Equal(t, "Dallas (1.5)", got[3].Value)
	assert.Equal(t, "Ohio", got[4].Value)
	assert.Equal(t, "box", got[5].Value)
}

func messageTable(n int) types.Table {
	recs := []types.Record{}
	for i := 0; i < n; i++ {
		recs = append(recs,
			types.Record{Sentiment: s("Positivo"), Message: s(fmt.Sprintf("good %d", i))},
			types.Record{Sentiment: s("Negativo"), Message: s(fmt.Sprintf("bad %d", i))},
		)
	}
	recs = append(recs, types.Record{Sentiment: s("Negativo")})
	return types.NewTable([]types.Column{types.ColSentiment, types.ColMessage}, recs)
}

func TestSampleCommentsSeeded(t *testing.T) {
	seed := int64(42)
	a := SampleComments(messageTable(10), 3, &seed)
	b := SampleComments(messageTable(10), 3, &seed)
	assert.Equal(t, a, b)

	require.Len(t, a, 3)
	assert.Equal(t, "Positivo", a[0].Sentiment)
	assert.Len(t, a[0].Comments, 3)
	assert.Empty(t, a[1].Comments)
	assert.Len(t, a[2].Comments, 3)

	seen := map[string]bool{}
	for _, c := range For(a, "Negativo") {
		assert.Contains(t, c, "bad ")
		assert.False(t, seen[c], "sampled without replacement")
		seen[c] = true
	}
}

func TestSampleCommentsFewerThanRequested(t *testing.T) {
	got := SampleComments(messageTable(2), 3, nil)
	assert.ElementsMatch(t, []string{"good 0", "good 1"}, For(got, "Positivo"))
	assert.Len(t, For(got, "Negativo"), 2)
	assert.Nil(t, For(got, "Other"))
}
