package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Palmergill/poker-app/internal/randutil"
)

func TestCardString(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{NewCard(Ace, Spades), "AS"},
		{NewCard(Ten, Hearts), "10H"},
		{NewCard(Two, Clubs), "2C"},
		{NewCard(Jack, Diamonds), "JD"},
		{NewCard(Queen, Spades), "QS"},
		{NewCard(King, Hearts), "KH"},
		{NewCard(Nine, Diamonds), "9D"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.card.String())
	}
}

func TestParseRoundTrip(t *testing.T) {
	d := New(nil)
	for _, c := range d.Cards() {
		parsed, err := Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "A", "AX", "1S", "11H", "10", "AHH"} {
		_, err := Parse(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestNewDeckHas52DistinctCards(t *testing.T) {
	d := New(nil)
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	for _, c := range d.Cards() {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShufflePreservesMultiset(t *testing.T) {
	d := New(randutil.New(42))
	before := make(map[Card]bool)
	for _, c := range d.Cards() {
		before[c] = true
	}

	d.Shuffle()
	require.Equal(t, 52, d.Remaining())
	for _, c := range d.Cards() {
		assert.True(t, before[c])
	}
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	a := New(randutil.New(7))
	b := New(randutil.New(7))
	a.Shuffle()
	b.Shuffle()
	assert.Equal(t, a.Cards(), b.Cards())

	c := New(randutil.New(8))
	c.Shuffle()
	assert.NotEqual(t, a.Cards(), c.Cards())
}

func TestDeal(t *testing.T) {
	d := New(nil)
	top := d.Cards()[:5]

	cards, err := d.Deal(5)
	require.NoError(t, err)
	assert.Equal(t, top, cards)
	assert.Equal(t, 47, d.Remaining())
}

func TestDealExhausted(t *testing.T) {
	d := FromCards([]Card{MustParse("AS"), MustParse("KS")})
	_, err := d.Deal(3)
	require.ErrorIs(t, err, ErrDeckExhausted)
	assert.Equal(t, 2, d.Remaining())
}

func TestRemove(t *testing.T) {
	d := New(nil)
	require.True(t, d.Remove(MustParse("AS")))
	assert.Equal(t, 51, d.Remaining())
	assert.False(t, d.Remove(MustParse("AS")))
}
