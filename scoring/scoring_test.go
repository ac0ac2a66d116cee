package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	for _, bad := range []string{"", "invalid_category", "DeFi", "NFT", " defi"} {
		_, err := ParseCategory(bad)
		assert.ErrorIs(t, err, ErrInvalidCategory, bad)
	}
}

func TestScoresTotal(t *testing.T) {
	s := Scores{20, 30, 15, 0}
	total, ok := s.Total()
	require.True(t, ok)
	assert.Equal(t, uint64(65), total)
	assert.Equal(t, uint64(30), s.Get(CategoryNFT))

	_, ok = Scores{math.MaxUint64, 1, 0, 0}.Total()
	assert.False(t, ok)

	total, ok = Scores{MaxScore, 0, 0, 0}.Total()
	require.True(t, ok)
	assert.Equal(t, MaxScore, total)
	_, ok = Scores{MaxScore, 1, 0, 0}.Total()
	assert.False(t, ok, "sum above the signed 64-bit range")

	assert.Equal(t, uint64(65), s.CappedTotal())
	assert.Equal(t, MaxScore, Scores{MaxScore, MaxScore, 0, 0}.CappedTotal())
}

func TestResolveTierBoundaries(t *testing.T) {
	cases := []struct {
		score uint64
		want  int
	}{
		{0, 0}, {49, 0}, {50, 1}, {149, 1}, {150, 2},
		{299, 2}, {300, 3}, {499, 3}, {500, 4}, {math.MaxUint64, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DefaultTiers.Resolve(tc.score), "score %d", tc.score)
	}
	for _, tier := range DefaultTiers.Tiers() {
		assert.Equal(t, tier.Index, DefaultTiers.Resolve(tier.Threshold))
	}
}

func TestResolveTierMonotonic(t *testing.T) {
	prev := 0
	for s := uint64(0); s <= 700; s++ {
		got := DefaultTiers.Resolve(s)
		require.GreaterOrEqual(t, got, prev, "score %d", s)
		prev = got
	}
}

func TestNewTierTableRejectsBadThresholds(t *testing.T) {
	_, err := NewTierTable()
	assert.Error(t, err)
	_, err = NewTierTable(Tier{Name: "a", Threshold: 10})
	assert.Error(t, err)
	_, err = NewTierTable(Tier{Name: "a"}, Tier{Name: "b", Threshold: 5}, Tier{Name: "c", Threshold: 5})
	assert.Error(t, err)
}

func TestTierProgress(t *testing.T) {
	p := DefaultTiers.Progress(100)
	assert.Equal(t, "Silver", p.Current.Name)
	require.NotNil(t, p.Next)
	assert.Equal(t, "Gold", p.Next.Name)
	assert.Equal(t, uint64(50), p.PointsToNext)
	assert.InDelta(t, 50.0, p.PercentToNext, 0.001)

	top := DefaultTiers.Progress(900)
	assert.Nil(t, top.Next)
	assert.Equal(t, 100.0, top.PercentToNext)
}

func TestStreakPolicies(t *testing.T) {
	const day = int64(secondsPerDay)
	start := 10 * day

	for _, p := range []StreakPolicy{StreakReset, StreakFreeze, StreakIncrement} {
		assert.Equal(t, uint64(3), p.NextStreak(3, start, start+day-1), "%s same day", p)
		assert.Equal(t, uint64(4), p.NextStreak(3, start, start+day), "%s next day", p)
		assert.Equal(t, uint64(3), p.NextStreak(3, start, start-5), "%s clock behind", p)
	}

	assert.Equal(t, uint64(1), StreakReset.NextStreak(7, start, start+3*day))
	assert.Equal(t, uint64(7), StreakFreeze.NextStreak(7, start, start+3*day))
	assert.Equal(t, uint64(8), StreakIncrement.NextStreak(7, start, start+3*day))
}

func TestParseStreakPolicy(t *testing.T) {
	p, err := ParseStreakPolicy("")
	require.NoError(t, err)
	assert.Equal(t, StreakReset, p)

	p, err = ParseStreakPolicy(" Freeze ")
	require.NoError(t, err)
	assert.Equal(t, StreakFreeze, p)

	_, err = ParseStreakPolicy("forever")
	assert.Error(t, err)
}

func TestMetadataDeterministic(t *testing.T) {
	snap := Snapshot{RecordID: 1, Owner: "0xabc", TotalScore: 55, StreakDays: 2, Tier: 1, Scores: Scores{30, 25, 0, 0}}

	a, err := EncodeMetadata(DefaultTiers, snap)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		b, err := EncodeMetadata(DefaultTiers, snap)
		require.NoError(t, err)
		require.Equal(t, a, b)
	}

	snap.Scores[3] = 1
	c, err := EncodeMetadata(DefaultTiers, snap)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestTokenURIRoundTrip(t *testing.T) {
	snap := Snapshot{RecordID: 7, TotalScore: 160, Tier: 2, StreakDays: 1, Scores: Scores{100, 60, 0, 0}}
	uri, err := TokenURI(DefaultTiers, snap)
	require.NoError(t, err)
	assert.Contains(t, uri, "data:application/json;base64,")
	assert.Greater(t, len(uri), 100)

	m, err := DecodeTokenURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "MetaScore #7", m.Name)
	assert.Equal(t, "Gold", m.TierName)
	assert.Equal(t, uint64(160), m.TotalScore)
	require.Len(t, m.Attributes, 8)
	assert.Equal(t, "DeFi Score", m.Attributes[4].TraitType)
	assert.Equal(t, float64(100), m.Attributes[4].Value)

	_, err = DecodeTokenURI("https://example.com/1.json")
	assert.Error(t, err)
}

func TestParseIdentity(t *testing.T) {
	addr, err := ParseIdentity("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", addr.Hex())

	for _, bad := range []string{"", "0x0000000000000000000000000000000000000000", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x1234", "alice"} {
		_, err := ParseIdentity(bad)
		assert.ErrorIs(t, err, ErrInvalidIdentity, bad)
	}
}
