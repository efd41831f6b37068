package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderLowercasesAndOrders(t *testing.T) {
	b := NewBuilder()
	b.Add("EBITDA", "Earnings before interest, taxes, depreciation, and amortization.")
	b.Add("Net Present Value", "Present value of future cash flows minus the initial investment.")
	b.Add("  ROE ", "Return on equity.")
	v := b.Build()

	assert.Equal(t, []string{"ebitda", "net present value", "roe"}, v.Terms())
	assert.Equal(t, 3, v.Len())
	assert.True(t, v.Contains("Ebitda"))
}

func TestBuilderDuplicateLastWriteWins(t *testing.T) {
	b := NewBuilder()
	b.Add("ebitda", "first")
	b.Add("roe", "return on equity")
	b.Add("EBITDA", "second")
	v := b.Build()

	assert.Equal(t, []string{"ebitda", "roe"}, v.Terms(), "duplicate keeps first position")
	def, ok := v.Definition("ebitda")
	require.True(t, ok)
	assert.Equal(t, "second", def)
}

func TestBuilderSkipsBlankTerms(t *testing.T) {
	b := NewBuilder()
	b.Add("", "nothing")
	b.Add("   ", "nothing")
	assert.Equal(t, 0, b.Build().Len())
}

func TestDefinition(t *testing.T) {
	b := NewBuilder()
	b.Add("ebitda", "Earnings before interest.")
	v := b.Build()

	def, ok := v.Definition("EBITDA")
	assert.True(t, ok)
	assert.Equal(t, "Earnings before interest.", def)

	_, ok = v.Definition("")
	assert.False(t, ok)

	_, ok = v.Definition("gross margin")
	assert.False(t, ok)
}

func TestAliasesResolveToTerms(t *testing.T) {
	b := NewBuilder()
	b.AddEntry(Entry{
		Term:       "ebitda",
		Definition: "Earnings before interest, taxes, depreciation, and amortization.",
		Aliases:    []string{"Operating Earnings", "ebitda", ""},
	})
	b.AddEntry(Entry{Term: "roe", Definition: "Return on equity.", Aliases: []string{"return on equity"}})
	b.AddAlias("missing term", "orphan")
	b.AddAlias("roe", "ebitda") // collides with a term
	v := b.Build()

	assert.Equal(t, []string{"ebitda", "roe", "operating earnings", "return on equity"}, v.Candidates())
	assert.Equal(t, 2, v.AliasCount())

	term, ok := v.Canonical("operating earnings")
	require.True(t, ok)
	assert.Equal(t, "ebitda", term)

	term, ok = v.Canonical("roe")
	require.True(t, ok)
	assert.Equal(t, "roe", term)

	_, ok = v.Canonical("orphan")
	assert.False(t, ok)

	// every candidate resolves to a key with a definition
	for _, c := range v.Candidates() {
		term, ok := v.Canonical(c)
		require.True(t, ok, c)
		assert.True(t, v.Contains(term), term)
	}
}

func TestBuildIsImmutable(t *testing.T) {
	b := NewBuilder()
	b.Add("ebitda", "one")
	v := b.Build()

	b.Add("roe", "two")
	b.Add("ebitda", "changed")

	assert.Equal(t, 1, v.Len())
	def, _ := v.Definition("ebitda")
	assert.Equal(t, "one", def)
}

func TestFingerprint(t *testing.T) {
	build := func(def string) *Vocabulary {
		b := NewBuilder()
		b.Add("ebitda", def)
		b.AddAlias("ebitda", "operating earnings")
		return b.Build()
	}

	assert.Equal(t, build("x").Fingerprint(), build("x").Fingerprint())
	assert.NotEqual(t, build("x").Fingerprint(), build("y").Fingerprint())
}

func TestEntriesRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AddEntry(Entry{Term: "ebitda", Definition: "d1", Aliases: []string{"operating earnings"}})
	b.AddEntry(Entry{Term: "roe", Definition: "d2"})
	v := b.Build()

	entries := v.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Term: "ebitda", Definition: "d1", Aliases: []string{"operating earnings"}}, entries[0])
	assert.Equal(t, Entry{Term: "roe", Definition: "d2"}, entries[1])

	b2 := NewBuilder()
	for _, e := range entries {
		b2.AddEntry(e)
	}
	assert.Equal(t, v.Fingerprint(), b2.Build().Fingerprint())
}
