package allowance

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/allowctl/internal/registry"
	"github.com/Mohsinsiddi/allowctl/internal/risk"
)

func units(n int64, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return scale.Mul(scale, big.NewInt(n))
}

// ---------------------------------------------------------------------------
// Record / Get / Reset
// ---------------------------------------------------------------------------

func TestBookRecordAndGet(t *testing.T) {
	b := NewBook()
	snap := b.Record("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", big.NewInt(5_000_000_000), 6)

	assert.Equal(t, risk.TierMedium, snap.Class.Tier)
	assert.Equal(t, "5000.0", snap.Formatted)

	// Lookup is case-insensitive.
	got, ok := b.Get("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	require.True(t, ok)
	assert.Equal(t, snap, got)
}

func TestBookRecordOverwrites(t *testing.T) {
	b := NewBook()
	addr := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	b.Record(addr, units(20_000, 6), 6)
	b.Record(addr, big.NewInt(0), 6)

	snap, ok := b.Get(addr)
	require.True(t, ok)
	assert.Equal(t, risk.TierLow, snap.Class.Tier)
	assert.Equal(t, 1, b.Len())
}

func TestBookAbsentUntilFirstRead(t *testing.T) {
	b := NewBook()
	_, ok := b.Get("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	assert.False(t, ok)
}

func TestBookRecordCopiesRaw(t *testing.T) {
	b := NewBook()
	raw := big.NewInt(100)
	b.Record("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", raw, 6)
	raw.SetInt64(999)

	snap, _ := b.Get("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	assert.Equal(t, int64(100), snap.Raw.Int64())
}

func TestBookReset(t *testing.T) {
	b := NewBook()
	b.Record("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", units(1, 6), 6)
	b.Record("0x6B175474E89094C44Da98b954EedeAC495271d0F", units(1, 18), 18)
	b.Reset()
	assert.Equal(t, 0, b.Len())
}

// ---------------------------------------------------------------------------
// Ordered
// ---------------------------------------------------------------------------

func orderedSymbols(toks []registry.Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Symbol
	}
	return out
}

func TestOrderedRegistryOrderByDefault(t *testing.T) {
	tokens := []registry.Token{
		{Address: "0x0000000000000000000000000000000000000001", Symbol: "ZZZ"},
		{Address: "0x0000000000000000000000000000000000000002", Symbol: "AAA"},
	}
	b := NewBook()
	assert.Equal(t, []string{"ZZZ", "AAA"}, orderedSymbols(b.Ordered(tokens, false)))
}

func TestOrderedByRisk(t *testing.T) {
	tokens := []registry.Token{
		{Address: "0x0000000000000000000000000000000000000001", Symbol: "low"},
		{Address: "0x0000000000000000000000000000000000000002", Symbol: "HIGH"},
		{Address: "0x0000000000000000000000000000000000000003", Symbol: "MED"},
		{Address: "0x0000000000000000000000000000000000000004", Symbol: "UNREAD"},
	}
	b := NewBook()
	b.Record(tokens[0].Address, big.NewInt(1), 6)
	b.Record(tokens[1].Address, units(50_000, 6), 6)
	b.Record(tokens[2].Address, units(2_000, 6), 6)
	// tokens[3] never read: ranks below everything.

	assert.Equal(t, []string{"HIGH", "MED", "low", "UNREAD"},
		orderedSymbols(b.Ordered(tokens, true)))
}

func TestOrderedTieBreakBySymbolCaseInsensitive(t *testing.T) {
	tokens := []registry.Token{
		{Address: "0x0000000000000000000000000000000000000001", Symbol: "beta"},
		{Address: "0x0000000000000000000000000000000000000002", Symbol: "ALPHA"},
	}
	b := NewBook()
	b.Record(tokens[0].Address, units(50_000, 6), 6)
	b.Record(tokens[1].Address, units(50_000, 6), 6)

	assert.Equal(t, []string{"ALPHA", "beta"}, orderedSymbols(b.Ordered(tokens, true)))
}

func TestOrderedDoesNotMutateInput(t *testing.T) {
	tokens := []registry.Token{
		{Address: "0x0000000000000000000000000000000000000001", Symbol: "B"},
		{Address: "0x0000000000000000000000000000000000000002", Symbol: "A"},
	}
	b := NewBook()
	b.Record(tokens[1].Address, units(50_000, 6), 6)
	_ = b.Ordered(tokens, true)
	assert.Equal(t, "B", tokens[0].Symbol)
}
