package allowance

import (
	"math/big"
	"sort"
	"strings"

	"github.com/Mohsinsiddi/allowctl/internal/registry"
	"github.com/Mohsinsiddi/allowctl/internal/risk"
)

// Snapshot is the classified result of one (owner, token, spender) read.
// It is only meaningful for the spender it was read against.
type Snapshot struct {
	Raw       *big.Int
	Decimals  int
	Formatted string
	Class     risk.Classification
}

// Book holds the latest snapshot per token, keyed by lowercased address.
// Absent means "not read yet", which is distinct from a zero allowance.
type Book struct {
	snapshots map[string]Snapshot
}

// NewBook creates an empty snapshot book.
func NewBook() *Book {
	return &Book{snapshots: make(map[string]Snapshot)}
}

// Record classifies and formats a freshly read allowance and stores it,
// overwriting any prior snapshot for the token.
func (b *Book) Record(tokenAddress string, raw *big.Int, decimals int) Snapshot {
	snap := Snapshot{
		Raw:       new(big.Int).Set(raw),
		Decimals:  decimals,
		Formatted: FormatUnits(raw, decimals),
		Class:     risk.Classify(raw, decimals),
	}
	b.snapshots[strings.ToLower(tokenAddress)] = snap
	return snap
}

// Get returns the snapshot for a token, if one has been recorded.
func (b *Book) Get(tokenAddress string) (Snapshot, bool) {
	snap, ok := b.snapshots[strings.ToLower(tokenAddress)]
	return snap, ok
}

// Len reports how many tokens have snapshots.
func (b *Book) Len() int {
	return len(b.snapshots)
}

// Reset drops every snapshot. Must run whenever the active spender (or the
// network) changes — old reads no longer describe anything real.
func (b *Book) Reset() {
	b.snapshots = make(map[string]Snapshot)
}

// Ordered returns the tokens in registry order, or when byRisk is set, sorted
// by descending risk rank with case-insensitive symbol as the tiebreak.
// Tokens without a snapshot rank below every classified token.
func (b *Book) Ordered(tokens []registry.Token, byRisk bool) []registry.Token {
	out := append([]registry.Token(nil), tokens...)
	if !byRisk {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := b.rank(out[i]), b.rank(out[j])
		if ri != rj {
			return ri > rj
		}
		return strings.ToLower(out[i].Symbol) < strings.ToLower(out[j].Symbol)
	})
	return out
}

func (b *Book) rank(tok registry.Token) int {
	snap, ok := b.Get(tok.Address)
	if !ok {
		return 0
	}
	return snap.Class.Tier.Rank()
}
