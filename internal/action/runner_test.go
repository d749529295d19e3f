package action

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/allowctl/internal/allowance"
	"github.com/Mohsinsiddi/allowctl/internal/registry"
	"github.com/Mohsinsiddi/allowctl/internal/risk"
)

const testAccount = "0x0AFc8e15F0A74E98d0AEC6C67389D2231384D4B2"

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

// fakeChain is a scriptable reader+writer over an in-memory allowance map.
type fakeChain struct {
	decimals     map[string]int // keyed by lowercased token address
	allowances   map[string]*big.Int
	failReads    map[string]bool // tokens whose reads fail
	submitted    []*big.Int
	submitErr    error
	confirmErr   error
	awaitedHash  string
	submitCalled int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		decimals:   make(map[string]int),
		allowances: make(map[string]*big.Int),
		failReads:  make(map[string]bool),
	}
}

func (f *fakeChain) key(token string) string { return strings.ToLower(token) }

func (f *fakeChain) Decimals(token string) (int, error) {
	if f.failReads[f.key(token)] {
		return 0, errors.New("execution reverted")
	}
	d, ok := f.decimals[f.key(token)]
	if !ok {
		return 0, errors.New("no such token")
	}
	return d, nil
}

func (f *fakeChain) Symbol(token string) (string, error) { return "", errors.New("not set") }
func (f *fakeChain) Name(token string) (string, error)   { return "", errors.New("not set") }

func (f *fakeChain) Allowance(owner, token, spender string) (*big.Int, error) {
	if f.failReads[f.key(token)] {
		return nil, errors.New("rpc timeout")
	}
	raw, ok := f.allowances[f.key(token)]
	if !ok {
		raw = big.NewInt(0)
	}
	return new(big.Int).Set(raw), nil
}

func (f *fakeChain) SubmitApproval(token, spender string, amount *big.Int) (string, error) {
	f.submitCalled++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, new(big.Int).Set(amount))
	f.allowances[f.key(token)] = new(big.Int).Set(amount)
	return "0xhash", nil
}

func (f *fakeChain) AwaitConfirmation(hash string) error {
	f.awaitedHash = hash
	return f.confirmErr
}

func (f *fakeChain) setToken(tok registry.Token, decimals int, raw *big.Int) {
	f.decimals[f.key(tok.Address)] = decimals
	f.allowances[f.key(tok.Address)] = raw
}

func newTestRunner(t *testing.T, chain *fakeChain, opts ...RunnerOption) (*Runner, *registry.Registry, *allowance.Book) {
	t.Helper()
	book := allowance.NewBook()
	reg := registry.New(&registry.MemStore{}, registry.WithSpenderChangeHook(book.Reset))
	opts = append([]RunnerOption{WithAccount(testAccount)}, opts...)
	return NewRunner(reg, book, chain, chain, opts...), reg, book
}

func usdc(reg *registry.Registry) registry.Token {
	tok, _ := reg.Lookup("USDC")
	return tok
}

// ---------------------------------------------------------------------------
// preconditions
// ---------------------------------------------------------------------------

func TestCheckRequiresAccount(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain)
	r.Apply(AccountChanged{Address: ""})

	_, err := r.Check(usdc(reg))
	assert.ErrorIs(t, err, ErrNoAccount)
}

func TestCheckRequiresSpender(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain)
	require.NoError(t, reg.ClearCustomSpender()) // custom mode, nothing applied

	_, err := r.Check(usdc(reg))
	assert.ErrorIs(t, err, ErrNoSpender)
}

func TestBusyRejectsSecondOperation(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain)

	require.NoError(t, r.begin("refresh"))
	_, err := r.Check(usdc(reg))
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, "refresh", r.Busy())

	r.end()
	assert.Empty(t, r.Busy())
}

// ---------------------------------------------------------------------------
// Check
// ---------------------------------------------------------------------------

func TestCheckRecordsSnapshot(t *testing.T) {
	chain := newFakeChain()
	r, reg, book := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(5_000_000_000))

	snap, err := r.Check(tok)
	require.NoError(t, err)
	assert.Equal(t, risk.TierMedium, snap.Class.Tier)
	assert.Equal(t, "5000.0", snap.Formatted)

	_, ok := book.Get(tok.Address)
	assert.True(t, ok)
	assert.Empty(t, r.Busy())
}

func TestCheckFailureKeepsPriorSnapshot(t *testing.T) {
	chain := newFakeChain()
	r, reg, book := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(100))

	_, err := r.Check(tok)
	require.NoError(t, err)

	chain.failReads[chain.key(tok.Address)] = true
	_, err = r.Check(tok)
	assert.ErrorIs(t, err, ErrReadFailed)

	snap, ok := book.Get(tok.Address)
	require.True(t, ok)
	assert.Equal(t, int64(100), snap.Raw.Int64())
	assert.Empty(t, r.Busy())
}

// ---------------------------------------------------------------------------
// RefreshAll
// ---------------------------------------------------------------------------

func TestRefreshAllContinuesPastFailures(t *testing.T) {
	chain := newFakeChain()
	r, reg, book := newTestRunner(t, chain)

	tokens := reg.Tokens()
	for _, tok := range tokens {
		chain.setToken(tok, 18, big.NewInt(1))
	}
	// Token in the middle of the order fails.
	chain.failReads[chain.key(tokens[2].Address)] = true

	report, err := r.RefreshAll()
	require.NoError(t, err)
	assert.Equal(t, len(tokens)-1, report.Updated)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, tokens[2].Address, report.Failures[0].Token.Address)
	assert.ErrorIs(t, report.Failures[0].Err, ErrReadFailed)

	// All other tokens still got snapshots; lock released.
	assert.Equal(t, len(tokens)-1, book.Len())
	assert.Empty(t, r.Busy())
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

func TestApproveParsesAmountWithLiveDecimals(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(0))

	result, err := r.Approve(tok, "250.5")
	require.NoError(t, err)
	assert.Equal(t, "0xhash", result.Hash)
	require.Len(t, chain.submitted, 1)
	assert.Equal(t, big.NewInt(250_500_000), chain.submitted[0])

	// Post-write snapshot refresh.
	require.NotNil(t, result.Snapshot)
	assert.Equal(t, "250.5", result.Snapshot.Formatted)
}

func TestApproveEmptyAmountDegradesToZero(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(7))

	_, err := r.Approve(tok, "")
	require.NoError(t, err)
	require.Len(t, chain.submitted, 1)
	assert.Zero(t, chain.submitted[0].Sign())

	_, err = r.Approve(tok, "not a number")
	require.NoError(t, err)
	assert.Zero(t, chain.submitted[1].Sign())
}

func TestApproveUnlimitedSubmitsMaxUint256(t *testing.T) {
	chain := newFakeChain()
	r, reg, book := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(0))

	result, err := r.ApproveUnlimited(tok)
	require.NoError(t, err)
	assert.Equal(t, 0, chain.submitted[0].Cmp(risk.MaxUint256()))

	require.NotNil(t, result.Snapshot)
	assert.True(t, result.Snapshot.Class.UnlimitedExact)

	snap, _ := book.Get(tok.Address)
	assert.Equal(t, risk.TierHigh, snap.Class.Tier)
}

func TestRevokeSubmitsZero(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(1_000_000))

	result, err := r.Revoke(tok)
	require.NoError(t, err)
	assert.Zero(t, chain.submitted[0].Sign())
	require.NotNil(t, result.Snapshot)
	assert.Equal(t, risk.TierLow, result.Snapshot.Class.Tier)
}

func TestWriteUserCancelled(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain, WithPrompt(func(WriteRequest) bool { return false }))
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(0))

	_, err := r.Revoke(tok)
	assert.ErrorIs(t, err, ErrUserCancelled)
	assert.NotErrorIs(t, err, ErrWriteFailed)
	assert.Zero(t, chain.submitCalled)
	assert.Empty(t, r.Busy())
}

func TestWritePromptSeesParsedAmount(t *testing.T) {
	chain := newFakeChain()
	var seen WriteRequest
	r, reg, _ := newTestRunner(t, chain, WithPrompt(func(req WriteRequest) bool {
		seen = req
		return true
	}))
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(0))

	_, err := r.Approve(tok, "42")
	require.NoError(t, err)
	assert.Equal(t, "approve", seen.Op)
	assert.Equal(t, "42.0", seen.Amount)
	assert.Equal(t, tok.Address, seen.Token.Address)
}

func TestWriteSubmitFailure(t *testing.T) {
	chain := newFakeChain()
	chain.submitErr = errors.New("nonce too low")
	r, reg, _ := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(0))

	_, err := r.Approve(tok, "1")
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.Empty(t, r.Busy())
}

func TestWriteRevertReleasesLock(t *testing.T) {
	chain := newFakeChain()
	chain.confirmErr = errors.New("transaction reverted")
	r, reg, _ := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(0))

	result, err := r.Revoke(tok)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.Equal(t, "0xhash", result.Hash)
	assert.Empty(t, r.Busy())
}

// ---------------------------------------------------------------------------
// AddToken
// ---------------------------------------------------------------------------

func TestAddTokenThroughRunner(t *testing.T) {
	chain := newFakeChain()
	r, reg, _ := newTestRunner(t, chain)
	const uni = "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"
	chain.decimals[chain.key(uni)] = 18

	tok, err := r.AddToken(uni, "uni")
	require.NoError(t, err)
	assert.Equal(t, "UNI", tok.Symbol)
	_, ok := reg.Lookup("UNI")
	assert.True(t, ok)
	assert.Empty(t, r.Busy())
}

func TestAddTokenValidationFailure(t *testing.T) {
	chain := newFakeChain()
	r, _, _ := newTestRunner(t, chain)

	_, err := r.AddToken("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", "UNI")
	assert.ErrorIs(t, err, registry.ErrTokenValidation)
	assert.Empty(t, r.Busy())
}

// ---------------------------------------------------------------------------
// spender switch invalidation + events
// ---------------------------------------------------------------------------

func TestSpenderSwitchClearsSnapshots(t *testing.T) {
	chain := newFakeChain()
	r, reg, book := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(123))

	_, err := r.Check(tok)
	require.NoError(t, err)
	require.Equal(t, 1, book.Len())

	// preset → preset
	require.NoError(t, reg.SelectPreset("permit2"))
	assert.Zero(t, book.Len())

	_, err = r.Check(tok)
	require.NoError(t, err)

	// preset → custom
	_, err = reg.ApplyCustomSpender("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	require.NoError(t, err)
	assert.Zero(t, book.Len())
}

func TestEventsResyncAndInvalidate(t *testing.T) {
	chain := newFakeChain()
	r, reg, book := newTestRunner(t, chain)
	tok := usdc(reg)
	chain.setToken(tok, 6, big.NewInt(123))

	_, err := r.Check(tok)
	require.NoError(t, err)

	r.Apply(NetworkChanged{ID: 8453})
	assert.Equal(t, int64(8453), r.NetworkID())
	assert.Zero(t, book.Len())

	_, err = r.Check(tok)
	require.NoError(t, err)

	r.Apply(AccountChanged{Address: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"})
	assert.Zero(t, book.Len())

	// Disconnect: operations fail fast again.
	r.Apply(AccountChanged{Address: ""})
	_, err = r.Check(tok)
	assert.ErrorIs(t, err, ErrNoAccount)
}
