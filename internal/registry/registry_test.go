package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// fakeReader is a scriptable TokenReader.
type fakeReader struct {
	decimals    int
	decimalsErr error
	symbol      string
	symbolErr   error
	name        string
	nameErr     error
}

func (f *fakeReader) Decimals(string) (int, error)  { return f.decimals, f.decimalsErr }
func (f *fakeReader) Symbol(string) (string, error) { return f.symbol, f.symbolErr }
func (f *fakeReader) Name(string) (string, error)   { return f.name, f.nameErr }

const customAddr = "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984" // UNI

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(&MemStore{})
}

// ---------------------------------------------------------------------------
// built-ins
// ---------------------------------------------------------------------------

func TestBuiltinsPresentAtStartup(t *testing.T) {
	r := newTestRegistry(t)
	tokens := r.Tokens()
	require.NotEmpty(t, tokens)
	for _, tok := range tokens {
		assert.False(t, tok.Custom)
	}
	_, ok := r.Lookup("USDC")
	assert.True(t, ok)
}

func TestRemoveBuiltinIsNoOp(t *testing.T) {
	r := newTestRegistry(t)
	before := r.Tokens()

	usdc, _ := r.Lookup("USDC")
	removed, err := r.RemoveCustom(usdc.Address)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, before, r.Tokens())
}

// ---------------------------------------------------------------------------
// AddCustom
// ---------------------------------------------------------------------------

func TestAddCustomToken(t *testing.T) {
	r := newTestRegistry(t)
	tok, err := r.AddCustom(customAddr, "uni", &fakeReader{decimals: 18, name: "Uniswap"})
	require.NoError(t, err)

	assert.Equal(t, customAddr, tok.Address) // checksummed form preserved
	assert.Equal(t, "UNI", tok.Symbol)
	assert.Equal(t, "Uniswap", tok.Name)
	assert.True(t, tok.Custom)

	got, ok := r.Lookup("UNI")
	require.True(t, ok)
	assert.Equal(t, tok, got)
}

func TestAddCustomInvalidAddress(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddCustom("not-an-address", "X", &fakeReader{decimals: 18})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddCustomDuplicateOfBuiltin(t *testing.T) {
	r := newTestRegistry(t)
	usdc, _ := r.Lookup("USDC")
	before := r.Tokens()

	// Same address, different case.
	_, err := r.AddCustom("0x"+lowerHex(usdc.Address), "USDC2", &fakeReader{decimals: 6})
	assert.ErrorIs(t, err, ErrDuplicateToken)
	assert.Equal(t, before, r.Tokens())
}

func TestAddCustomDuplicateOfCustom(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddCustom(customAddr, "UNI", &fakeReader{decimals: 18})
	require.NoError(t, err)
	_, err = r.AddCustom(customAddr, "UNI2", &fakeReader{decimals: 18})
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

func TestAddCustomDecimalsFailureAborts(t *testing.T) {
	r := newTestRegistry(t)
	before := len(r.Tokens())
	_, err := r.AddCustom(customAddr, "UNI", &fakeReader{decimalsErr: errors.New("execution reverted")})
	assert.ErrorIs(t, err, ErrTokenValidation)
	assert.Len(t, r.Tokens(), before)
}

func TestAddCustomSymbolNameBestEffort(t *testing.T) {
	r := newTestRegistry(t)
	// Empty label, symbol lookup fails, name lookup fails: placeholders win.
	tok, err := r.AddCustom(customAddr, "", &fakeReader{
		decimals:  18,
		symbolErr: errors.New("no symbol()"),
		nameErr:   errors.New("no name()"),
	})
	require.NoError(t, err)
	assert.Equal(t, "TOKEN", tok.Symbol)
	assert.Equal(t, "Custom Token", tok.Name)
}

func TestAddCustomSymbolFromChainWhenNoLabel(t *testing.T) {
	r := newTestRegistry(t)
	tok, err := r.AddCustom(customAddr, "", &fakeReader{decimals: 18, symbol: "uni", name: "Uniswap"})
	require.NoError(t, err)
	assert.Equal(t, "UNI", tok.Symbol)
}

func TestRemoveCustomToken(t *testing.T) {
	r := newTestRegistry(t)
	tok, err := r.AddCustom(customAddr, "UNI", &fakeReader{decimals: 18})
	require.NoError(t, err)

	removed, err := r.RemoveCustom(tok.Address)
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok := r.Lookup("UNI")
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// sanitization
// ---------------------------------------------------------------------------

func TestSanitizeSymbol(t *testing.T) {
	assert.Equal(t, "UNI", SanitizeSymbol("uni"))
	assert.Equal(t, "MY_TOKEN", SanitizeSymbol("my token!"))
	assert.Equal(t, "ABCDEFGHIJKL", SanitizeSymbol("abcdefghijklmnop"))
	assert.Equal(t, "TOKEN", SanitizeSymbol("!!!"))
	assert.Equal(t, "TOKEN", SanitizeSymbol(""))
}

// ---------------------------------------------------------------------------
// persistence
// ---------------------------------------------------------------------------

func TestPersistenceRoundTrip(t *testing.T) {
	store := &MemStore{}
	r := New(store)
	_, err := r.AddCustom(customAddr, "UNI", &fakeReader{decimals: 18})
	require.NoError(t, err)
	require.NoError(t, r.SelectPreset("permit2"))

	r2 := New(store)
	_, ok := r2.Lookup("UNI")
	assert.True(t, ok)
	addr, label, ok := r2.ActiveSpender()
	require.True(t, ok)
	assert.Equal(t, "Uniswap Permit2", label)
	assert.NotEmpty(t, addr)
}

func TestLoadDropsCustomCollidingWithBuiltin(t *testing.T) {
	usdc := builtinTokens[0]
	store := &MemStore{state: &State{
		CustomTokens: []Token{
			{Address: usdc.Address, Symbol: "FAKE", Custom: true},
			{Address: customAddr, Symbol: "UNI", Custom: true},
		},
	}}
	r := New(store)

	got, ok := r.Lookup(usdc.Address)
	require.True(t, ok)
	assert.Equal(t, usdc.Symbol, got.Symbol)
	assert.False(t, got.Custom)

	_, ok = r.Lookup("UNI")
	assert.True(t, ok)
}

func TestLoadFailureFallsBackToDefaults(t *testing.T) {
	r := New(&failingStore{})
	assert.NotEmpty(t, r.Tokens())
	_, _, ok := r.ActiveSpender()
	assert.True(t, ok)
}

type failingStore struct{}

func (f *failingStore) Load() (*State, error) { return nil, errors.New("corrupt file") }
func (f *failingStore) Save(*State) error     { return nil }

func lowerHex(addr string) string {
	out := make([]byte, 0, len(addr)-2)
	for i := 2; i < len(addr); i++ {
		c := addr[i]
		if c >= 'A' && c <= 'F' {
			c += 32
		}
		out = append(out, c)
	}
	return string(out)
}
