package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrDuplicateToken  = errors.New("token already tracked")
	ErrTokenValidation = errors.New("token validation failed")
)

// Token is one tracked ERC-20 contract. Address is EIP-55 checksummed and is
// the identity key (compared case-insensitively).
type Token struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Custom  bool   `json:"custom"`
}

// TokenReader resolves on-chain token metadata. Decimals is the liveness
// check for adding a token; Symbol and Name are best-effort.
type TokenReader interface {
	Decimals(token string) (int, error)
	Symbol(token string) (string, error)
	Name(token string) (string, error)
}

// State is the persisted portion of the registry: only custom tokens and the
// spender selection. Built-ins are re-derived at startup.
type State struct {
	CustomTokens []Token      `json:"custom_tokens"`
	Spender      SpenderState `json:"spender"`
}

// Store persists registry state.
type Store interface {
	Load() (*State, error)
	Save(*State) error
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	state *State
}

func (s *MemStore) Load() (*State, error) { return s.state, nil }
func (s *MemStore) Save(st *State) error  { s.state = st; return nil }

// builtinTokens is the default watch set, re-created on every start.
var builtinTokens = []Token{
	{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Name: "USD Coin"},
	{Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Symbol: "USDT", Name: "Tether USD"},
	{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", Name: "Dai Stablecoin"},
	{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH", Name: "Wrapped Ether"},
	{Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Symbol: "LINK", Name: "ChainLink Token"},
}

// Registry is the single source of truth for tracked tokens and the active
// spender. Not safe for concurrent use; all mutation happens on the single
// command/UI flow.
type Registry struct {
	store           Store
	builtins        []Token
	customs         []Token
	spender         SpenderState
	onSpenderChange func()
}

// Option configures a Registry.
type Option func(*Registry)

// WithSpenderChangeHook registers a hook fired inside every applied-spender
// change, before the call returns. Allowance snapshots read against the old
// spender are meaningless, so callers use this to drop them atomically.
func WithSpenderChangeHook(fn func()) Option {
	return func(r *Registry) { r.onSpenderChange = fn }
}

// New builds a registry from the store. Missing or corrupt persisted state is
// not an error: the registry starts from defaults.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		builtins: append([]Token(nil), builtinTokens...),
		spender:  defaultSpenderState(),
	}
	for _, opt := range opts {
		opt(r)
	}

	st, err := store.Load()
	if err != nil || st == nil {
		return r
	}
	for _, tok := range st.CustomTokens {
		if !common.IsHexAddress(tok.Address) {
			continue
		}
		// A persisted custom that collides with a built-in would create two
		// identities for one contract; drop it.
		if _, exists := r.find(tok.Address); exists {
			continue
		}
		tok.Address = common.HexToAddress(tok.Address).Hex()
		tok.Custom = true
		r.customs = append(r.customs, tok)
	}
	if st.Spender.valid() {
		r.spender = st.Spender
	}
	return r
}

// Tokens returns the full working set, built-ins first, in stable order.
func (r *Registry) Tokens() []Token {
	out := make([]Token, 0, len(r.builtins)+len(r.customs))
	out = append(out, r.builtins...)
	out = append(out, r.customs...)
	return out
}

// Lookup finds a token by symbol (case-insensitive) or address.
func (r *Registry) Lookup(ref string) (Token, bool) {
	if common.IsHexAddress(ref) {
		return r.find(ref)
	}
	for _, tok := range r.Tokens() {
		if strings.EqualFold(tok.Symbol, ref) {
			return tok, true
		}
	}
	return Token{}, false
}

// AddCustom validates and registers a user-supplied token. The token must
// answer a decimals() call to prove it is a live ERC-20; symbol and name
// lookups may fail independently without aborting the add.
func (r *Registry) AddCustom(address, label string, reader TokenReader) (Token, error) {
	if !common.IsHexAddress(address) {
		return Token{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	checksummed := common.HexToAddress(address).Hex()
	if _, exists := r.find(checksummed); exists {
		return Token{}, fmt.Errorf("%w: %s", ErrDuplicateToken, checksummed)
	}

	if _, err := reader.Decimals(checksummed); err != nil {
		return Token{}, fmt.Errorf("%w: %s: %v", ErrTokenValidation, checksummed, err)
	}

	symbol := SanitizeSymbol(label)
	if label == "" {
		if sym, ok := readOptional(reader.Symbol, checksummed); ok {
			symbol = SanitizeSymbol(sym)
		}
	}
	name := "Custom Token"
	if n, ok := readOptional(reader.Name, checksummed); ok && n != "" {
		name = n
	}

	tok := Token{Address: checksummed, Symbol: symbol, Name: name, Custom: true}
	r.customs = append(r.customs, tok)
	if err := r.persist(); err != nil {
		return tok, err
	}
	return tok, nil
}

// RemoveCustom drops a custom token. Removing a built-in (or an unknown
// address) is a no-op, not an error; the returned bool reports whether an
// entry was actually removed.
func (r *Registry) RemoveCustom(address string) (bool, error) {
	for i, tok := range r.customs {
		if strings.EqualFold(tok.Address, address) {
			r.customs = append(r.customs[:i], r.customs[i+1:]...)
			return true, r.persist()
		}
	}
	return false, nil
}

// readOptional turns a best-effort metadata call into an explicit
// present/absent pair.
func readOptional(fn func(string) (string, error), addr string) (string, bool) {
	v, err := fn(addr)
	if err != nil {
		return "", false
	}
	return v, true
}

// SanitizeSymbol reduces a label to at most 12 uppercase alphanumeric or
// underscore characters, falling back to a placeholder when nothing survives.
func SanitizeSymbol(label string) string {
	var sb strings.Builder
	for _, c := range strings.ToUpper(label) {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			sb.WriteRune(c)
			if sb.Len() == 12 {
				break
			}
		}
	}
	if sb.Len() == 0 {
		return "TOKEN"
	}
	return sb.String()
}

func (r *Registry) find(address string) (Token, bool) {
	for _, tok := range r.Tokens() {
		if strings.EqualFold(tok.Address, address) {
			return tok, true
		}
	}
	return Token{}, false
}

func (r *Registry) persist() error {
	return r.store.Save(&State{
		CustomTokens: append([]Token(nil), r.customs...),
		Spender:      r.spender,
	})
}
