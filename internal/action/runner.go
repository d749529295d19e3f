package action

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/allowctl/internal/allowance"
	"github.com/Mohsinsiddi/allowctl/internal/registry"
	"github.com/Mohsinsiddi/allowctl/internal/risk"
)

// ChainReader reads token state. Implementations must not cache: every call
// reflects current chain state.
type ChainReader interface {
	Decimals(token string) (int, error)
	Symbol(token string) (string, error)
	Name(token string) (string, error)
	Allowance(owner, token, spender string) (*big.Int, error)
}

// ChainWriter submits approval transactions and waits for them to land.
type ChainWriter interface {
	SubmitApproval(token, spender string, amount *big.Int) (string, error)
	AwaitConfirmation(hash string) error
}

// WriteRequest describes a pending write for the confirmation prompt.
type WriteRequest struct {
	Op      string // "approve" | "approve-unlimited" | "revoke"
	Token   registry.Token
	Spender string
	Amount  string // human-readable
}

// WriteResult is the outcome of a confirmed write.
type WriteResult struct {
	Hash     string
	Snapshot *allowance.Snapshot // refreshed post-write; nil if the re-read failed
}

// RefreshFailure records one token that failed during a bulk refresh.
type RefreshFailure struct {
	Token registry.Token
	Err   error
}

// RefreshReport summarizes a RefreshAll run.
type RefreshReport struct {
	Updated  int
	Failures []RefreshFailure
}

// Runner sequences every user-triggered operation behind a single in-flight
// busy tag. This is a global mutual-exclusion lock across the whole tool, not
// per-token: a bulk refresh and an approve can never interleave.
type Runner struct {
	mu   sync.Mutex
	busy string // operation tag, "" = idle

	account   string
	networkID int64

	reg    *registry.Registry
	book   *allowance.Book
	reader ChainReader
	writer ChainWriter
	prompt func(WriteRequest) bool // nil = auto-confirm
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithAccount sets the connected account address.
func WithAccount(addr string) RunnerOption {
	return func(r *Runner) { r.account = addr }
}

// WithPrompt sets the signing confirmation prompt. Returning false cancels
// the write with ErrUserCancelled.
func WithPrompt(fn func(WriteRequest) bool) RunnerOption {
	return func(r *Runner) { r.prompt = fn }
}

// NewRunner creates a Runner over the registry, snapshot book, and chain
// collaborators.
func NewRunner(reg *registry.Registry, book *allowance.Book, reader ChainReader, writer ChainWriter, opts ...RunnerOption) *Runner {
	r := &Runner{
		reg:    reg,
		book:   book,
		reader: reader,
		writer: writer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Account returns the connected account address ("" when disconnected).
func (r *Runner) Account() string {
	return r.account
}

// Busy reports the tag of the in-flight operation, or "".
func (r *Runner) Busy() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Check reads the current allowance for one token and records a snapshot.
// A read failure leaves any prior snapshot untouched.
func (r *Runner) Check(tok registry.Token) (allowance.Snapshot, error) {
	spender, err := r.preflight()
	if err != nil {
		return allowance.Snapshot{}, err
	}
	if err := r.begin("check"); err != nil {
		return allowance.Snapshot{}, err
	}
	defer r.end()

	return r.check(tok, spender)
}

// RefreshAll re-reads every tracked token sequentially, in registry order.
// One token's failure never aborts the rest; failures are collected and the
// busy lock is released exactly once at the end.
func (r *Runner) RefreshAll() (RefreshReport, error) {
	spender, err := r.preflight()
	if err != nil {
		return RefreshReport{}, err
	}
	if err := r.begin("refresh"); err != nil {
		return RefreshReport{}, err
	}
	defer r.end()

	var report RefreshReport
	for _, tok := range r.reg.Tokens() {
		if _, err := r.check(tok, spender); err != nil {
			report.Failures = append(report.Failures, RefreshFailure{Token: tok, Err: err})
			continue
		}
		report.Updated++
	}
	return report, nil
}

// AddToken validates and registers a custom token through the registry,
// using the chain reader for the liveness check.
func (r *Runner) AddToken(address, label string) (registry.Token, error) {
	if _, err := r.preflight(); err != nil {
		return registry.Token{}, err
	}
	if err := r.begin("add-token"); err != nil {
		return registry.Token{}, err
	}
	defer r.end()

	return r.reg.AddCustom(address, label, r.reader)
}

// Approve submits approve(spender, amount) for the token. The amount string
// is parsed against the token's live decimal count; an empty or unparseable
// amount deliberately degrades to zero rather than failing.
func (r *Runner) Approve(tok registry.Token, amount string) (WriteResult, error) {
	return r.write("approve", tok, func(decimals int) *big.Int {
		raw, err := allowance.ParseUnits(amount, decimals)
		if err != nil {
			return big.NewInt(0)
		}
		return raw
	})
}

// ApproveUnlimited submits the maximum representable allowance.
func (r *Runner) ApproveUnlimited(tok registry.Token) (WriteResult, error) {
	return r.write("approve-unlimited", tok, func(int) *big.Int {
		return risk.MaxUint256()
	})
}

// Revoke sets the allowance to zero.
func (r *Runner) Revoke(tok registry.Token) (WriteResult, error) {
	return r.write("revoke", tok, func(int) *big.Int {
		return big.NewInt(0)
	})
}

// --- internals ---

// preflight checks the uniform operation preconditions without entering the
// busy state: a connected account and a well-formed active spender.
func (r *Runner) preflight() (spender string, err error) {
	if r.account == "" {
		return "", ErrNoAccount
	}
	addr, _, ok := r.reg.ActiveSpender()
	if !ok || !common.IsHexAddress(addr) {
		return "", ErrNoSpender
	}
	return addr, nil
}

func (r *Runner) begin(tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy != "" {
		return fmt.Errorf("%w (%s)", ErrBusy, r.busy)
	}
	r.busy = tag
	return nil
}

func (r *Runner) end() {
	r.mu.Lock()
	r.busy = ""
	r.mu.Unlock()
}

// check performs the read sequence while already inside the busy section.
func (r *Runner) check(tok registry.Token, spender string) (allowance.Snapshot, error) {
	decimals, err := r.reader.Decimals(tok.Address)
	if err != nil {
		return allowance.Snapshot{}, fmt.Errorf("%w: %s decimals: %v", ErrReadFailed, tok.Symbol, err)
	}
	raw, err := r.reader.Allowance(r.account, tok.Address, spender)
	if err != nil {
		return allowance.Snapshot{}, fmt.Errorf("%w: %s allowance: %v", ErrReadFailed, tok.Symbol, err)
	}
	return r.book.Record(tok.Address, raw, decimals), nil
}

// write runs the shared approve/revoke sequence. The busy lock is released
// on every exit path: cancel, revert, error, or success.
func (r *Runner) write(tag string, tok registry.Token, amountFn func(decimals int) *big.Int) (WriteResult, error) {
	spender, err := r.preflight()
	if err != nil {
		return WriteResult{}, err
	}
	if err := r.begin(tag); err != nil {
		return WriteResult{}, err
	}
	defer r.end()

	decimals, err := r.reader.Decimals(tok.Address)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: %s decimals: %v", ErrReadFailed, tok.Symbol, err)
	}
	amount := amountFn(decimals)

	if r.prompt != nil {
		req := WriteRequest{
			Op:      tag,
			Token:   tok,
			Spender: spender,
			Amount:  allowance.FormatUnits(amount, decimals),
		}
		if !r.prompt(req) {
			return WriteResult{}, ErrUserCancelled
		}
	}

	hash, err := r.writer.SubmitApproval(tok.Address, spender, amount)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := r.writer.AwaitConfirmation(hash); err != nil {
		return WriteResult{Hash: hash}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	result := WriteResult{Hash: hash}
	if snap, err := r.check(tok, spender); err == nil {
		result.Snapshot = &snap
	}
	return result, nil
}
