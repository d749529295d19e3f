package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/allowctl/internal/action"
	"github.com/Mohsinsiddi/allowctl/internal/allowance"
	"github.com/Mohsinsiddi/allowctl/internal/chain"
	"github.com/Mohsinsiddi/allowctl/internal/config"
	"github.com/Mohsinsiddi/allowctl/internal/registry"
	"github.com/Mohsinsiddi/allowctl/internal/ui"
	"github.com/Mohsinsiddi/allowctl/internal/wallet"
)

// newWalletManager creates a Manager backed by the config-dir JSON store.
func newWalletManager() *wallet.Manager {
	store := wallet.NewJSONStore(cfg.WalletsPath())
	return wallet.NewManager(wallet.WithStore(store))
}

// newRegistry loads the token registry from the config dir. The optional
// hook fires on applied-spender changes.
func newRegistry(onSpenderChange func()) *registry.Registry {
	store := registry.NewJSONStore(cfg.RegistryPath())
	if onSpenderChange != nil {
		return registry.New(store, registry.WithSpenderChangeHook(onSpenderChange))
	}
	return registry.New(store)
}

// resolveAccount resolves the account to act as: --wallet flag if given,
// otherwise the default wallet.
func resolveAccount(mgr *wallet.Manager, nameFlag string) (*wallet.Wallet, error) {
	if nameFlag != "" {
		w, err := mgr.Get(nameFlag)
		if err != nil {
			return nil, fmt.Errorf(
				"wallet %q not found — run `allowctl wallet list` or add one with `allowctl wallet add`",
				nameFlag,
			)
		}
		return w, nil
	}
	if w := mgr.Default(); w != nil {
		return w, nil
	}
	return nil, fmt.Errorf(
		"no wallet configured\n  Add one with: allowctl wallet add <name> <address>\n  Then: allowctl wallet use <name>",
	)
}

// loadSigningWallet resolves a wallet and verifies it can sign transactions.
// Used by every write command to eliminate boilerplate.
func loadSigningWallet(mgr *wallet.Manager, nameFlag string) (*wallet.Wallet, error) {
	w, err := resolveAccount(mgr, nameFlag)
	if err != nil {
		return nil, err
	}
	if w.Type != wallet.TypeSigning {
		return nil, fmt.Errorf(
			"wallet %q is watch-only and cannot sign transactions\n  To add a signing wallet: allowctl wallet add <name> --key <private-key>",
			w.Name,
		)
	}
	return w, nil
}

// resolveToken finds a tracked token by symbol or address.
func resolveToken(reg *registry.Registry, ref string) (registry.Token, error) {
	tok, ok := reg.Lookup(ref)
	if !ok {
		return registry.Token{}, fmt.Errorf(
			"token %q not tracked — see `allowctl token list` or add it with `allowctl token add <address>`",
			ref,
		)
	}
	return tok, nil
}

// session bundles the collaborators one command invocation needs.
type session struct {
	reg    *registry.Registry
	book   *allowance.Book
	client *chain.EVMClient
	runner *action.Runner
	wallet *wallet.Wallet
}

// newReadSession wires a runner for read-only operations (check, refresh,
// dashboard). Watch-only wallets are fine here.
func newReadSession(walletFlag string) (*session, error) {
	mgr := newWalletManager()
	w, err := resolveAccount(mgr, walletFlag)
	if err != nil {
		return nil, err
	}

	book := allowance.NewBook()
	reg := newRegistry(book.Reset)
	client := chain.NewEVMClient(cfg.RPCURL)

	if verbose {
		fmt.Println(ui.Meta(fmt.Sprintf("rpc: %s · acting as %s (%s)", cfg.RPCURL, w.Name, w.Address)))
	}

	runner := action.NewRunner(reg, book, client, nil, action.WithAccount(w.Address))
	s := &session{reg: reg, book: book, client: client, runner: runner, wallet: w}
	if err := verifyNetwork(s); err != nil {
		return nil, err
	}
	return s, nil
}

// newWriteSession wires a runner that can sign and broadcast approvals.
// The prompt callback runs before every submission; declining cancels.
func newWriteSession(walletFlag string, prompt func(action.WriteRequest) bool) (*session, error) {
	mgr := newWalletManager()
	w, err := loadSigningWallet(mgr, walletFlag)
	if err != nil {
		return nil, err
	}

	book := allowance.NewBook()
	reg := newRegistry(book.Reset)
	client := chain.NewEVMClient(cfg.RPCURL)

	if verbose {
		fmt.Println(ui.Meta(fmt.Sprintf("rpc: %s · signing as %s (%s)", cfg.RPCURL, w.Name, w.Address)))
	}

	signer := wallet.NewSigner(w, wallet.DefaultKeystore())
	sender := chain.NewApprovalSender(client, signer, config.GasLimitERC20Approve, config.TxConfirmTimeout)

	runner := action.NewRunner(reg, book, client, sender,
		action.WithAccount(w.Address),
		action.WithPrompt(prompt),
	)
	s := &session{reg: reg, book: book, client: client, runner: runner, wallet: w}
	if err := verifyNetwork(s); err != nil {
		return nil, err
	}
	return s, nil
}

// verifyNetwork asks the endpoint which chain it serves and refuses to
// proceed on a mismatch with the configured chain id — allowances read from
// the wrong network would be silently wrong. chain_id 0 disables the check.
func verifyNetwork(s *session) error {
	if cfg.ChainID == 0 {
		return nil
	}
	id, err := s.client.ChainID()
	if err != nil {
		return fmt.Errorf("checking network identity: %w", err)
	}
	s.runner.Apply(action.NetworkChanged{ID: id})
	if id != cfg.ChainID {
		return fmt.Errorf(
			"rpc endpoint serves chain %d but config expects chain %d\n  Fix rpc_url or chain_id in %s, or pass a matching --rpc",
			id, cfg.ChainID, cfg.Dir(),
		)
	}
	return nil
}

// printSnapshot renders one classified allowance as a key/value block.
func printSnapshot(tok registry.Token, spenderLabel string, snap allowance.Snapshot) {
	amount := snap.Formatted
	if snap.Class.UnlimitedExact || snap.Class.UnlimitedLike {
		amount = "∞ unlimited (" + snap.Formatted + ")"
	}
	pairs := [][2]string{
		{"Token", ui.Val(tok.Symbol) + " " + ui.Meta(tok.Name)},
		{"Address", ui.Addr(tok.Address)},
		{"Spender", ui.SpenderName(spenderLabel)},
		{"Allowance", ui.Val(amount)},
		{"Risk", ui.RiskBadge(snap.Class.Tier.String())},
	}
	fmt.Println(ui.KeyValueBlock("Allowance", pairs))
}

// requireSpender prints a friendly error when no spender is applied.
func requireSpender(reg *registry.Registry) (addr, label string, err error) {
	addr, label, ok := reg.ActiveSpender()
	if !ok {
		return "", "", fmt.Errorf(
			"no spender applied\n  Pick a preset: allowctl spender use <id>\n  Or set a custom one: allowctl spender set <address>",
		)
	}
	return addr, label, nil
}
