package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Spender modes.
const (
	ModePreset = "preset"
	ModeCustom = "custom"
)

// Preset is one catalog entry of a well-known spender contract.
type Preset struct {
	ID      string
	Label   string
	Address string
	Note    string
}

// presetCatalog is the fixed list of well-known mainnet spenders.
var presetCatalog = []Preset{
	{ID: "uniswap-v2", Label: "Uniswap V2 Router", Address: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"},
	{ID: "uniswap-v3", Label: "Uniswap V3 Router", Address: "0xE592427A0AEce92De3Edee1F18E0157C05861564"},
	{ID: "permit2", Label: "Uniswap Permit2", Address: "0x000000000022D473030F116dDEE9F6B43aC78BA3", Note: "shared approval hub — unlimited grants are common here"},
	{ID: "seaport", Label: "OpenSea Seaport", Address: "0x00000000000000ADc04C56Bf30aC9d3c0aAF14dC"},
	{ID: "1inch-v5", Label: "1inch Router v5", Address: "0x1111111254EEB25477B68fb85Ed929f73A960582"},
}

// Presets returns the spender catalog.
func Presets() []Preset {
	return append([]Preset(nil), presetCatalog...)
}

// PresetByID finds a catalog entry.
func PresetByID(id string) (Preset, bool) {
	for _, p := range presetCatalog {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// SpenderState is the persisted spender selection. The custom draft is the
// raw input field; only the applied address is ever active.
type SpenderState struct {
	Mode          string `json:"mode"`
	PresetID      string `json:"preset_id"`
	CustomApplied string `json:"custom_applied,omitempty"`
	CustomDraft   string `json:"custom_draft,omitempty"`
}

func defaultSpenderState() SpenderState {
	return SpenderState{Mode: ModePreset, PresetID: presetCatalog[0].ID}
}

func (s SpenderState) valid() bool {
	switch s.Mode {
	case ModePreset:
		_, ok := PresetByID(s.PresetID)
		return ok
	case ModeCustom:
		return s.CustomApplied == "" || common.IsHexAddress(s.CustomApplied)
	}
	return false
}

// Spender returns the current spender selection.
func (r *Registry) Spender() SpenderState {
	return r.spender
}

// ActiveSpender resolves the currently applied spender address and a display
// label. ok is false when mode is custom with nothing applied.
func (r *Registry) ActiveSpender() (address, label string, ok bool) {
	switch r.spender.Mode {
	case ModePreset:
		p, found := PresetByID(r.spender.PresetID)
		if !found {
			return "", "", false
		}
		return p.Address, p.Label, true
	case ModeCustom:
		if r.spender.CustomApplied == "" {
			return "", "", false
		}
		return r.spender.CustomApplied, "custom", true
	}
	return "", "", false
}

// SelectPreset switches the active spender to a catalog entry. Unknown ids
// are ignored. Every successful switch fires the spender-change hook before
// returning, so stale snapshots never outlive the old spender.
func (r *Registry) SelectPreset(id string) error {
	if _, ok := PresetByID(id); !ok {
		return nil
	}
	r.spender.Mode = ModePreset
	r.spender.PresetID = id
	r.fireSpenderChange()
	return r.persist()
}

// ApplyCustomSpender validates and commits a custom spender address, switches
// mode to custom, and invalidates snapshots.
func (r *Registry) ApplyCustomSpender(input string) (string, error) {
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, input)
	}
	checksummed := common.HexToAddress(input).Hex()
	r.spender.Mode = ModeCustom
	r.spender.CustomApplied = checksummed
	r.spender.CustomDraft = input
	r.fireSpenderChange()
	return checksummed, r.persist()
}

// ClearCustomSpender un-applies the custom spender, leaving mode custom with
// nothing active.
func (r *Registry) ClearCustomSpender() error {
	r.spender.Mode = ModeCustom
	r.spender.CustomApplied = ""
	r.fireSpenderChange()
	return r.persist()
}

// SetDraft records custom-spender input text without applying it. Draft edits
// never change the active spender and never invalidate snapshots.
func (r *Registry) SetDraft(input string) error {
	r.spender.CustomDraft = input
	return r.persist()
}

// Draft returns the unapplied custom-spender input.
func (r *Registry) Draft() string {
	return r.spender.CustomDraft
}

func (r *Registry) fireSpenderChange() {
	if r.onSpenderChange != nil {
		r.onSpenderChange()
	}
}
