package config

import "time"

// Gas limit used as the EstimateGas fallback when the node cannot simulate
// the tx. Conservative upper bound; actual gas used will be lower.
const GasLimitERC20Approve = uint64(60_000)

// Timeout constants.
const (
	TxConfirmTimeout = 3 * time.Minute // approval confirmation wait
)
