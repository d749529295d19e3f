package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxSigner signs a prepared transaction. wallet.Signer satisfies this.
type TxSigner interface {
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
	Address() string
}

// ApprovalSender builds, signs, and broadcasts ERC-20 approve transactions.
// It implements the orchestrator's write-client contract.
type ApprovalSender struct {
	client           *EVMClient
	signer           TxSigner
	gasLimitFallback uint64
	confirmTimeout   time.Duration
}

// NewApprovalSender wires an EVM client and a signer into an approval sender.
func NewApprovalSender(client *EVMClient, signer TxSigner, gasFallback uint64, confirmTimeout time.Duration) *ApprovalSender {
	return &ApprovalSender{
		client:           client,
		signer:           signer,
		gasLimitFallback: gasFallback,
		confirmTimeout:   confirmTimeout,
	}
}

// SubmitApproval signs and broadcasts approve(spender, amount) on the token
// contract and returns the transaction hash.
func (s *ApprovalSender) SubmitApproval(token, spender string, amount *big.Int) (string, error) {
	calldata := ApproveCalldata(spender, amount)
	calldataHex := "0x" + hex.EncodeToString(calldata)

	gasPrice, err := s.client.GasPrice()
	if err != nil {
		return "", err
	}
	chainID, err := s.client.ChainID()
	if err != nil {
		return "", err
	}
	nonce, err := s.client.PendingNonce(s.signer.Address())
	if err != nil {
		return "", err
	}
	gasLimit, err := s.client.EstimateGas(s.signer.Address(), token, calldataHex)
	if err != nil {
		gasLimit = s.gasLimitFallback
	}

	tokenAddr := common.HexToAddress(token)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gasLimit,
		To:        &tokenAddr,
		Value:     big.NewInt(0),
		Data:      calldata,
	})

	raw, err := s.signer.SignTx(tx, big.NewInt(chainID))
	if err != nil {
		return "", fmt.Errorf("signing approval: %w", err)
	}

	return s.client.SendRawTransaction("0x" + hex.EncodeToString(raw))
}

// AwaitConfirmation blocks until the transaction is mined. A revert or a
// timeout is an error.
func (s *ApprovalSender) AwaitConfirmation(hash string) error {
	_, err := s.client.WaitForReceipt(hash, s.confirmTimeout)
	return err
}
