package chain

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// EVMClient is a minimal JSON-RPC client for a single EVM chain.
type EVMClient struct {
	url    string
	client *http.Client
}

// Receipt is a simplified transaction receipt.
type Receipt struct {
	TxHash      string
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Decimals returns the token's decimals() value.
func (c *EVMClient) Decimals(token string) (int, error) {
	raw, err := c.ethCall(token, SelectorDecimals)
	if err != nil {
		return 0, err
	}
	n, ok := parseBigHex(raw)
	if !ok {
		return 0, fmt.Errorf("could not parse decimals: %s", raw)
	}
	return int(n.Int64()), nil
}

// Symbol returns the token's symbol() string. Best-effort: many older tokens
// return bytes32 or nothing at all.
func (c *EVMClient) Symbol(token string) (string, error) {
	raw, err := c.ethCall(token, SelectorSymbol)
	if err != nil {
		return "", err
	}
	return DecodeABIString(raw)
}

// Name returns the token's name() string (best-effort, like Symbol).
func (c *EVMClient) Name(token string) (string, error) {
	raw, err := c.ethCall(token, SelectorName)
	if err != nil {
		return "", err
	}
	return DecodeABIString(raw)
}

// Allowance returns the ERC-20 allowance that owner has granted to spender
// on the given token contract.
func (c *EVMClient) Allowance(owner, token, spender string) (*big.Int, error) {
	raw, err := c.ethCall(token, AllowanceCalldata(owner, spender))
	if err != nil {
		return nil, err
	}
	n, ok := parseBigHex(raw)
	if !ok {
		return nil, fmt.Errorf("could not parse allowance: %s", raw)
	}
	return n, nil
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice() (*big.Int, error) {
	result, err := c.call("eth_gasPrice")
	if err != nil {
		return nil, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result: %T", result)
	}
	gp, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse gas price: %s", hexStr)
	}
	return gp, nil
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID() (int64, error) {
	result, err := c.call("eth_chainId")
	if err != nil {
		return 0, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected result: %T", result)
	}
	id, ok := parseBigHex(hexStr)
	if !ok {
		return 0, fmt.Errorf("could not parse chain id: %s", hexStr)
	}
	return id.Int64(), nil
}

// PendingNonce returns the transaction count including pending (queued)
// transactions, using the "pending" block tag.
func (c *EVMClient) PendingNonce(address string) (uint64, error) {
	result, err := c.call("eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected result: %T", result)
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return 0, fmt.Errorf("could not parse pending nonce: %s", hexStr)
	}
	return n.Uint64(), nil
}

// EstimateGas estimates gas for a transaction.
func (c *EVMClient) EstimateGas(from, to, data string) (uint64, error) {
	params := map[string]string{
		"from": from,
		"to":   to,
	}
	if data != "" {
		params["data"] = data
	}
	result, err := c.call("eth_estimateGas", params, "latest")
	if err != nil {
		return 0, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return 21000, nil
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return 21000, nil
	}
	return n.Uint64(), nil
}

// SendRawTransaction broadcasts a signed raw transaction.
func (c *EVMClient) SendRawTransaction(rawTx string) (string, error) {
	result, err := c.call("eth_sendRawTransaction", rawTx)
	if err != nil {
		return "", err
	}
	hash, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return hash, nil
}

// TransactionReceipt returns the receipt for a mined transaction, or nil if
// the transaction is not yet mined.
func (c *EVMClient) TransactionReceipt(hash string) (*Receipt, error) {
	result, err := c.call("eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var rr struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
		GasUsed     string `json:"gasUsed"`
	}
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, err
	}

	receipt := &Receipt{TxHash: hash}
	if n, ok := parseBigHex(rr.Status); ok {
		receipt.Status = n.Uint64()
	}
	if n, ok := parseBigHex(rr.BlockNumber); ok {
		receipt.BlockNumber = n.Uint64()
	}
	if n, ok := parseBigHex(rr.GasUsed); ok {
		receipt.GasUsed = n.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined or timeout elapses.
// A mined-but-reverted transaction returns the receipt and an error.
func (c *EVMClient) WaitForReceipt(hash string, timeout time.Duration) (*Receipt, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		receipt, err := c.TransactionReceipt(hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("transaction reverted (hash: %s)", hash)
			}
			return receipt, nil
		}
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("transaction %s not mined within %s", hash, timeout)
}

// ethCall issues a read-only eth_call against a contract and returns the raw
// hex result.
func (c *EVMClient) ethCall(to, data string) (string, error) {
	result, err := c.call("eth_call", map[string]string{
		"to":   to,
		"data": data,
	}, "latest")
	if err != nil {
		return "", err
	}
	hexStr, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result: %T", result)
	}
	return hexStr, nil
}

func parseBigHex(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0), true
	}
	return new(big.Int).SetString(s, 16)
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *EVMClient) call(method string, params ...interface{}) (interface{}, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Post(c.url, "application/json", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result interface{}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}

	return result, nil
}
