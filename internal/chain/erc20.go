package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

// ERC-20 function selectors (first 4 bytes of keccak256 of the signature).
const (
	SelectorDecimals  = "0x313ce567" // decimals()
	SelectorSymbol    = "0x95d89b41" // symbol()
	SelectorName      = "0x06fdde03" // name()
	SelectorAllowance = "0xdd62ed3e" // allowance(address,address)
	SelectorApprove   = "0x095ea7b3" // approve(address,uint256)
)

// AllowanceCalldata builds the calldata for allowance(owner, spender).
func AllowanceCalldata(owner, spender string) string {
	return SelectorAllowance + addressWord(owner) + addressWord(spender)
}

// ApproveCalldata builds the calldata bytes for approve(spender, amount).
func ApproveCalldata(spender string, amount *big.Int) []byte {
	calldata := make([]byte, 0, 68)
	sel, _ := hex.DecodeString(strings.TrimPrefix(SelectorApprove, "0x"))
	calldata = append(calldata, sel...)

	addrWord := make([]byte, 32)
	addrBytes, _ := hex.DecodeString(strings.TrimPrefix(spender, "0x"))
	copy(addrWord[12:], addrBytes)
	calldata = append(calldata, addrWord...)

	amtWord := make([]byte, 32)
	ab := amount.Bytes()
	copy(amtWord[32-len(ab):], ab)
	return append(calldata, amtWord...)
}

// addressWord left-pads an address to a 32-byte hex word.
func addressWord(addr string) string {
	return fmt.Sprintf("%064s", strings.ToLower(strings.TrimPrefix(addr, "0x")))
}

// DecodeABIString decodes the return data of a string-returning call.
// Standard tokens ABI-encode a dynamic string (offset, length, data); a few
// legacy tokens return a right-padded bytes32 instead — both are handled.
func DecodeABIString(result string) (string, error) {
	clean := strings.TrimPrefix(result, "0x")
	data, err := hex.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("invalid hex: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty return data")
	}

	// bytes32 form.
	if len(data) == 32 {
		s := strings.TrimRight(string(data), "\x00")
		if !utf8.ValidString(s) {
			return "", fmt.Errorf("non-utf8 bytes32 string")
		}
		return s, nil
	}

	// Dynamic string: word 0 = offset, then length word, then bytes.
	if len(data) < 64 {
		return "", fmt.Errorf("return data too short: %d bytes", len(data))
	}
	offset := new(big.Int).SetBytes(data[:32]).Uint64()
	if offset+32 > uint64(len(data)) {
		return "", fmt.Errorf("string offset out of range")
	}
	length := new(big.Int).SetBytes(data[offset : offset+32]).Uint64()
	if offset+32+length > uint64(len(data)) {
		return "", fmt.Errorf("string length out of range")
	}
	s := string(data[offset+32 : offset+32+length])
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("non-utf8 string data")
	}
	return s, nil
}
