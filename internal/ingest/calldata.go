package ingest

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// transferSelector is the 4-byte selector for ERC-20 transfer(address,uint256).
const transferSelector = "a9059cbb"

var transferArgs = abi.Arguments{
	{Type: mustABIType("address")},
	{Type: mustABIType("uint256")},
}

func mustABIType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// decodeTransferCalldata decodes raw transfer(address,uint256) calldata into
// its recipient and value. ok is false for anything that isn't a well-formed
// transfer call: wrong selector, truncated data, or a decode error.
func decodeTransferCalldata(input string) (to common.Address, value *big.Int, ok bool) {
	data := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if len(data) < 8+128 {
		return common.Address{}, nil, false
	}
	if !strings.EqualFold(data[:8], transferSelector) {
		return common.Address{}, nil, false
	}

	raw, err := hex.DecodeString(data[8:])
	if err != nil {
		return common.Address{}, nil, false
	}

	values, err := transferArgs.Unpack(raw)
	if err != nil || len(values) != 2 {
		return common.Address{}, nil, false
	}
	addr, okAddr := values[0].(common.Address)
	amount, okAmount := values[1].(*big.Int)
	if !okAddr || !okAmount {
		return common.Address{}, nil, false
	}
	return addr, amount, true
}

// fillMissingFromCalldata backfills To/Value/TokenDecimal on rows whose
// upstream source omitted the high-level decoded fields but carried the raw
// calldata — the shape the local backend returns, as opposed to Etherscan's
// already-decoded tokentx rows. Rows that already carry To and Value, or
// whose Input does not decode as an ERC-20 transfer, pass through unchanged.
func fillMissingFromCalldata(rows []TransferRow) []TransferRow {
	for i := range rows {
		row := &rows[i]
		if row.To != "" && row.Value != "" {
			continue
		}
		if row.Input == "" {
			continue
		}

		to, value, ok := decodeTransferCalldata(row.Input)
		if !ok {
			continue
		}
		if row.To == "" {
			row.To = to.Hex()
		}
		if row.Value == "" {
			row.Value = value.String()
		}
		if row.TokenDecimal == "" {
			row.TokenDecimal = "18"
		}
	}
	return rows
}
