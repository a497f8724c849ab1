package merkle

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// TransferFields is the fixed subset of an ERC-20 Transfer row that feeds
// DetailsHash. Field order does not matter: CanonicalJSON sorts keys.
type TransferFields struct {
	Hash            string
	BlockNumber     string
	TimeStamp       string
	From            string
	To              string
	ContractAddress string
	Value           string
	TokenDecimal    string
}

// CanonicalJSON serializes obj with sorted keys and compact separators, the
// deterministic encoding DetailsHash is computed over. Go's json.Marshal
// already emits map keys in sorted order and uses compact separators, so a
// map[string]string input is sufficient for the fixed flat shape used here.
func CanonicalJSON(fields map[string]string) ([]byte, error) {
	return json.Marshal(fields)
}

// DetailsHash computes the content-addressed hash of a transfer row: the
// hex-lowercase SHA-256 of the canonical JSON encoding of a fixed field
// subset, with address-like fields lowercased and numeric fields carried as
// strings.
func DetailsHash(f TransferFields) string {
	picked := map[string]string{
		"hash":            f.Hash,
		"blockNumber":     f.BlockNumber,
		"timeStamp":       f.TimeStamp,
		"from":            strings.ToLower(f.From),
		"to":              strings.ToLower(f.To),
		"contractAddress": strings.ToLower(f.ContractAddress),
		"value":           f.Value,
		"tokenDecimal":    f.TokenDecimal,
	}

	cj, err := CanonicalJSON(picked)
	if err != nil {
		return ""
	}

	return HashDataHex(cj)
}

// NormalizeHex strips an optional 0x/0X prefix, lowercases, validates that
// every remaining character is hex, and left-pads an odd-length result with
// a single "0". Invalid input (non-hex characters) returns "".
func NormalizeHex(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	s = strings.ToLower(s)

	for _, ch := range s {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			return ""
		}
	}

	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s
}

// LeafFromHex decodes a normalized hex string into a 32-byte leaf, the form
// BuildTree requires. It returns an error rather than the empty-sentinel
// NormalizeHex uses, since leaf construction is the point where an invalid
// hash must stop a caller from silently building a tree with a garbage leaf.
func LeafFromHex(hexStr string) ([]byte, error) {
	normalized := NormalizeHex(hexStr)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty or invalid hex %q", ErrInvalidLeafHash, hexStr)
	}
	b, err := hex.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLeafHash, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: decoded to %d bytes, want 32", ErrInvalidLeafHash, len(b))
	}
	return b, nil
}
