package merkle

import "testing"

func TestDetailsHash_StableUnderFieldOrder(t *testing.T) {
	f := TransferFields{
		Hash:            "0xAA",
		BlockNumber:     "100",
		TimeStamp:       "1700000000",
		From:            "0xABCDEF0000000000000000000000000000000000",
		To:              "0x1234560000000000000000000000000000000000",
		ContractAddress: "0xCONTRACT00000000000000000000000000000000",
		Value:           "1000000",
		TokenDecimal:    "6",
	}

	h1 := DetailsHash(f)
	h2 := DetailsHash(f)

	if h1 == "" {
		t.Fatal("expected non-empty details hash")
	}
	if h1 != h2 {
		t.Fatalf("details hash not stable: %s != %s", h1, h2)
	}
}

func TestDetailsHash_LowercasesAddressFields(t *testing.T) {
	upper := TransferFields{Hash: "h", BlockNumber: "1", TimeStamp: "1", From: "0xABC", To: "0xDEF", ContractAddress: "0x111", Value: "1", TokenDecimal: "6"}
	lower := TransferFields{Hash: "h", BlockNumber: "1", TimeStamp: "1", From: "0xabc", To: "0xdef", ContractAddress: "0x111", Value: "1", TokenDecimal: "6"}

	if DetailsHash(upper) != DetailsHash(lower) {
		t.Fatal("expected case-insensitive from/to/contractAddress to hash identically")
	}
}

func TestNormalizeHex(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0xAB", "ab"},
		{"0XAB", "ab"},
		{"abc", "0abc"},
		{"", ""},
		{"xyz", ""},
		{"DEADBEEF", "deadbeef"},
	}

	for _, c := range cases {
		got := NormalizeHex(c.in)
		if got != c.want {
			t.Errorf("NormalizeHex(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLeafFromHex_RejectsInvalid(t *testing.T) {
	if _, err := LeafFromHex(""); err == nil {
		t.Error("expected error for empty leaf hex")
	}
	if _, err := LeafFromHex("zz"); err == nil {
		t.Error("expected error for non-hex leaf")
	}
	if _, err := LeafFromHex("aa"); err == nil {
		t.Error("expected error for short leaf (not 32 bytes)")
	}
}

func TestLeafFromHex_Valid(t *testing.T) {
	full := "aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"[:64]
	leaf, err := LeafFromHex(full)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leaf) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(leaf))
	}
}
