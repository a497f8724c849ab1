package ingest

import (
	"context"
	"testing"
)

type fakeSource struct {
	pages     [][]TransferRow
	paginated bool
}

func (f *fakeSource) Paginated() bool { return f.paginated }

func (f *fakeSource) FetchPage(ctx context.Context, startBlock int64, page int) ([]TransferRow, int64, error) {
	if page-1 >= len(f.pages) {
		return nil, 0, nil
	}
	return f.pages[page-1], 0, nil
}

func TestTransferRowKeepsBlockNumber(t *testing.T) {
	row := TransferRow{
		Hash:            "0xaa",
		BlockNumber:     "100",
		TimeStamp:       "1700000000",
		From:            "0xabc",
		To:              "0xdef",
		ContractAddress: "0x111",
		Value:           "1000",
		TokenDecimal:    "6",
	}
	if row.BlockNumber != "100" {
		t.Fatalf("unexpected block number: %s", row.BlockNumber)
	}
}

func TestFakeSourceReturnsEmptyPagePastLastPage(t *testing.T) {
	src := &fakeSource{pages: nil, paginated: false}
	rows, head, err := src.FetchPage(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 || head != 0 {
		t.Fatalf("expected empty page, got %d rows head=%d", len(rows), head)
	}
}
