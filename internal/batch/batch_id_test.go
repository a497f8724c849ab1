package batch

import (
	"regexp"
	"testing"
	"time"
)

var batchIDPattern = regexp.MustCompile(`^\d{8}T\d{6}\d{6}Z$`)

func TestNewBatchID_MatchesFormat(t *testing.T) {
	id := NewBatchID()
	if !batchIDPattern.MatchString(id) {
		t.Fatalf("batch id %q does not match YYYYMMDDTHHMMSSffffffZ", id)
	}
}

func TestNewBatchID_Monotone(t *testing.T) {
	a := NewBatchID()
	time.Sleep(2 * time.Millisecond)
	b := NewBatchID()
	if !(b > a) {
		t.Fatalf("expected strictly increasing batch ids, got %q then %q", a, b)
	}
}
