package batch

import (
	"fmt"
	"time"
)

// NewBatchID generates a monotonically time-advancing batch identifier in
// the form YYYYMMDDTHHMMSSffffffZ, using the current UTC time. Successive
// calls from a single process are strictly increasing as long as the
// underlying clock is, which ensures total order across batches. Go's
// reference-time layout cannot express a fractional-seconds suffix without
// a literal "." separator, so the microseconds are appended by hand.
func NewBatchID() string {
	now := time.Now().UTC()
	return fmt.Sprintf("%s%06dZ", now.Format("20060102T150405"), now.Nanosecond()/1000)
}
