package holding

import (
	"regexp"
	"strings"
)

// tickerPattern matches a bare exchange symbol such as "AAPL" or "BRK.B".
var tickerPattern = regexp.MustCompile(`^[A-Z.]+$`)

// IsValid reports whether the record is a genuine holdings row: its leading
// ticker token is a bare symbol and both sector and shares held are present.
// Header rows, "No data" placeholders, and summary rows fail this check.
func (r Record) IsValid() bool {
	fields := strings.Fields(r.Stock)
	if len(fields) == 0 {
		return false
	}

	return tickerPattern.MatchString(fields[0]) &&
		r.Sector != "" &&
		r.SharesHeld != ""
}

// Filter returns the valid records in their original order. The input is
// not modified.
func Filter(records []Record) []Record {
	valid := make([]Record, 0, len(records))
	for _, record := range records {
		if record.IsValid() {
			valid = append(valid, record)
		}
	}
	return valid
}
