// Package trace reads and writes branch traces. Each record is one line
// holding the branch PC in hexadecimal and its resolved direction:
//
//	0x40a8c4 1
//	0x40a8d0 0
//
// Blank lines and lines starting with '#' are ignored.
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned for lines that are not valid records.
var ErrMalformedRecord = errors.New("malformed trace record")

// Record is one conditional branch and its resolved direction.
type Record struct {
	PC    uint32
	Taken bool
}

// String formats the record as a trace line without the newline.
func (r Record) String() string {
	outcome := 0
	if r.Taken {
		outcome = 1
	}
	return fmt.Sprintf("0x%x %d", r.PC, outcome)
}

// ParseRecord parses a single trace line. It returns ok=false for blank
// lines and comments.
func ParseRecord(line string) (rec Record, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Record{}, false, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Record{}, false, fmt.Errorf("%w: expected 2 fields, got %d",
			ErrMalformedRecord, len(fields))
	}

	pcText := strings.TrimPrefix(strings.TrimPrefix(fields[0], "0x"), "0X")
	pc, err := strconv.ParseUint(pcText, 16, 32)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: bad pc %q", ErrMalformedRecord, fields[0])
	}

	switch fields[1] {
	case "0":
		rec.Taken = false
	case "1":
		rec.Taken = true
	default:
		return Record{}, false, fmt.Errorf("%w: bad outcome %q", ErrMalformedRecord, fields[1])
	}

	rec.PC = uint32(pc)
	return rec, true, nil
}
