// internal/app/system/csvutil/roster.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/trainhub/internal/app/system/authutil"
)

// RosterRow is one normalized row from a roster upload: a person to
// place on a team, identified by email.
type RosterRow struct {
	Line     int // 1-based record number, header included; blank lines don't count
	FullName string
	Email    string // lower-cased
}

// RowError describes why a single row failed validation.
type RowError struct {
	Line   int
	Reason string
}

// ErrTooManyRows is returned when the upload exceeds MaxRows.
var ErrTooManyRows = fmt.Errorf("upload exceeds %d rows", MaxRows)

// ScanRosterCSV reads every row from r, skips a header when the first
// row looks like one, and validates each remaining row. Expected
// columns: full name, email. Blank rows are ignored. The scan never
// touches the database, so callers can reject the whole upload before
// any mutation.
func ScanRosterCSV(r io.Reader) ([]RosterRow, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows    []RosterRow
		rowErrs []RowError
		line    int
	)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "unreadable row: " + err.Error()})
			continue
		}
		if line == 1 && isRosterHeader(rec) {
			continue
		}
		if line > MaxRows {
			return nil, nil, ErrTooManyRows
		}

		var name, email string
		if len(rec) > 0 {
			name = strings.TrimSpace(rec[0])
		}
		if len(rec) > 1 {
			email = strings.ToLower(strings.TrimSpace(rec[1]))
		}
		if name == "" && email == "" {
			continue
		}
		if name == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "missing full name"})
			continue
		}
		if email == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "missing email"})
			continue
		}
		if err := authutil.ValidateEmail(email); err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "malformed email: " + email})
			continue
		}
		rows = append(rows, RosterRow{Line: line, FullName: name, Email: email})
	}

	return rows, rowErrs, nil
}

func isRosterHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(rec[0]))
	second := strings.ToLower(strings.TrimSpace(rec[1]))
	return (first == "full name" || first == "full_name" || first == "name") && second == "email"
}
