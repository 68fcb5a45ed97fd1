// Package ingest parses connections exports from professional-network
// services. The exports are almost-CSV: an arbitrary metadata preamble
// precedes the header row, fields may be quoted with doubled-quote escapes,
// and last names frequently carry credential suffixes (", PhD").
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mentionlens/mentionlens/internal/core"
)

const (
	// maxFieldLen bounds a single parsed field. Longer values are silently
	// truncated rather than rejected; exports in the wild contain free-text
	// position fields of arbitrary length.
	maxFieldLen = 512

	// maxColumns bounds how many fields are read per row.
	maxColumns = 20
)

// Column labels expected in the header row.
const (
	colFirstName = "First Name"
	colLastName  = "Last Name"
	colCompany   = "Company"
	colPosition  = "Position"
)

var (
	// ErrNoHeader indicates no line naming both required columns was found.
	ErrNoHeader = errors.New("header row with First Name and Last Name columns not found")

	// ErrMissingColumns indicates the header was found but a required column
	// could not be resolved.
	ErrMissingColumns = errors.New("required columns missing from header")
)

// ParseFile reads a connections export from disk.
func ParseFile(path string) ([]core.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open connections file: %w", err)
	}
	defer f.Close() // nolint:errcheck // read-only handle

	return Parse(f)
}

// Parse reads a connections export from a stream. Lines before the header
// row are skipped. Rows whose first or last name is empty after trimming and
// credential stripping produce no Contact. Returns the contacts in input
// order.
func Parse(r io.Reader) ([]core.Contact, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 8192), 64*1024)

	var header string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, colFirstName) && strings.Contains(line, colLastName) {
			header = line
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan connections file: %w", err)
	}
	if header == "" {
		return nil, ErrNoHeader
	}

	first := findColumn(header, colFirstName)
	last := findColumn(header, colLastName)
	company := findColumn(header, colCompany)
	position := findColumn(header, colPosition)
	if first < 0 || last < 0 {
		return nil, ErrMissingColumns
	}

	contacts := make([]core.Contact, 0, 256)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		fields := splitRow(line)
		if contact, ok := buildContact(fields, first, last, company, position); ok {
			contacts = append(contacts, contact)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan connections file: %w", err)
	}

	return contacts, nil
}

// parseField consumes one field starting at line[pos]. A field beginning
// with a quote may contain the delimiter; a doubled quote inside a quoted
// field yields one literal quote. Values longer than maxFieldLen are
// truncated silently. Returns the field value, the position of the next
// field, and whether another field follows.
func parseField(line string, pos int) (string, int, bool) {
	var b strings.Builder

	if pos < len(line) && line[pos] == '"' {
		pos++
		for pos < len(line) {
			if line[pos] == '"' {
				if pos+1 < len(line) && line[pos+1] == '"' {
					if b.Len() < maxFieldLen {
						b.WriteByte('"')
					}
					pos += 2
					continue
				}
				pos++
				break
			}
			if b.Len() < maxFieldLen {
				b.WriteByte(line[pos])
			}
			pos++
		}
	} else {
		for pos < len(line) && line[pos] != ',' {
			if b.Len() < maxFieldLen {
				b.WriteByte(line[pos])
			}
			pos++
		}
	}

	if pos < len(line) && line[pos] == ',' {
		return b.String(), pos + 1, true
	}
	return b.String(), pos, false
}

func splitRow(line string) []string {
	fields := make([]string, 0, maxColumns)
	pos := 0
	for len(fields) < maxColumns {
		value, next, more := parseField(line, pos)
		fields = append(fields, value)
		if !more {
			break
		}
		pos = next
	}
	return fields
}

func findColumn(header, name string) int {
	for col, value := range splitRow(header) {
		if value == name {
			return col
		}
	}
	return -1
}

func buildContact(fields []string, first, last, company, position int) (core.Contact, bool) {
	firstName := fieldAt(fields, first)
	lastName := fieldAt(fields, last)

	firstName = strings.TrimLeft(firstName, " ")
	lastName = strings.TrimLeft(lastName, " ")

	// Credential suffixes ride along in the last-name column ("Doe, PhD").
	if idx := strings.IndexByte(lastName, ','); idx >= 0 {
		lastName = lastName[:idx]
	}
	lastName = strings.TrimRight(lastName, " ")

	if firstName == "" || lastName == "" {
		return core.Contact{}, false
	}

	contact := core.Contact{
		FirstName: firstName,
		LastName:  lastName,
		FullName:  firstName + " " + lastName,
	}
	if company >= 0 && company < len(fields) {
		contact.Company = fields[company]
	}
	if position >= 0 && position < len(fields) {
		contact.Position = fields[position]
	}
	return contact, true
}

// fieldAt mirrors the tolerant indexing of the upstream exports: a short row
// falls back to its first field rather than erroring out.
func fieldAt(fields []string, col int) string {
	if col >= 0 && col < len(fields) {
		return fields[col]
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return ""
}
