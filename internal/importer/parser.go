package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RawRow is one parsed data line, keyed by header name. A reserved "_row" key
// carries the 1-based file line number for error reporting.
type RawRow map[string]string

const rowNumberKey = "_row"

// Line returns the file line number the row was parsed from.
func (r RawRow) Line() int {
	n, _ := strconv.Atoi(r[rowNumberKey])
	return n
}

// ParseError is a terminal, per-batch failure: the upload could not be read
// as CSV. No partial parse results are used.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse upload: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseCSV reads a comma-separated upload with a header row and returns the
// header set plus one RawRow per data line. Rows where every cell is blank
// are dropped before being handed downstream.
func ParseCSV(file io.Reader) ([]string, []RawRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, &ParseError{Err: fmt.Errorf("failed to read CSV header: %w", err)}
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
		// Remove required marker from template downloads
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []RawRow
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &ParseError{Err: fmt.Errorf("error reading line %d: %w", lineNum+1, err)}
		}
		lineNum++

		blank := true
		row := make(RawRow, len(record)+1)
		for i, value := range record {
			if i >= len(headers) {
				break
			}
			value = strings.TrimSpace(value)
			if value != "" {
				blank = false
			}
			row[headers[i]] = value
		}
		if blank {
			continue
		}
		row[rowNumberKey] = strconv.Itoa(lineNum)
		rows = append(rows, row)
	}

	return headers, rows, nil
}
