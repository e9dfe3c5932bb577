package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/apptrack/apptrack/app/store"
	"github.com/apptrack/apptrack/app/store/enums"
)

// csvHeader is the fixed 8-column export header
const csvHeader = "Company,Role,Job Type,Location,Application Date,Status,Job Link,Notes"

// csvMinFields is the minimum parseable fields for an import row to be used
const csvMinFields = 6

// ImportResult summarizes a CSV import batch
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ExportCSV renders the whole collection in current in-memory order,
// unfiltered. Every field is double-quoted regardless of content.
func (t *Tracker) ExportCSV() string {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	sb.WriteByte('\n')

	for _, rec := range t.Store.All() {
		fields := []string{
			rec.Company, rec.Role, rec.JobType.String(), rec.Location.String(),
			rec.AppliedOn.String(), rec.Status.String(), rec.JobLink, rec.Notes,
		}
		for i, f := range fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
			sb.WriteByte('"')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ImportCSV parses a CSV document and adds one record per valid row. The
// first line is skipped unconditionally as the header. Malformed rows are
// skipped silently and counted, they never fail the batch. Adds run in
// reverse row order so that, with front insertion, the final collection
// order matches the document order.
func (t *Tracker) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	var inputs []store.JobInput

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			continue
		}
		if line == "" {
			continue
		}

		input, err := parseCSVRow(line)
		if err != nil {
			log.Printf("[DEBUG] skipped import row: %v", err)
			res.Skipped++
			continue
		}
		inputs = append(inputs, input)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read import data: %w", err)
	}

	for i := len(inputs) - 1; i >= 0; i-- {
		if _, err := t.Store.Add(ctx, inputs[i]); err != nil {
			log.Printf("[DEBUG] skipped import row: %v", err)
			res.Skipped++
			continue
		}
		res.Imported++
	}

	log.Printf("[INFO] csv import done, %d imported, %d skipped", res.Imported, res.Skipped)
	return res, nil
}

// parseCSVRow converts a tokenized row into a validated-ready JobInput
func parseCSVRow(line string) (store.JobInput, error) {
	fields := splitCSVLine(line)
	if len(fields) < csvMinFields {
		return store.JobInput{}, fmt.Errorf("row has %d fields, need at least %d", len(fields), csvMinFields)
	}
	// pad optional link/notes columns
	for len(fields) < 8 {
		fields = append(fields, "")
	}

	jobType, err := enums.ParseJobType(fields[2])
	if err != nil {
		return store.JobInput{}, err
	}
	location, err := enums.ParseLocation(fields[3])
	if err != nil {
		return store.JobInput{}, err
	}
	appliedOn, err := store.ParseDate(fields[4])
	if err != nil {
		return store.JobInput{}, err
	}
	status, err := enums.ParseStatus(fields[5])
	if err != nil {
		return store.JobInput{}, err
	}

	return store.JobInput{
		Company:   fields[0],
		Role:      fields[1],
		JobType:   jobType,
		Location:  location,
		AppliedOn: appliedOn,
		Status:    status,
		JobLink:   fields[6],
		Notes:     fields[7],
	}, nil
}

// splitCSVLine tokenizes a single line into quoted-or-bare comma-separated
// fields. Doubled quotes inside a quoted field decode to a literal quote.
func splitCSVLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}
