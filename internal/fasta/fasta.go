// Package fasta parses the soft-count FASTA dialect the sampler reads
// its aligned input from: each record's "sequence" is a semicolon
// separated list of tokens, each token five whitespace-separated
// non-negative reals giving the soft counts (A, C, G, T, N) at one
// aligned column.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fidde/dpmtfbs/internal/seqdata"
)

// Record is one parsed FASTA entry: its header name and the per-column
// soft-count vectors recovered from its token list.
type Record struct {
	Name    string
	Columns [][]float64
}

// Parse reads every record from r. A token that isn't exactly
// seqdata.AlphabetSize non-negative reals is logged through logger and
// skipped, per the "malformed input" error kind: the column is dropped
// rather than aborting the whole parse.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	var name string
	var body strings.Builder
	flush := func() {
		if name == "" {
			return
		}
		records = append(records, Record{Name: name, Columns: parseColumns(body.String(), name, logger)})
		body.Reset()
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, ">") {
			flush()
			name = strings.TrimSpace(strings.TrimPrefix(line, ">"))
			continue
		}
		body.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fasta: scanning input: %w", err)
	}
	return records, nil
}

// parseColumns splits body on ';' into tokens, and each token's
// whitespace-separated fields into a soft-count column, skipping and
// warning about anything that doesn't parse cleanly.
func parseColumns(body, recordName string, logger *slog.Logger) [][]float64 {
	var columns [][]float64
	for i, token := range strings.Split(body, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		fields := strings.Fields(token)
		if len(fields) != seqdata.AlphabetSize {
			logger.Warn("fasta: skipping malformed token",
				"record", recordName, "token_index", i, "token", token,
				"want_fields", seqdata.AlphabetSize, "got_fields", len(fields))
			continue
		}
		col := make([]float64, seqdata.AlphabetSize)
		ok := true
		for k, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil || v < 0 {
				logger.Warn("fasta: skipping malformed token",
					"record", recordName, "token_index", i, "field", f, "error", err)
				ok = false
				break
			}
			col[k] = v
		}
		if ok {
			columns = append(columns, col)
		}
	}
	return columns
}

// ToStore builds a seqdata.Store from parsed records, in the order they
// were read.
func ToStore(records []Record) (*seqdata.Store, error) {
	names := make([]string, len(records))
	columns := make([][][]float64, len(records))
	for i, rec := range records {
		names[i] = rec.Name
		columns[i] = rec.Columns
	}
	return seqdata.New(names, columns)
}
