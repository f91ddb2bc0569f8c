package fasta

import (
	"strings"
	"testing"
)

func TestParseValidRecord(t *testing.T) {
	input := ">seq0\n1 0 0 0 0; 0 1 0 0 0 ; 0 0 1 0 0\n"
	records, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Name != "seq0" {
		t.Fatalf("Name = %q, want seq0", records[0].Name)
	}
	if len(records[0].Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(records[0].Columns))
	}
	if records[0].Columns[1][1] != 1 {
		t.Fatalf("Columns[1] = %v, want symbol C weight 1", records[0].Columns[1])
	}
}

func TestParseSkipsMalformedTokens(t *testing.T) {
	input := ">seq0\n1 0 0 0 0; not five numbers; 0 1 0 0 0\n"
	records, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records[0].Columns) != 2 {
		t.Fatalf("got %d columns, want 2 (malformed token dropped)", len(records[0].Columns))
	}
}

func TestParseMultipleRecords(t *testing.T) {
	input := ">a\n1 0 0 0 0\n>b\n0 1 0 0 0; 0 0 1 0 0\n"
	records, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if len(records[0].Columns) != 1 || len(records[1].Columns) != 2 {
		t.Fatalf("unexpected column counts: %d, %d", len(records[0].Columns), len(records[1].Columns))
	}
}

func TestToStoreBuildsValidStore(t *testing.T) {
	input := ">a\n1 0 0 0 0; 0 1 0 0 0\n>b\n0 0 1 0 0\n"
	records, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	store, err := ToStore(records)
	if err != nil {
		t.Fatalf("ToStore: %v", err)
	}
	if store.NumSequences() != 2 {
		t.Fatalf("NumSequences = %d, want 2", store.NumSequences())
	}
	if store.Len(0) != 2 || store.Len(1) != 1 {
		t.Fatalf("unexpected lengths: %d, %d", store.Len(0), store.Len(1))
	}
}
