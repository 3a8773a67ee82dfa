// Package ingest reads transaction batches from CSV and writes computed
// feature rows back out as CSV or JSON.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"fraud-feature-engine/internal/domain/transaction"
)

// Canonical column names of an upload
const (
	ColumnID        = "ID"
	ColumnTimestamp = "Timestamp"
	ColumnEntityID  = "UserID"
	ColumnAmount    = "Amount"
	ColumnLocation  = "City"
	ColumnCategory  = "Category"
	ColumnLabel     = "Fraud_Type"
)

// RequiredColumns must all be present in the header
var RequiredColumns = []string{ColumnTimestamp, ColumnEntityID, ColumnAmount, ColumnLocation, ColumnCategory}

// columnAliases maps normalized header names onto canonical columns
var columnAliases = map[string]string{
	"id":            ColumnID,
	"transactionid": ColumnID,
	"timestamp":     ColumnTimestamp,
	"userid":        ColumnEntityID,
	"entityid":      ColumnEntityID,
	"amount":        ColumnAmount,
	"city":          ColumnLocation,
	"location":      ColumnLocation,
	"category":      ColumnCategory,
	"fraudtype":     ColumnLabel,
	"label":         ColumnLabel,
}

var (
	// ErrMissingColumns is returned when the header lacks required columns
	ErrMissingColumns = errors.New("missing columns")

	// ErrEmptyInput is returned when the input has no header row
	ErrEmptyInput = errors.New("empty input")
)

// MissingColumnsError lists the required columns absent from a header
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}

// RowError ties a parse failure to its line in the input
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadRecords parses a CSV batch. Lines starting with '#' and blank lines
// are skipped. Any invalid row rejects the whole batch; the returned error
// joins one RowError per invalid row.
func ReadRecords(r io.Reader) ([]transaction.Record, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var (
		records []transaction.Record
		errs    []error
	)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		record, err := parseRow(fields, index)
		if err != nil {
			errs = append(errs, &RowError{Line: line, Err: err})
			continue
		}
		records = append(records, record)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

func mapHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeColumn(name)
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := index[canonical]; !dup {
				index[canonical] = i
			}
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return index, nil
}

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}

func parseRow(fields []string, index map[string]int) (transaction.Record, error) {
	field := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	id := uuid.Nil
	if raw := strings.TrimSpace(field(ColumnID)); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return transaction.Record{}, fmt.Errorf("invalid id %q", raw)
		}
		id = parsed
	}

	record, err := transaction.NewRecord(id,
		field(ColumnEntityID),
		field(ColumnTimestamp),
		field(ColumnAmount),
		field(ColumnLocation),
		field(ColumnCategory),
	)
	if err != nil {
		return transaction.Record{}, err
	}

	if raw := strings.TrimSpace(field(ColumnLabel)); raw != "" {
		label, err := strconv.Atoi(raw)
		if err != nil {
			return transaction.Record{}, fmt.Errorf("invalid label %q", raw)
		}
		record.Label = &label
	}

	return record, nil
}
