package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/ml"
)

// Output formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Row is one evaluated transaction ready to be written out
type Row struct {
	Record    transaction.Record
	Features  ml.Features
	Flags     []fraud.Flag
	RiskScore *decimal.Decimal
}

type jsonRow struct {
	ID        string           `json:"id"`
	EntityID  string           `json:"entity_id"`
	Timestamp time.Time        `json:"timestamp"`
	Features  ml.Features      `json:"features"`
	Flags     []fraud.Flag     `json:"flags"`
	Status    fraud.Status     `json:"status"`
	RiskScore *decimal.Decimal `json:"risk_score,omitempty"`
}

// Write emits rows in the given format
func Write(w io.Writer, format string, rows []Row) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteCSV writes one line per row: identity columns, the feature columns
// in contract order, then the flags as a JSON list and the status.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	header := []string{ColumnID, ColumnTimestamp, ColumnEntityID}
	header = append(header, ml.FeatureNames()...)
	header = append(header, "Flags", "Status", "Risk_Score")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		flags := row.Flags
		if flags == nil {
			flags = []fraud.Flag{}
		}
		encoded, err := json.Marshal(flags)
		if err != nil {
			return fmt.Errorf("failed to encode flags: %w", err)
		}

		line := []string{
			row.Record.ID.String(),
			row.Record.Timestamp.Format(time.RFC3339Nano),
			row.Record.EntityID,
		}
		for _, v := range row.Features.ToVector() {
			line = append(line, strconv.FormatFloat(v, 'g', -1, 64))
		}
		line = append(line, row.Features.Categorical()...)

		score := ""
		if row.RiskScore != nil {
			score = row.RiskScore.StringFixed(2)
		}
		line = append(line, string(encoded), string(fraud.StatusOf(flags)), score)

		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as a single JSON array
func WriteJSON(w io.Writer, rows []Row) error {
	out := make([]jsonRow, len(rows))
	for i, row := range rows {
		flags := row.Flags
		if flags == nil {
			flags = []fraud.Flag{}
		}
		out[i] = jsonRow{
			ID:        row.Record.ID.String(),
			EntityID:  row.Record.EntityID,
			Timestamp: row.Record.Timestamp,
			Features:  row.Features,
			Flags:     flags,
			Status:    fraud.StatusOf(flags),
			RiskScore: row.RiskScore,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteRecords writes raw records with the canonical upload header
func WriteRecords(w io.Writer, records []transaction.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnID, ColumnTimestamp, ColumnEntityID, ColumnAmount, ColumnLocation, ColumnCategory, ColumnLabel}); err != nil {
		return err
	}

	for _, r := range records {
		label := ""
		if r.Label != nil {
			label = strconv.Itoa(*r.Label)
		}
		line := []string{
			r.ID.String(),
			r.Timestamp.Format(time.DateTime),
			r.EntityID,
			strconv.FormatFloat(r.Amount, 'f', 2, 64),
			r.Location,
			r.Category,
			label,
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
