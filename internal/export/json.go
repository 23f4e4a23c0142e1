package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/salah/internal/prayer"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Count      int          `json:"count"`
	Records    []jsonRecord `json:"records"`
}

type jsonRecord struct {
	Date           string   `json:"date"`
	Prayer         string   `json:"prayer"`
	Status         string   `json:"status"`
	StatusCode     int      `json:"status_code"`
	TimePrayed     string   `json:"time_prayed,omitempty"`
	WindowFraction *float64 `json:"window_fraction,omitempty"`
}

// ToJSON writes records to a new file at path.
func ToJSON(records []prayer.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, records, time.Now()); err != nil {
		return err
	}
	return f.Close()
}

func WriteJSON(w io.Writer, records []prayer.Record, exportedAt time.Time) error {
	export := jsonExport{
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
		Count:      len(records),
		Records:    make([]jsonRecord, 0, len(records)),
	}
	for _, r := range records {
		export.Records = append(export.Records, jsonRecord{
			Date:           r.Date.String(),
			Prayer:         r.Name.Key(),
			Status:         r.Status.String(),
			StatusCode:     r.Status.Code(),
			TimePrayed:     formatClock(r.TimePrayed),
			WindowFraction: r.WindowFraction,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case CSV, JSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q (want csv or json)", prayer.ErrInput, s)
}

// Write encodes records in format f.
func Write(w io.Writer, f Format, records []prayer.Record) error {
	switch f {
	case CSV:
		return WriteCSV(w, records)
	case JSON:
		return WriteJSON(w, records, time.Now())
	}
	return fmt.Errorf("%w: unknown export format %q", prayer.ErrInput, string(f))
}

// ToFile writes records to path in format f.
func ToFile(records []prayer.Record, f Format, path string) error {
	switch f {
	case CSV:
		return ToCSV(records, path)
	case JSON:
		return ToJSON(records, path)
	}
	return fmt.Errorf("%w: unknown export format %q", prayer.ErrInput, string(f))
}
