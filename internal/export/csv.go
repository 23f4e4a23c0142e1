package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sadopc/salah/internal/prayer"
)

var csvHeader = []string{"Date", "Prayer", "Status", "Status Code", "Time Prayed", "Window Fraction"}

// ToCSV writes records to a new file at path.
func ToCSV(records []prayer.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, records); err != nil {
		return err
	}
	return f.Close()
}

func WriteCSV(out io.Writer, records []prayer.Record) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date.String(),
			r.Name.String(),
			r.Status.String(),
			strconv.Itoa(r.Status.Code()),
			formatClock(r.TimePrayed),
			formatFraction(r.WindowFraction),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatClock(c *prayer.Clock) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func formatFraction(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 3, 64)
}
