package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/salah/internal/prayer"
)

var day = prayer.NewDate(2024, 3, 10)

func sampleRecords() []prayer.Record {
	at := prayer.MustClock(16, 40)
	frac := 0.5
	return []prayer.Record{
		{Name: prayer.Fajr, Date: day, Status: prayer.Congregation},
		{Name: prayer.Asr, Date: day, Status: prayer.Prayed, TimePrayed: &at, WindowFraction: &frac},
		{Name: prayer.Isha, Date: day, Status: prayer.Missed},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleRecords(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 3 data rows
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(rows))
	}
	for i, h := range csvHeader {
		if rows[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}

	fajr := rows[1]
	if fajr[0] != "2024-03-10" || fajr[1] != "Fajr" || fajr[2] != "congregation" || fajr[3] != "1" {
		t.Fatalf("fajr row = %q", fajr)
	}
	if fajr[4] != "" || fajr[5] != "" {
		t.Fatalf("fajr row should have no time or fraction, got %q", fajr)
	}

	asr := rows[2]
	if asr[2] != "prayed" || asr[3] != "0" {
		t.Fatalf("asr status = %q/%q, want prayed/0", asr[2], asr[3])
	}
	if asr[4] != "16:40" {
		t.Fatalf("Time Prayed = %q, want 16:40", asr[4])
	}
	if asr[5] != "0.500" {
		t.Fatalf("Window Fraction = %q, want 0.500", asr[5])
	}

	if rows[3][3] != "3" {
		t.Fatalf("missed code = %q, want 3", rows[3][3])
	}
}

func TestToCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}

	rows, _ := csv.NewReader(&buf).ReadAll()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(rows))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sampleRecords(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 || len(result.Records) != 3 {
		t.Fatalf("count = %d, records = %d, want 3", result.Count, len(result.Records))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	asr := result.Records[1]
	if asr.Prayer != "asr" || asr.Status != "prayed" || asr.StatusCode != 0 {
		t.Fatalf("asr = %+v", asr)
	}
	if asr.TimePrayed != "16:40" {
		t.Fatalf("time_prayed = %q, want 16:40", asr.TimePrayed)
	}
	if asr.WindowFraction == nil || *asr.WindowFraction != 0.5 {
		t.Fatalf("window_fraction = %v, want 0.5", asr.WindowFraction)
	}

	if strings.Contains(string(data), `"time_prayed": ""`) {
		t.Fatal("empty time_prayed should be omitted")
	}
}

func TestToJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"records": []`) {
		t.Fatalf("empty export should have an empty records array:\n%s", buf.String())
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteJSONExportedAt(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := WriteJSON(&buf, nil, at); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"exported_at": "2024-03-10T12:00:00Z"`) {
		t.Fatalf("unexpected exported_at:\n%s", buf.String())
	}
}

// ============================================================
// Formats
// ============================================================

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"csv", "json"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, prayer.ErrInput) {
		t.Fatalf("ParseFormat(xml) = %v, want ErrInput", err)
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []Format{CSV, JSON} {
		path := filepath.Join(dir, "out."+string(f))
		if err := ToFile(sampleRecords(), f, path); err != nil {
			t.Fatalf("ToFile(%s): %v", f, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Fatalf("ToFile(%s) wrote nothing", f)
		}
	}
	if err := ToFile(nil, Format("xml"), filepath.Join(dir, "x")); !errors.Is(err, prayer.ErrInput) {
		t.Fatalf("ToFile(xml) = %v, want ErrInput", err)
	}
}
