// Package export serialises a finished session's readings.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Header is the first CSV row.
var Header = []string{"time", "heart_rate"}

// Record is one reading as received: the stream's session time in seconds and
// the heart rate.
type Record struct {
	Time  int
	Value float64
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{
			strconv.Itoa(r.Time),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes records to path, replacing any existing file.
func SaveCSV(path string, records []Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
