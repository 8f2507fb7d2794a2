package srag

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// Raw-file column names. The raw INFLUD export is semicolon-separated and
// carries ~170 columns; only these participate in the analysis.
const (
	colNotificationDate = "DT_NOTIFIC"
	colEvolution        = "EVOLUCAO"
	colICU              = "UTI"
	colVaccineFlu       = "VACINA"
	colVaccineCovid     = "VACINA_COV"
)

// ReadRaw parses the semicolon-separated raw file, keeping only the columns
// named in keep. A column named in keep but absent from the header is an
// ingestion error — the file layout changed and silent continuation would
// corrupt every downstream metric.
func ReadRaw(r io.Reader, keep []string) ([]RawRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1 // trailing columns vary between publications

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read raw header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range keep {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("raw file is missing column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		i := idx[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read raw row: %w", err)
		}
		records = append(records, RawRecord{
			NotificationDate: cell(row, colNotificationDate),
			Evolution:        cell(row, colEvolution),
			ICU:              cell(row, colICU),
			VaccineFlu:       cell(row, colVaccineFlu),
			VaccineCovid:     cell(row, colVaccineCovid),
		})
	}
	return records, nil
}

// cleanedHeader is the column layout of the cleaned dataset artifact.
var cleanedHeader = []string{"notification_date", "evolution", "icu", "vaccine_flu", "vaccine_covid"}

// WriteCleaned writes the cleaned dataset as comma-separated CSV with
// resolved category names. This is the preprocess stage's boundary artifact.
func WriteCleaned(w io.Writer, ds Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cleanedHeader); err != nil {
		return fmt.Errorf("write cleaned header: %w", err)
	}
	for _, c := range ds {
		row := []string{
			c.NotificationDate.Format("2006-01-02"),
			string(c.Evolution),
			string(c.ICU),
			string(c.VaccineFlu),
			string(c.VaccineCovid),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write cleaned row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCleaned parses a cleaned dataset artifact back into memory.
func ReadCleaned(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cleaned csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("cleaned dataset is empty")
	}
	var ds Dataset
	for _, row := range rows[1:] {
		if len(row) != len(cleanedHeader) {
			return nil, fmt.Errorf("cleaned row has %d columns, want %d", len(row), len(cleanedHeader))
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("cleaned row date %q: %w", row[0], err)
		}
		ds = append(ds, Case{
			NotificationDate: date.UTC(),
			Evolution:        Category(row[1]),
			ICU:              Category(row[2]),
			VaccineFlu:       Category(row[3]),
			VaccineCovid:     Category(row[4]),
		})
	}
	return ds, nil
}
