package report

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/ternarybob/screener/internal/models"
)

func (r *Report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.RecordColumns); err != nil {
		return err
	}
	for _, rec := range r.Records {
		if err := cw.Write(rec.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Report) writeJSON(w io.Writer) error {
	records := r.Records
	if records == nil {
		records = []models.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}
