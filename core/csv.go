package core

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var csvNewlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// WriteCSVRow writes one row in the export format: every value quoted,
// embedded quotes doubled, newlines collapsed to spaces.
func WriteCSVRow(w io.Writer, vals ...string) error {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		v = csvNewlines.Replace(v)
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}

// CSVTime formats a timestamp for export; the zero time renders empty.
func CSVTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
