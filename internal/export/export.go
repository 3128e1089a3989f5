// Package export turns a transaction set into spreadsheet-friendly rows.
//
// Output is semicolon-delimited so the Italian decimal comma stays
// parseable, and the writer prefixes a UTF-8 BOM so common spreadsheet
// tools detect the encoding. Producing the downloadable artifact from the
// rows is the hosting application's job.
package export

import (
	"io"
	"strings"
	"time"

	"registro/internal/core"
)

// Headers is the fixed export header row, in column order.
var Headers = []string{"Data", "Tipo", "Categoria", "Importo", "Note"}

const (
	delimiter = ";"
	bom       = "\uFEFF"

	rowDateLayout  = "02/01/2006" // it-IT display convention
	fileDateLayout = "20060102"
)

// Document is the exportable form of a transaction set.
type Document struct {
	Headers  []string
	Rows     [][]string
	FileName string
}

// Build converts transactions into export rows. The range is applied only
// when both bounds are set; otherwise the full input is exported. The file
// name embeds the range, or today's date for a full export, so repeated
// exports do not collide.
func Build(txs []core.Transaction, rng core.DateRange, today core.Date) Document {
	selected := txs
	if rng.IsClosed() {
		selected = core.FilterByRange(txs, rng)
	}

	rows := make([][]string, 0, len(selected))
	for _, t := range selected {
		rows = append(rows, []string{
			t.Date.Format(rowDateLayout),
			typeLabel(t.Type),
			t.Category,
			core.FormatAmountIT(t.Amount),
			t.Notes,
		})
	}

	return Document{
		Headers:  Headers,
		Rows:     rows,
		FileName: fileName(rng, today),
	}
}

// Write renders the document as delimited text. Fields are joined with
// ";" and rows with "\n"; the BOM goes first.
func Write(w io.Writer, doc Document) error {
	lines := make([]string, 0, len(doc.Rows)+1)
	lines = append(lines, strings.Join(doc.Headers, delimiter))
	for _, row := range doc.Rows {
		lines = append(lines, strings.Join(row, delimiter))
	}
	_, err := io.WriteString(w, bom+strings.Join(lines, "\n"))
	return err
}

func typeLabel(t core.Type) string {
	if t == core.Income {
		return "Entrata"
	}
	return "Uscita"
}

// ParseTypeLabel maps a localized type label back to the domain type.
// Used when re-reading exported rows.
func ParseTypeLabel(label string) (core.Type, bool) {
	switch label {
	case "Entrata":
		return core.Income, true
	case "Uscita":
		return core.Expense, true
	}
	return "", false
}

func fileName(rng core.DateRange, today core.Date) string {
	if rng.IsClosed() {
		return "transazioni_" + rng.Start.String() + "_" + rng.End.String() + ".csv"
	}
	if today.IsEmpty() {
		today = core.Date{Time: time.Now().UTC()}
	}
	return "transazioni_complete_" + today.Format(fileDateLayout) + ".csv"
}
