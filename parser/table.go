package parser

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/fapool/models"
)

var (
	thousandsPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	numberPattern    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// missingValues are cell texts read as null.
var missingValues = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"#N/A": {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

// TableNormalizer extracts rows from the first <table> of a leaders page.
type TableNormalizer struct{}

// Normalize keeps the provider's column headers as field names, drops columns
// that are empty in every row and infers int, float or string per column. A
// page without a table is schema drift.
func (TableNormalizer) Normalize(body []byte) (models.Normalized, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Normalized{}, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return drift(), nil
	}

	header, records := splitTable(table)
	width := len(header)
	for _, row := range records {
		if len(row) > width {
			width = len(row)
		}
	}
	columns := columnNames(header, width)

	// cells[c][r] is nil for missing values.
	cells := make([][]*string, width)
	for c := range cells {
		cells[c] = make([]*string, len(records))
		for r, row := range records {
			if c < len(row) {
				cells[c][r] = row[c]
			}
		}
	}

	rows := make([]models.Row, len(records))
	for r := range rows {
		rows[r] = make(models.Row, width)
	}
	for c, name := range columns {
		if allMissing(cells[c]) {
			continue
		}
		values := inferColumn(cells[c])
		for r := range rows {
			rows[r][name] = values[r]
		}
	}

	return models.Normalized{Status: models.StatusRows, Rows: rows}, nil
}

// splitTable returns the header cell texts and the body rows. Header comes
// from the last <thead> row, or from a leading row made only of <th> cells.
func splitTable(table *goquery.Selection) ([]*string, [][]*string) {
	var header []*string
	var rows [][]*string

	headRows := table.ChildrenFiltered("thead").ChildrenFiltered("tr")
	headSpans := spans{}
	headRows.Each(func(_ int, tr *goquery.Selection) {
		header = rowCells(tr, headSpans)
	})

	bodySpans := spans{}
	table.ChildrenFiltered("tbody, tfoot").ChildrenFiltered("tr").Each(func(i int, tr *goquery.Selection) {
		if header == nil && len(rows) == 0 && isHeaderRow(tr) {
			header = rowCells(tr, bodySpans)
			return
		}
		rows = append(rows, rowCells(tr, bodySpans))
	})
	return header, rows
}

func isHeaderRow(tr *goquery.Selection) bool {
	cells := tr.ChildrenFiltered("th, td")
	return cells.Length() > 0 && cells.Length() == tr.ChildrenFiltered("th").Length()
}

// spanned is a cell value still owed to the rows below it.
type spanned struct {
	value *string
	rows  int
}

// spans maps a column index to the rowspan cell covering it.
type spans map[int]spanned

// take fills column col from a pending rowspan, if any.
func (s spans) take(col int) (*string, bool) {
	p, ok := s[col]
	if !ok {
		return nil, false
	}
	if p.rows <= 1 {
		delete(s, col)
	} else {
		s[col] = spanned{value: p.value, rows: p.rows - 1}
	}
	return p.value, true
}

// rowCells reads a row, repeating cells that span several columns and
// filling columns still covered by a rowspan from an earlier row.
func rowCells(tr *goquery.Selection, pending spans) []*string {
	var out []*string
	fill := func() {
		for {
			value, ok := pending.take(len(out))
			if !ok {
				return
			}
			out = append(out, value)
		}
	}

	tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		fill()
		text := strings.Join(strings.Fields(cell.Text()), " ")
		var value *string
		if _, missing := missingValues[text]; !missing {
			value = &text
		}
		colspan := spanAttr(cell, "colspan")
		rowspan := spanAttr(cell, "rowspan")
		for i := 0; i < colspan; i++ {
			if rowspan > 1 {
				pending[len(out)] = spanned{value: value, rows: rowspan - 1}
			}
			out = append(out, value)
		}
	})
	fill()
	return out
}

func spanAttr(cell *goquery.Selection, name string) int {
	raw, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// columnNames trims headers, names blank ones "Unnamed: <index>" and suffixes
// repeats with ".1", ".2", ... Without a header row columns are numbered.
func columnNames(header []*string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := range names {
		name := strconv.Itoa(i)
		if header != nil {
			name = fmt.Sprintf("Unnamed: %d", i)
			if i < len(header) && header[i] != nil {
				if trimmed := strings.TrimSpace(*header[i]); trimmed != "" {
					name = trimmed
				}
			}
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func allMissing(col []*string) bool {
	for _, v := range col {
		if v != nil {
			return false
		}
	}
	return true
}

// inferColumn types a column as a whole: integers when every cell is an
// integer, floats when every present cell is numeric (an integer column with
// gaps becomes float), strings otherwise.
func inferColumn(col []*string) []any {
	allInt, allNum, hasMissing := true, true, false
	ints := make([]int64, len(col))
	floats := make([]float64, len(col))

	for i, v := range col {
		if v == nil {
			hasMissing = true
			continue
		}
		s := stripThousands(*v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			ints[i] = n
			floats[i] = float64(n)
			continue
		}
		allInt = false
		f, ok := parseFloat(s)
		if !ok {
			allNum = false
			break
		}
		floats[i] = f
	}

	out := make([]any, len(col))
	for i, v := range col {
		switch {
		case v == nil:
			out[i] = nil
		case allInt && !hasMissing:
			out[i] = ints[i]
		case allNum:
			out[i] = floats[i]
		default:
			out[i] = *v
		}
	}
	return out
}

func stripThousands(s string) string {
	if thousandsPattern.MatchString(s) {
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

func parseFloat(s string) (float64, bool) {
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
