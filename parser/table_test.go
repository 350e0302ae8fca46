package parser

import (
	"testing"

	"github.com/aluiziolira/fapool/models"
	"github.com/google/go-cmp/cmp"
)

const leadersPage = `<html><body>
<div class="leaders-major__table">
<table>
  <thead>
    <tr><th>#</th><th> Name </th><th>Team</th><th>PA</th><th>AVG</th><th></th></tr>
  </thead>
  <tbody>
    <tr><td>1</td><td>Pete Alonso</td><td>NYM</td><td>1,012</td><td>.272</td><td></td></tr>
    <tr><td>2</td><td>Luis  Arraez</td><td>- - -</td><td>598</td><td>.292</td><td> </td></tr>
    <tr><td>3</td><td>Josh Bell</td><td>WSN</td><td>22</td><td></td><td></td></tr>
  </tbody>
</table>
</div>
<table><tr><td>footer</td></tr></table>
</body></html>`

func TestTableNormalizeDropsEmptyColumn(t *testing.T) {
	got, err := TableNormalizer{}.Normalize([]byte(leadersPage))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Status != models.StatusRows {
		t.Fatalf("status = %q, want rows", got.Status)
	}

	want := []models.Row{
		{"#": int64(1), "Name": "Pete Alonso", "Team": "NYM", "PA": int64(1012), "AVG": 0.272},
		{"#": int64(2), "Name": "Luis Arraez", "Team": "- - -", "PA": int64(598), "AVG": 0.292},
		{"#": int64(3), "Name": "Josh Bell", "Team": "WSN", "PA": int64(22), "AVG": nil},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	for _, row := range got.Rows {
		if _, ok := row["Unnamed: 5"]; ok {
			t.Fatalf("empty column should be dropped: %v", row)
		}
	}
}

func TestTableNormalizeHeaderRowWithoutThead(t *testing.T) {
	page := `<table>
<tr><th>Name</th><th>IP</th><th>Name</th></tr>
<tr><td>A</td><td>10.1</td><td>x</td></tr>
<tr><td>B</td><td>7</td><td>y</td></tr>
</table>`
	got, err := TableNormalizer{}.Normalize([]byte(page))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []models.Row{
		{"Name": "A", "IP": 10.1, "Name.1": "x"},
		{"Name": "B", "IP": 7.0, "Name.1": "y"},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableNormalizeUnnamedKeptWhenPopulated(t *testing.T) {
	page := `<table><thead><tr><th>Name</th><th></th></tr></thead>
<tbody><tr><td>A</td><td>note</td></tr></tbody></table>`
	got, err := TableNormalizer{}.Normalize([]byte(page))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []models.Row{{"Name": "A", "Unnamed: 1": "note"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableNormalizeIntegerColumnWithGapsIsFloat(t *testing.T) {
	page := `<table><thead><tr><th>HR</th><th>Pos</th></tr></thead>
<tbody><tr><td>12</td><td>1B</td></tr><tr><td></td><td>DH</td></tr></tbody></table>`
	got, err := TableNormalizer{}.Normalize([]byte(page))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []models.Row{{"HR": 12.0, "Pos": "1B"}, {"HR": nil, "Pos": "DH"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableNormalizeRowspanCarriesDown(t *testing.T) {
	page := `<table><thead><tr><th>Team</th><th>Name</th><th>HR</th></tr></thead>
<tbody>
<tr><td rowspan="2">NYM</td><td>Pete Alonso</td><td>34</td></tr>
<tr><td>Francisco Lindor</td><td>31</td></tr>
<tr><td>ATL</td><td colspan="2" rowspan="2">n/a</td></tr>
<tr><td>SEA</td></tr>
</tbody></table>`
	got, err := TableNormalizer{}.Normalize([]byte(page))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []models.Row{
		{"Team": "NYM", "Name": "Pete Alonso", "HR": 34.0},
		{"Team": "NYM", "Name": "Francisco Lindor", "HR": 31.0},
		{"Team": "ATL", "Name": nil, "HR": nil},
		{"Team": "SEA", "Name": nil, "HR": nil},
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableNormalizeNoTable(t *testing.T) {
	got, err := TableNormalizer{}.Normalize([]byte(`<html><body><p>Sign in to view</p></body></html>`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !got.Drifted() {
		t.Fatalf("status = %q, want schema drift", got.Status)
	}
	if len(got.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(got.Rows))
	}
}

func TestTableNormalizeHeaderOnly(t *testing.T) {
	got, err := TableNormalizer{}.Normalize([]byte(`<table><thead><tr><th>Name</th></tr></thead><tbody></tbody></table>`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Drifted() || len(got.Rows) != 0 {
		t.Fatalf("got %+v, want zero rows without drift", got)
	}
}

func TestInferColumn(t *testing.T) {
	s := func(v string) *string { return &v }

	tests := []struct {
		name string
		col  []*string
		want []any
	}{
		{name: "ints", col: []*string{s("1"), s("-2")}, want: []any{int64(1), int64(-2)}},
		{name: "thousands", col: []*string{s("1,234"), s("5")}, want: []any{int64(1234), int64(5)}},
		{name: "mixed numeric", col: []*string{s("1"), s("2.5")}, want: []any{1.0, 2.5}},
		{name: "percent stays text", col: []*string{s("12.5 %"), s("3")}, want: []any{"12.5 %", "3"}},
		{name: "words", col: []*string{s("inf"), s("1")}, want: []any{"inf", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, inferColumn(tt.col)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
