package parser

import (
	"encoding/json"
	"testing"

	"github.com/aluiziolira/fapool/models"
	"github.com/google/go-cmp/cmp"
)

func TestJSONNormalize(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus models.NormalizeStatus
		wantRows   []models.Row
	}{
		{
			name:       "primary key drops non-objects",
			payload:    `{"data":[{"Name":"A","WAR":1.5},7,{"Name":"B","WAR":-0.2}]}`,
			wantStatus: models.StatusRows,
			wantRows: []models.Row{
				{"Name": "A", "WAR": json.Number("1.5")},
				{"Name": "B", "WAR": json.Number("-0.2")},
			},
		},
		{
			name:       "fallback key",
			payload:    `{"meta":{},"results":[{"Name":"C"}]}`,
			wantStatus: models.StatusRows,
			wantRows:   []models.Row{{"Name": "C"}},
		},
		{
			name:       "first candidate wins",
			payload:    `{"results":[{"Name":"late"}],"rows":[{"Name":"early"}]}`,
			wantStatus: models.StatusRows,
			wantRows:   []models.Row{{"Name": "early"}},
		},
		{
			name:       "non-array primary falls through",
			payload:    `{"data":{"Name":"X"},"rows":[{"Name":"Y"}]}`,
			wantStatus: models.StatusRows,
			wantRows:   []models.Row{{"Name": "Y"}},
		},
		{
			name:       "empty array is zero players",
			payload:    `{"data":[]}`,
			wantStatus: models.StatusRows,
			wantRows:   []models.Row{},
		},
		{
			name:       "null and nested elements dropped",
			payload:    `{"data":[null,[{"Name":"n"}],"x",{"Name":"ok","Team":null}]}`,
			wantStatus: models.StatusRows,
			wantRows:   []models.Row{{"Name": "ok", "Team": nil}},
		},
		{
			name:       "no candidate key",
			payload:    `{"message":"moved"}`,
			wantStatus: models.StatusSchemaDrift,
			wantRows:   []models.Row{},
		},
		{
			name:       "top-level array",
			payload:    `[{"Name":"A"}]`,
			wantStatus: models.StatusSchemaDrift,
			wantRows:   []models.Row{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONNormalizer{}.Normalize([]byte(tt.payload))
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Fatalf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if diff := cmp.Diff(tt.wantRows, got.Rows); diff != "" {
				t.Fatalf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONNormalizeInvalidBody(t *testing.T) {
	if _, err := (JSONNormalizer{}).Normalize([]byte("<html>")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestForMode(t *testing.T) {
	if n, err := ForMode(models.ModeJSON); err != nil || n != (JSONNormalizer{}) {
		t.Fatalf("json normalizer = %v, %v", n, err)
	}
	if n, err := ForMode(models.ModeHTML); err != nil || n != (TableNormalizer{}) {
		t.Fatalf("html normalizer = %v, %v", n, err)
	}
	if _, err := ForMode("csv"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
