// Package parser converts provider responses into row records.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aluiziolira/fapool/models"
)

// Normalizer turns a successful response body into rows.
type Normalizer interface {
	Normalize(body []byte) (models.Normalized, error)
}

// ForMode returns the normalizer matching a fetch mode.
func ForMode(mode models.Mode) (Normalizer, error) {
	switch mode {
	case models.ModeJSON:
		return JSONNormalizer{}, nil
	case models.ModeHTML:
		return TableNormalizer{}, nil
	default:
		return nil, fmt.Errorf("no normalizer for mode %q", mode)
	}
}

// RowKeys lists the payload keys that may hold the row array, highest
// priority first.
var RowKeys = []string{"data", "rows", "result", "results"}

// JSONNormalizer extracts rows from the leaders API payload.
type JSONNormalizer struct{}

// Normalize picks the first candidate key holding an array and keeps its
// object elements in order. A payload without such a key is schema drift,
// not an error.
func (JSONNormalizer) Normalize(body []byte) (models.Normalized, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return models.Normalized{}, fmt.Errorf("decode payload: %w", err)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return drift(), nil
	}
	for _, key := range RowKeys {
		list, ok := obj[key].([]any)
		if !ok {
			continue
		}
		rows := make([]models.Row, 0, len(list))
		for _, item := range list {
			if rec, ok := item.(map[string]any); ok {
				rows = append(rows, models.Row(rec))
			}
		}
		return models.Normalized{Status: models.StatusRows, Rows: rows}, nil
	}
	return drift(), nil
}

func drift() models.Normalized {
	return models.Normalized{Status: models.StatusSchemaDrift, Rows: []models.Row{}}
}
