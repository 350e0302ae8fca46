package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/aluiziolira/fapool/models"
)

// ArtifactWriter persists one job's rows under its output name and returns
// the primary path written.
type ArtifactWriter interface {
	WriteArtifact(name string, rows []models.Row) (string, error)
}

// JSONArtifactWriter writes each artifact as a JSON array of row objects.
type JSONArtifactWriter struct {
	Dir string
}

// NewJSONArtifactWriter returns a writer rooted at dir.
func NewJSONArtifactWriter(dir string) *JSONArtifactWriter {
	return &JSONArtifactWriter{Dir: dir}
}

// WriteArtifact replaces <dir>/<name>.json with rows.
func (jw *JSONArtifactWriter) WriteArtifact(name string, rows []models.Row) (string, error) {
	data, err := encodeRows(rows)
	if err != nil {
		return "", err
	}
	path := filepath.Join(jw.Dir, name+".json")
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// encodeRows renders rows compactly, keeping non-ASCII text and HTML
// characters as-is. Map keys come out sorted, so equal rows give equal bytes.
func encodeRows(rows []models.Row) ([]byte, error) {
	if rows == nil {
		rows = []models.Row{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// CSVArtifactWriter writes each artifact as CSV with the sorted union of
// field names as header.
type CSVArtifactWriter struct {
	Dir string
}

// NewCSVArtifactWriter returns a writer rooted at dir.
func NewCSVArtifactWriter(dir string) *CSVArtifactWriter {
	return &CSVArtifactWriter{Dir: dir}
}

// WriteArtifact replaces <dir>/<name>.csv with rows.
func (cw *CSVArtifactWriter) WriteArtifact(name string, rows []models.Row) (string, error) {
	path := filepath.Join(cw.Dir, name+".csv")
	if err := ensureDir(path); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	buffer := bufio.NewWriter(f)
	writer := csv.NewWriter(buffer)
	header := fieldNames(rows)
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, key := range header {
			record[i] = formatCell(row[key])
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv records: %w", err)
	}
	if err := buffer.Flush(); err != nil {
		return "", fmt.Errorf("flush csv file: %w", err)
	}
	return path, f.Close()
}

// DualArtifactWriter outputs to both JSON and CSV formats.
type DualArtifactWriter struct {
	jsonWriter *JSONArtifactWriter
	csvWriter  *CSVArtifactWriter
}

// NewDualArtifactWriter creates a writer producing <name>.json and <name>.csv.
func NewDualArtifactWriter(dir string) *DualArtifactWriter {
	return &DualArtifactWriter{
		jsonWriter: NewJSONArtifactWriter(dir),
		csvWriter:  NewCSVArtifactWriter(dir),
	}
}

// WriteArtifact writes JSON first and returns its path.
func (dw *DualArtifactWriter) WriteArtifact(name string, rows []models.Row) (string, error) {
	path, err := dw.jsonWriter.WriteArtifact(name, rows)
	if err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	if _, err := dw.csvWriter.WriteArtifact(name, rows); err != nil {
		return "", fmt.Errorf("CSV write failed: %w", err)
	}
	return path, nil
}

// NewArtifactWriter picks a writer for an output format.
func NewArtifactWriter(format, dir string) (ArtifactWriter, error) {
	switch format {
	case "json":
		return NewJSONArtifactWriter(dir), nil
	case "csv":
		return NewCSVArtifactWriter(dir), nil
	case "dual":
		return NewDualArtifactWriter(dir), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func fieldNames(rows []models.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for key := range seen {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// writeFile truncates and rewrites path in place.
func writeFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
