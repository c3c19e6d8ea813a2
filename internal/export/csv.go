package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/checho651/bfx-report/internal/registry"
)

// csvWriter writes rows under a fixed header
type csvWriter struct {
	w       *csv.Writer
	columns []string
	record  []string
}

func newCSVWriter(out io.Writer, columns []string) (*csvWriter, error) {
	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &csvWriter{w: w, columns: columns, record: make([]string, len(columns))}, nil
}

func (c *csvWriter) Write(row registry.Row) error {
	for i, col := range c.columns {
		c.record[i] = formatValue(row[col])
	}
	return c.w.Write(c.record)
}

// Flush writes buffered records and reports any write error
func (c *csvWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
