package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// DateLayout is the timestamp format of the Date column.
const DateLayout = "2006-01-02 15:04:05"

var csvColumns = []string{"date", "open", "high", "low", "close"}

// CSVSource reads bars from a Date,Open,High,Low,Close file. Column order is
// taken from the header; extra columns are ignored. Dates without a zone are
// read as UTC.
type CSVSource struct {
	name   string
	r      *csv.Reader
	closer io.Closer
	idx    map[string]int
	line   int
}

// NewCSVSource reads the header from r. name labels errors.
func NewCSVSource(r io.Reader, name string) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("feed/csv: %s: read header: %w", name, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if key == "datetime" || key == "time" || key == "timestamp" {
			key = "date"
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("feed/csv: %s: missing column %q (need Date,Open,High,Low,Close)", name, col)
		}
	}
	if c, ok := r.(io.Closer); ok {
		return &CSVSource{name: name, r: cr, closer: c, idx: idx, line: 1}, nil
	}
	return &CSVSource{name: name, r: cr, idx: idx, line: 1}, nil
}

// OpenCSV opens the file at path.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed/csv: open %s: %w", path, err)
	}
	src, err := NewCSVSource(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}

// Next parses the next row. Malformed rows return domain.ErrInvalidBar with
// the line number.
func (c *CSVSource) Next(ctx context.Context) (domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bar{}, err
	}
	rec, err := c.r.Read()
	if errors.Is(err, io.EOF) {
		return domain.Bar{}, io.EOF
	}
	c.line++
	if err != nil {
		return domain.Bar{}, fmt.Errorf("feed/csv: %s line %d: %w: %v", c.name, c.line, domain.ErrInvalidBar, err)
	}
	ts, err := parseTime(c.field(rec, "date"))
	if err != nil {
		return domain.Bar{}, fmt.Errorf("feed/csv: %s line %d: %w: %v", c.name, c.line, domain.ErrInvalidBar, err)
	}
	var vals [4]float64
	for i, col := range csvColumns[1:] {
		v, err := strconv.ParseFloat(c.field(rec, col), 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("feed/csv: %s line %d: %s: %w: %v", c.name, c.line, col, domain.ErrInvalidBar, err)
		}
		vals[i] = v
	}
	return domain.Bar{Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}, nil
}

func (c *CSVSource) field(rec []string, col string) string {
	i := c.idx[col]
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// Close releases the underlying reader when it is closable.
func (c *CSVSource) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// WriteCSV writes bars in the format CSVSource reads.
func WriteCSV(w io.Writer, bars []domain.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Open", "High", "Low", "Close"}); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Time.UTC().Format(DateLayout),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
