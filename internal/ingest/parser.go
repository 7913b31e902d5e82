package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"btracker/internal/model"
)

var (
	ErrParse         = errors.New("parse error")
	ErrMissingColumn = errors.New("missing required column")
	ErrNoRows        = errors.New("no data rows")
)

// DateLayout is how the Month, Day and Year columns read once joined.
const DateLayout = "Jan 2 2006"

// volumeOffset is where Volume sits in files whose header does not name it
// (Month, Day, Year, Open, High, Low, Close, AdjClose, Volume).
const volumeOffset = 8

// Delimiter selects the field separator of the input table.
type Delimiter string

const (
	DelimiterAuto Delimiter = "auto"
	DelimiterPipe Delimiter = "pipe"
	DelimiterTab  Delimiter = "tab"
)

// Options configures Parse.
type Options struct {
	Delimiter Delimiter
}

var required = []string{"month", "day", "year", "open", "high", "low", "close"}

// Parse reads a delimited price table with a header row and returns it as a
// newest-first series. Any malformed field fails the whole parse.
func Parse(r io.Reader, opts Options) (model.Series, error) {
	br := bufio.NewReader(r)
	comma, err := resolveDelimiter(br, opts.Delimiter)
	if err != nil {
		return model.Series{}, err
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return model.Series{}, ErrNoRows
	}
	if err != nil {
		return model.Series{}, fmt.Errorf("%w: header: %v", ErrParse, err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return model.Series{}, err
	}

	var obs []model.Observation
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Series{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}
		o, err := parseRecord(record, cols)
		if err != nil {
			return model.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return model.Series{}, ErrNoRows
	}
	return model.NewSeries(obs)
}

type columns struct {
	month, day, year, open, high, low, close int
	volume                                   int // -1 when absent
}

func indexColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := pos[name]; !ok {
			return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	c := columns{
		month: pos["month"],
		day:   pos["day"],
		year:  pos["year"],
		open:  pos["open"],
		high:  pos["high"],
		low:   pos["low"],
		close: pos["close"],
	}
	if v, ok := pos["volume"]; ok {
		c.volume = v
	} else if len(header) > volumeOffset {
		c.volume = volumeOffset
	} else {
		c.volume = -1
	}
	return c, nil
}

func parseRecord(record []string, c columns) (model.Observation, error) {
	field := func(i int) (string, error) {
		if i >= len(record) {
			return "", fmt.Errorf("%w: column %d missing", ErrParse, i+1)
		}
		return strings.TrimSpace(record[i]), nil
	}

	var parts [3]string
	for k, i := range []int{c.month, c.day, c.year} {
		v, err := field(i)
		if err != nil {
			return model.Observation{}, err
		}
		parts[k] = v
	}
	raw := strings.Join(parts[:], " ")
	date, err := time.Parse(DateLayout, raw)
	if err != nil {
		return model.Observation{}, fmt.Errorf("%w: date %q: %v", ErrParse, raw, err)
	}

	o := model.Observation{Date: date}
	targets := []struct {
		name string
		col  int
		dst  *float64
	}{
		{"open", c.open, &o.Open},
		{"high", c.high, &o.High},
		{"low", c.low, &o.Low},
		{"close", c.close, &o.Close},
		{"volume", c.volume, &o.Volume},
	}
	for _, t := range targets {
		if t.col < 0 {
			continue
		}
		v, err := field(t.col)
		if err != nil {
			return model.Observation{}, err
		}
		n, err := ParseNumber(v)
		if err != nil {
			return model.Observation{}, fmt.Errorf("%s: %w", t.name, err)
		}
		*t.dst = n
	}
	return o, nil
}

// ParseNumber parses a decimal field, ignoring thousands separators.
func ParseNumber(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || !model.IsFinite(v) {
		return 0, fmt.Errorf("%w: number %q", ErrParse, s)
	}
	return v, nil
}

func resolveDelimiter(br *bufio.Reader, d Delimiter) (rune, error) {
	switch d {
	case DelimiterPipe:
		return '|', nil
	case DelimiterTab:
		return '\t', nil
	case DelimiterAuto, "":
		// Peek far enough to see the header line.
		head, err := br.Peek(br.Size())
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return 0, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if i := bytes.IndexByte(head, '\n'); i >= 0 {
			head = head[:i]
		}
		if bytes.IndexByte(head, '\t') >= 0 {
			return '\t', nil
		}
		return '|', nil
	default:
		return 0, fmt.Errorf("unknown delimiter %q", d)
	}
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
