package extract

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when the artifact extension is not a
// known tabular format.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// SheetSnapshot is an ephemeral in-memory grid of rows for one sheet.
// Rows may be jagged and cells are raw strings as read from the source;
// the grid is read once and discarded after extraction.
type SheetSnapshot struct {
	Name string
	Rows [][]string
}

// RowSource yields the sheets of one tabular artifact in file order.
// Header discovery, field mapping and row normalization all run on top
// of this abstraction so they are implemented once regardless of the
// underlying reader.
type RowSource interface {
	Sheets() ([]SheetSnapshot, error)
}

// Open routes the payload to a reader based on the file extension.
func Open(fileName string, payload []byte) (RowSource, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".xlsx", ".xlsm":
		return &excelSource{payload: payload}, nil
	case ".csv":
		name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
		return &csvSource{payload: payload, name: name}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

type excelSource struct {
	payload []byte
}

func (s *excelSource) Sheets() ([]SheetSnapshot, error) {
	f, err := excelize.OpenReader(bytes.NewReader(s.payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	sheets := make([]SheetSnapshot, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
		}
		sheets = append(sheets, SheetSnapshot{Name: name, Rows: rows})
	}
	return sheets, nil
}

type csvSource struct {
	payload []byte
	name    string
}

func (s *csvSource) Sheets() ([]SheetSnapshot, error) {
	reader := bufio.NewReader(bytes.NewReader(s.payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return []SheetSnapshot{{Name: s.name, Rows: records}}, nil
}
