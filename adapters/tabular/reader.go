package tabular

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gocascade/domain/frame"
)

// Column is one parsed column of a file. Numeric columns carry Values with
// NaN for missing cells; categorical columns carry Labels with "" for
// missing cells.
type Column struct {
	Name    string
	Type    frame.ColumnType
	Values  []float64
	Labels  []string
	Missing int
}

// Table is the in-memory result of reading a tabular file
type Table struct {
	Name    string
	Headers []string
	Columns []Column
	Rows    int
}

// Column returns the parsed column with the given name
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Reader reads CSV and XLSX files into typed columns
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader for the given file, picking the format from the
// extension
func NewReader(filePath string) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// Read parses the file into typed columns
func (r *Reader) Read() (*Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	table, err := buildTable(rows)
	if err != nil {
		return nil, err
	}
	table.Name = strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))

	log.Printf("[TabularReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(table.Columns), table.Rows)
	return table, nil
}

func (r *Reader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	return rows, nil
}

// buildTable turns raw string rows into typed columns. A column is numeric
// when every non-missing cell parses as a float.
func buildTable(rows [][]string) (*Table, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
		if headers[i] == "" {
			return nil, fmt.Errorf("empty header in column %d", i)
		}
	}

	dataRows := rows[1:]
	table := &Table{Headers: headers, Rows: len(dataRows)}

	for colIdx, name := range headers {
		cells := make([]string, len(dataRows))
		for rowIdx, row := range dataRows {
			if colIdx < len(row) {
				cells[rowIdx] = strings.TrimSpace(row[colIdx])
			}
		}
		table.Columns = append(table.Columns, buildColumn(name, cells))
	}
	return table, nil
}

func buildColumn(name string, cells []string) Column {
	numeric := true
	for _, cell := range cells {
		if isMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			numeric = false
			break
		}
	}

	col := Column{Name: name}
	if numeric {
		col.Type = frame.TypeNumeric
		col.Values = make([]float64, len(cells))
		for i, cell := range cells {
			if isMissing(cell) {
				col.Values[i] = math.NaN()
				col.Missing++
				continue
			}
			v, _ := strconv.ParseFloat(cell, 64)
			col.Values[i] = v
		}
		return col
	}

	col.Type = frame.TypeCategorical
	col.Labels = make([]string, len(cells))
	for i, cell := range cells {
		if isMissing(cell) {
			col.Missing++
			continue
		}
		col.Labels[i] = cell
	}
	return col
}

func isMissing(cell string) bool {
	switch cell {
	case "", "NA", "NaN", "nan":
		return true
	}
	return false
}
