package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/parisxmas/vacancyform/internal/models"
)

const xlsxSheet = "Sheet1"

// ErrCellTooLong is returned instead of letting the workbook cut a value.
var ErrCellTooLong = errors.New("value exceeds the spreadsheet cell limit")

// XLSXLog is the submission log as a spreadsheet. Every append rewrites the
// workbook through a temp file and rename.
type XLSXLog struct {
	path string
}

func NewXLSXLog(path string) *XLSXLog {
	return &XLSXLog{path: path}
}

func (l *XLSXLog) Append(ctx context.Context, rec *models.Record) error {
	for _, f := range rec.Fields() {
		if utf8.RuneCountInString(f.Value) > excelize.TotalCellChars || utf8.RuneCountInString(f.Label) > excelize.TotalCellChars {
			return fmt.Errorf("%w: %s", ErrCellTooLong, f.Label)
		}
	}

	mu := lockFor(l.path)
	mu.Lock()
	defer mu.Unlock()

	table, err := l.read()
	if err != nil {
		return err
	}
	table.Extend(rec)
	table.Rows = append(table.Rows, table.Row(rec))
	return l.write(table)
}

func (l *XLSXLog) Records(ctx context.Context) ([]*models.Record, error) {
	mu := lockFor(l.path)
	mu.Lock()
	defer mu.Unlock()

	table, err := l.read()
	if err != nil {
		return nil, err
	}
	return table.Records(), nil
}

func (l *XLSXLog) Close() error { return nil }

func (l *XLSXLog) read() (*Table, error) {
	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		return &Table{}, nil
	}
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}
	return &Table{Columns: rows[0], Rows: rows[1:]}, nil
}

func (l *XLSXLog) write(t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	all := append([][]string{t.Columns}, t.Rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return fmt.Errorf("write workbook row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	if err := writeAtomic(l.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
