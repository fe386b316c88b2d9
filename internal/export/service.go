package export

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docforge/docforge/internal/resolve"
)

// Service produces XLSX bytes for extraction results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultXLSX renders one extraction result as a workbook: a Fields sheet for
// scalar values, a Records sheet when row records exist, and an Errors sheet
// when any field failed. Successes are always written even when siblings
// failed.
func (s *Service) ResultXLSX(templateName string, res *resolve.Result) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()

	const fieldsSheet = "Fields"
	if err := f.SetSheetName("Sheet1", fieldsSheet); err != nil {
		return nil, err
	}
	if err := setRow(f, fieldsSheet, 1, []any{"Field", "Value"}); err != nil {
		return nil, err
	}
	for i, name := range slices.Sorted(maps.Keys(res.Values)) {
		if err := setRow(f, fieldsSheet, i+2, []any{name, cellValue(res.Values[name])}); err != nil {
			return nil, err
		}
	}

	if len(res.Records) > 0 {
		if err := s.writeRecords(f, res); err != nil {
			return nil, err
		}
	}
	if len(res.FieldErrors) > 0 {
		if err := s.writeErrors(f, res); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.result.ok",
		"template", templateName,
		"values", len(res.Values),
		"records", len(res.Records),
		"errors", len(res.FieldErrors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeRecords(f *excelize.File, res *resolve.Result) error {
	const sheet = "Records"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Stable column order: union of record keys, sorted.
	cols := map[string]struct{}{}
	for _, rec := range res.Records {
		for k := range rec {
			cols[k] = struct{}{}
		}
	}
	names := slices.Sorted(maps.Keys(cols))

	header := make([]any, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, rec := range res.Records {
		row := make([]any, len(names))
		for j, n := range names {
			row[j] = cellValue(rec[n])
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeErrors(f *excelize.File, res *resolve.Result) error {
	const sheet = "Errors"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, []any{"Field", "Row", "Code", "Error"}); err != nil {
		return err
	}
	for i, fe := range res.FieldErrors {
		row := []any{fe.Field, fe.Row, fe.Code, fe.Err.Error()}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		out := ""
		for i, s := range t {
			if i > 0 {
				out += ", "
			}
			out += s
		}
		return out
	}
	return v
}
