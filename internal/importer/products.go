// Package importer reads catalog spreadsheets into products.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheet       = errors.New("no sheets found in workbook")
	ErrNoRows        = errors.New("no data rows found in workbook")
	ErrMissingColumn = errors.New("required column missing from header")
)

// Columns recognised in the header row. Matching ignores case and
// surrounding spaces; column order is free.
const (
	ColumnName        = "name"
	ColumnDescription = "description"
	ColumnPrice       = "price"
	ColumnCategory    = "category"
	ColumnImageURL    = "image_url"
	ColumnStock       = "stock"
	ColumnSizes       = "sizes"
)

var requiredColumns = []string{ColumnName, ColumnPrice, ColumnCategory, ColumnImageURL, ColumnStock}

// RowError explains why a sheet row was skipped. Row is 1-based as shown in
// spreadsheet applications.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

type Result struct {
	Sheet    string
	Products []model.Product
	Skipped  []RowError
}

// ReadProducts parses the first sheet of an XLSX workbook. Rows that fail
// validation are reported in Skipped; repeated names keep the first row.
func ReadProducts(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	columns, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	result := &Result{Sheet: sheet}
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		product, reason := parseRow(row, columns)
		if reason != "" {
			result.Skipped = append(result.Skipped, RowError{Row: rowNum, Reason: reason})
			continue
		}

		key := strings.ToLower(product.Name)
		if seen[key] {
			result.Skipped = append(result.Skipped, RowError{Row: rowNum, Reason: "duplicate name " + product.Name})
			continue
		}
		seen[key] = true

		result.Products = append(result.Products, *product)
	}

	logger.Info("Catalog workbook parsed", map[string]interface{}{
		"sheet":    sheet,
		"rows":     len(rows) - 1,
		"products": len(result.Products),
		"skipped":  len(result.Skipped),
	})
	return result, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := columns[name]; !dup && name != "" {
			columns[name] = i
		}
	}

	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return columns, nil
}

func cell(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRow(row []string, columns map[string]int) (*model.Product, string) {
	name := cell(row, columns, ColumnName)
	if name == "" {
		return nil, "name is empty"
	}

	category := strings.ToLower(cell(row, columns, ColumnCategory))
	if category == "" {
		return nil, "category is empty"
	}

	imageURL := cell(row, columns, ColumnImageURL)
	if imageURL == "" {
		return nil, "image_url is empty"
	}

	price, err := decimal.NewFromString(cell(row, columns, ColumnPrice))
	if err != nil || !price.IsPositive() {
		return nil, "price must be a positive number"
	}

	stock, err := strconv.Atoi(cell(row, columns, ColumnStock))
	if err != nil || stock < 0 {
		return nil, "stock must be a non-negative integer"
	}

	sizes := splitSizes(cell(row, columns, ColumnSizes))
	if invalid, _ := model.InvalidSizes(category, sizes); len(invalid) > 0 {
		return nil, fmt.Sprintf("sizes %s are not valid for %s", strings.Join(invalid, ","), category)
	}

	description := cell(row, columns, ColumnDescription)
	if description == "" {
		description = name
	}

	return &model.Product{
		Name:        name,
		Description: description,
		Price:       price.Round(2),
		Category:    category,
		ImageURL:    imageURL,
		Stock:       stock,
		Sizes:       model.StringList(sizes),
	}, ""
}

// splitSizes accepts comma or slash separated labels
func splitSizes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '/'
	})
	sizes := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
