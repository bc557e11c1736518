// Package parsers turns uploaded supplier files into typed inventory
// records.
package parsers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"partshub-api/internal/model"
)

// SkipBOM strips a UTF-8 byte order mark if present. Supplier exports
// from Windows tooling frequently carry one.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	if peeked[0] == 0xEF && peeked[1] == 0xBB && peeked[2] == 0xBF {
		br.Discard(3)
	}
	return br
}

// Recognized header names, lowercased. Unknown headers are silently
// ignored.
const (
	colVCPN        = "vcpn"
	colSKU         = "sku"
	colPartNumber  = "partnumber"
	colName        = "name"
	colPartName    = "partname"
	colDescription = "description"
	colLongDesc    = "longdescription"
	colVendorName  = "vendorname"
	colBrand       = "brand"
	colManufacturer = "manufacturername"
	colCategory    = "category"
	colSubcategory = "subcategory"
	colCost        = "cost"
	colJobberPrice = "jobberprice"
	colListPrice   = "listprice"
	colTotalQty    = "totalqty"
	colQuantity    = "quantity"
	colWeight      = "weight"
	colLength      = "length"
	colWidth       = "width"
	colHeight      = "height"
	colDiscontinued = "discontinued"
)

// ParseInventoryCSV reads a supplier CSV export and maps recognized
// columns onto inventory items. The first line is the header row; header
// matching is case-insensitive. Numeric fields parse permissively,
// defaulting to 0, and boolean-like fields are true only for the literal
// string "true" (any case). Rows shorter than the header are padded with
// empty fields rather than rejected.
func ParseInventoryCSV(r io.Reader) ([]model.InventoryItem, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var items []model.InventoryItem
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		get := func(col string) string {
			idx, ok := colIndex[col]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		first := func(cols ...string) string {
			for _, col := range cols {
				if v := get(col); v != "" {
					return v
				}
			}
			return ""
		}

		item := model.InventoryItem{
			KeystoneVCPN: get(colVCPN),
			SKU:          first(colSKU, colPartNumber),
			Name:         first(colName, colPartName),
			Description:  first(colDescription, colLongDesc),
			Brand:        first(colBrand, colManufacturer),
			Supplier:     get(colVendorName),
			Category:     get(colCategory),
			Subcategory:  get(colSubcategory),
			Cost:         parseFloat(get(colCost)),
			ListPrice:    parseFloat(first(colJobberPrice, colListPrice)),
			Quantity:     parseInt(first(colTotalQty, colQuantity)),
			Weight:       parseFloat(get(colWeight)),
			Length:       parseFloat(get(colLength)),
			Width:        parseFloat(get(colWidth)),
			Height:       parseFloat(get(colHeight)),
			Status:       model.ItemStatusActive,
		}
		if parseBool(get(colDiscontinued)) {
			item.Status = model.ItemStatusDiscontinued
		}

		items = append(items, item)
	}
	return items, nil
}

// parseFloat parses permissively, defaulting to 0. Currency symbols and
// thousands separators from supplier exports are stripped first.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseInt parses permissively, defaulting to 0. Fractional quantities
// are truncated.
func parseInt(s string) int {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// parseBool is true only for the literal string "true", any case.
func parseBool(s string) bool {
	return strings.EqualFold(s, "true")
}
