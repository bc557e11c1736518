package parsers

import (
	"strings"
	"testing"

	"partshub-api/internal/model"
)

func TestParseInventoryCSVMapsColumns(t *testing.T) {
	csv := strings.Join([]string{
		"VCPN,SKU,Name,Description,VendorName,Brand,Category,SubCategory,Cost,JobberPrice,TotalQty,Weight,Discontinued",
		`K123,S456,Brake Pad,"Front, ceramic",ACME Supply,StopFast,Brakes,Pads,$12.50,"1,024.99",8,3.2,false`,
	}, "\n")

	items, err := ParseInventoryCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	got := items[0]
	want := model.InventoryItem{
		KeystoneVCPN: "K123",
		SKU:          "S456",
		Name:         "Brake Pad",
		Description:  "Front, ceramic",
		Supplier:     "ACME Supply",
		Brand:        "StopFast",
		Category:     "Brakes",
		Subcategory:  "Pads",
		Cost:         12.50,
		ListPrice:    1024.99,
		Quantity:     8,
		Weight:       3.2,
		Status:       model.ItemStatusActive,
	}
	if got != want {
		t.Errorf("parsed item = %+v, want %+v", got, want)
	}
}

func TestParseInventoryCSVHeaderAliases(t *testing.T) {
	// Alternate supplier headers map onto the same fields.
	csv := strings.Join([]string{
		"PartNumber,PartName,LongDescription,ManufacturerName,ListPrice,Quantity",
		"P-100,Oil Filter,Spin-on filter,FilterCo,9.99,120",
	}, "\n")

	items, err := ParseInventoryCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	got := items[0]
	if got.SKU != "P-100" || got.Name != "Oil Filter" || got.Description != "Spin-on filter" {
		t.Errorf("alias mapping failed: %+v", got)
	}
	if got.Brand != "FilterCo" || got.ListPrice != 9.99 || got.Quantity != 120 {
		t.Errorf("alias mapping failed: %+v", got)
	}
}

func TestParseInventoryCSVHeaderCaseInsensitive(t *testing.T) {
	csv := "vcpn,NAME,totalQty\nK1,Widget,5\n"

	items, err := ParseInventoryCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if items[0].KeystoneVCPN != "K1" || items[0].Name != "Widget" || items[0].Quantity != 5 {
		t.Errorf("case-insensitive mapping failed: %+v", items[0])
	}
}

func TestParseInventoryCSVSkipsBOM(t *testing.T) {
	csv := "\xEF\xBB\xBFVCPN,Name\nK1,Widget\n"

	items, err := ParseInventoryCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].KeystoneVCPN != "K1" {
		t.Errorf("BOM should be stripped before the header, got %+v", items)
	}
}

func TestParseInventoryCSVShortRows(t *testing.T) {
	csv := "VCPN,Name,Cost\nK1,Widget\n"

	items, err := ParseInventoryCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Cost != 0 {
		t.Errorf("missing trailing field should default, got %v", items[0].Cost)
	}
}

func TestParseInventoryCSVDiscontinued(t *testing.T) {
	csv := "VCPN,Discontinued\nK1,TRUE\nK2,false\nK3,1\n"

	items, err := ParseInventoryCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	wantStatus := []string{
		model.ItemStatusDiscontinued,
		model.ItemStatusActive,
		model.ItemStatusActive, // only the literal "true" discontinues
	}
	for i, want := range wantStatus {
		if items[i].Status != want {
			t.Errorf("row %d: Status = %q, want %q", i, items[i].Status, want)
		}
	}
}

func TestParseInventoryCSVEmptyFile(t *testing.T) {
	if _, err := ParseInventoryCSV(strings.NewReader("")); err == nil {
		t.Error("empty file should be rejected")
	}
}

func TestParseInventoryCSVHeaderOnly(t *testing.T) {
	items, err := ParseInventoryCSV(strings.NewReader("VCPN,Name\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("header-only file should yield no items, got %d", len(items))
	}
}

func TestParseNumericHelpers(t *testing.T) {
	floatTests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"12.5", 12.5},
		{"$12.50", 12.5},
		{"1,234.56", 1234.56},
		{"abc", 0},
	}
	for _, tt := range floatTests {
		if got := parseFloat(tt.in); got != tt.want {
			t.Errorf("parseFloat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	intTests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"42", 42},
		{"1,000", 1000},
		{"3.7", 3},
		{"many", 0},
	}
	for _, tt := range intTests {
		if got := parseInt(tt.in); got != tt.want {
			t.Errorf("parseInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
