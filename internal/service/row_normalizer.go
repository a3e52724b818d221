package service

import (
	"math"
	"strconv"
	"strings"
)

// SiteImportHeaders is the only accepted header row, in order.
var SiteImportHeaders = []string{
	"Site ID", "Site Name", "Area", "District", "Provider", "Provider Resident",
	"Address", "City", "County", "State", "ZIP", "CMA ID", "CMA Name",
	"Structure Type", "Site Type", "GE Code", "Structure Height", "Latitude",
	"Longitude", "Alternate ID",
}

// Column positions in SiteImportHeaders.
const (
	colSiteID = iota
	colSiteName
	colArea
	colDistrict
	colProvider
	colProviderResident
	colAddress
	colCity
	colCounty
	colState
	colZip
	colCMAID
	colCMAName
	colStructureType
	colSiteType
	colGECode
	colStructureHeight
	colLatitude
	colLongitude
	colAlternateID
)

const utf8BOM = "\ufeff"

func isNumericColumn(index int) bool {
	return index == colStructureHeight || index == colLatitude || index == colLongitude
}

// Cell is one normalized value. Numeric columns carry Num, the rest Text.
type Cell struct {
	Text    string
	Num     float64
	Numeric bool
}

// NormalizedRow is one data row with exactly len(SiteImportHeaders) cells.
// Line is the 1-based spreadsheet row, the header being line 1.
type NormalizedRow struct {
	Line  int
	Cells []Cell
}

func (r NormalizedRow) text(index int) string {
	return r.Cells[index].Text
}

func (r NormalizedRow) number(index int) float64 {
	return r.Cells[index].Num
}

// NormalizeHeader trims each header cell and a leading byte order mark.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// NormalizeRows converts raw data rows (header excluded) into typed cells.
// Fully blank rows are dropped; line numbers keep counting across them.
func NormalizeRows(rows [][]string) []NormalizedRow {
	normalized := make([]NormalizedRow, 0, len(rows))
	for i, raw := range rows {
		if isBlankRow(raw) {
			continue
		}

		row := NormalizedRow{Line: i + 2, Cells: make([]Cell, len(SiteImportHeaders))}
		for col := range SiteImportHeaders {
			value := strings.TrimSpace(getCellValue(raw, col))
			if isNumericColumn(col) {
				row.Cells[col] = Cell{Text: value, Num: parseFloat(value), Numeric: true}
				continue
			}
			row.Cells[col] = Cell{Text: value}
		}
		normalized = append(normalized, row)
	}
	return normalized
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func getCellValue(row []string, index int) string {
	if index < len(row) {
		return row[index]
	}
	return ""
}

// parseFloat strips thousand separators. Anything unparsable or non-finite is 0.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "-" || s == "" {
		return 0
	}

	s = strings.ReplaceAll(s, ",", "")
	result, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}

func parseBoolValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "1", "true":
		return true
	}
	return false
}
