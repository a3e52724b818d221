package service

import (
	"fmt"
	"site-inventory/internal/models"
	"unicode/utf8"
)

var requiredColumns = []int{
	colSiteID, colSiteName, colProvider, colAddress, colCity, colState, colZip, colStructureType,
}

// textColumnLimits mirrors the VARCHAR sizes of the sites table, in characters.
// ZIP is left out: it is stored in normalized form, which always fits.
var textColumnLimits = []struct {
	col    int
	column string
	max    int
}{
	{colSiteID, "site_id", 100},
	{colSiteName, "name", 255},
	{colArea, "area", 100},
	{colDistrict, "district", 100},
	{colProvider, "provider", 150},
	{colAddress, "address", 255},
	{colCity, "city", 100},
	{colCounty, "county", 100},
	{colState, "state", 50},
	{colCMAID, "cma_id", 50},
	{colCMAName, "cma_name", 150},
	{colStructureType, "structure_type", 100},
	{colSiteType, "site_type", 100},
	{colGECode, "ge_code", 50},
	{colAlternateID, "alternate_id", 100},
}

// ValidateHeader compares the received header row to SiteImportHeaders by
// length and position.
func ValidateHeader(received []string) error {
	received = NormalizeHeader(received)
	if len(received) != len(SiteImportHeaders) {
		return headerMismatch(received)
	}
	for i, name := range SiteImportHeaders {
		if received[i] != name {
			return headerMismatch(received)
		}
	}
	return nil
}

func headerMismatch(received []string) *HeaderMismatchError {
	expected := make([]string, len(SiteImportHeaders))
	copy(expected, SiteImportHeaders)
	return &HeaderMismatchError{Expected: expected, Received: received}
}

// ValidateRow returns every rule the row breaks. A row with no messages is valid.
func ValidateRow(row NormalizedRow) []string {
	var messages []string

	for _, col := range requiredColumns {
		if row.text(col) == "" {
			messages = append(messages, fmt.Sprintf("%s is required", SiteImportHeaders[col]))
		}
	}

	for _, limit := range textColumnLimits {
		if utf8.RuneCountInString(row.text(limit.col)) > limit.max {
			messages = append(messages, fmt.Sprintf("%s must be at most %d characters", SiteImportHeaders[limit.col], limit.max))
		}
	}

	if lat := row.number(colLatitude); lat < -90 || lat > 90 {
		messages = append(messages, "Latitude must be between -90 and 90")
	}
	if lon := row.number(colLongitude); lon < -180 || lon > 180 {
		messages = append(messages, "Longitude must be between -180 and 180")
	}
	if row.number(colStructureHeight) < 0 {
		messages = append(messages, "Structure Height must be 0 or greater")
	}

	return messages
}

// ToImportRow maps a validated row onto its staged representation.
func ToImportRow(row NormalizedRow) models.SiteImportRow {
	return models.SiteImportRow{
		Row:              row.Line,
		SiteID:           row.text(colSiteID),
		Name:             row.text(colSiteName),
		Area:             row.text(colArea),
		District:         row.text(colDistrict),
		Provider:         row.text(colProvider),
		ProviderResident: row.text(colProviderResident),
		Address:          row.text(colAddress),
		City:             row.text(colCity),
		County:           row.text(colCounty),
		State:            row.text(colState),
		Zip:              row.text(colZip),
		CMAID:            row.text(colCMAID),
		CMAName:          row.text(colCMAName),
		StructureType:    row.text(colStructureType),
		SiteType:         row.text(colSiteType),
		GECode:           row.text(colGECode),
		StructureHeight:  row.number(colStructureHeight),
		Latitude:         row.number(colLatitude),
		Longitude:        row.number(colLongitude),
		AlternateID:      row.text(colAlternateID),
	}
}
