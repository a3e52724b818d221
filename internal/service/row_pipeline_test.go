package service

import (
	"os"
	"path/filepath"
	"regexp"
	"site-inventory/internal/models"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRowsTypesNumericColumns(t *testing.T) {
	raw := siteRow("NC-001")
	raw[colSiteName] = "  Padded Name  "
	raw[colStructureHeight] = "1,200"
	raw[colLatitude] = "not a number"
	raw = raw[:colLongitude] // missing trailing cells

	rows := NormalizeRows([][]string{raw})
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, 2, row.Line)
	assert.Len(t, row.Cells, len(SiteImportHeaders))
	assert.Equal(t, "Padded Name", row.text(colSiteName))
	assert.Equal(t, float64(1200), row.number(colStructureHeight))
	assert.Equal(t, float64(0), row.number(colLatitude))
	assert.Equal(t, float64(0), row.number(colLongitude))
	assert.True(t, row.Cells[colLongitude].Numeric)
	assert.Equal(t, "", row.text(colAlternateID))
}

func TestNormalizeRowsSkipsBlankRowsButKeepsLineNumbers(t *testing.T) {
	rows := NormalizeRows([][]string{
		siteRow("A"),
		{"", "  ", ""},
		{},
		siteRow("B"),
	})
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 5, rows[1].Line)
}

func TestParseFloat(t *testing.T) {
	cases := map[string]float64{
		"":          0,
		"-":         0,
		" 42 ":      42,
		"1,234.5":   1234.5,
		"-78.6382":  -78.6382,
		"12abc":     0,
		"1,000,000": 1000000,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseFloat(in), in)
	}
}

func TestParseFloatNonFiniteIsZero(t *testing.T) {
	for _, in := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "Infinity", "-infinity", "1e400"} {
		assert.Equal(t, float64(0), parseFloat(in), in)
	}
}

func TestNonFiniteNumbersStageAsStorableRows(t *testing.T) {
	for _, value := range []string{"NaN", "Inf", "Infinity"} {
		raw := siteRow("NC-001")
		raw[colStructureHeight] = value
		raw[colLatitude] = value
		raw[colLongitude] = "-" + value

		rows := NormalizeRows([][]string{raw})
		require.Len(t, rows, 1)
		assert.Empty(t, ValidateRow(rows[0]), value)

		staged := ToImportRow(rows[0])
		assert.Equal(t, float64(0), staged.StructureHeight, value)
		assert.Equal(t, float64(0), staged.Latitude, value)
		assert.Equal(t, float64(0), staged.Longitude, value)

		_, err := models.SiteImportRows{staged}.Value()
		assert.NoError(t, err, value)
	}
}

func TestParseBoolValue(t *testing.T) {
	for _, v := range []string{"Yes", "YES", "y", "Y", "1", "true", "TRUE", "True", " yes "} {
		assert.True(t, parseBoolValue(v), v)
	}
	for _, v := range []string{"", "No", "0", "false", "maybe"} {
		assert.False(t, parseBoolValue(v), v)
	}
}

func TestValidateHeader(t *testing.T) {
	assert.NoError(t, ValidateHeader(SiteImportHeaders))

	padded := append([]string{}, SiteImportHeaders...)
	padded[0] = "\ufeff Site ID "
	padded[5] = "Provider Resident\t"
	assert.NoError(t, ValidateHeader(padded))

	extra := append(append([]string{}, SiteImportHeaders...), "Notes")
	var mismatch *HeaderMismatchError
	require.ErrorAs(t, ValidateHeader(extra), &mismatch)
	assert.Equal(t, extra, mismatch.Received)
	assert.Equal(t, SiteImportHeaders, mismatch.Expected)

	renamed := append([]string{}, SiteImportHeaders...)
	renamed[10] = "Zip Code"
	assert.ErrorAs(t, ValidateHeader(renamed), &mismatch)
}

func TestValidateRowCollectsEveryViolation(t *testing.T) {
	raw := make([]string, len(SiteImportHeaders))
	raw[colArea] = "East"
	raw[colLatitude] = "-91"
	raw[colLongitude] = "180.5"
	raw[colStructureHeight] = "-1"

	rows := NormalizeRows([][]string{raw})
	require.Len(t, rows, 1)

	assert.Equal(t, []string{
		"Site ID is required",
		"Site Name is required",
		"Provider is required",
		"Address is required",
		"City is required",
		"State is required",
		"ZIP is required",
		"Structure Type is required",
		"Latitude must be between -90 and 90",
		"Longitude must be between -180 and 180",
		"Structure Height must be 0 or greater",
	}, ValidateRow(rows[0]))
}

func TestValidateRowAcceptsBoundaries(t *testing.T) {
	raw := siteRow("NC-001")
	raw[colLatitude] = "-90"
	raw[colLongitude] = "180"
	raw[colStructureHeight] = "0"

	rows := NormalizeRows([][]string{raw})
	assert.Empty(t, ValidateRow(rows[0]))

	staged := ToImportRow(rows[0])
	assert.Equal(t, "NC-001", staged.SiteID)
	assert.Equal(t, float64(-90), staged.Latitude)
	assert.Equal(t, "Yes", staged.ProviderResident)
}

func TestValidateRowLimitsTextLength(t *testing.T) {
	raw := siteRow(strings.Repeat("S", 100))
	raw[colState] = strings.Repeat("é", 50)
	rows := NormalizeRows([][]string{raw})
	assert.Empty(t, ValidateRow(rows[0]))

	raw = siteRow(strings.Repeat("S", 101))
	raw[colState] = strings.Repeat("é", 51)
	raw[colGECode] = strings.Repeat("G", 51)
	rows = NormalizeRows([][]string{raw})
	assert.Equal(t, []string{
		"Site ID must be at most 100 characters",
		"State must be at most 50 characters",
		"GE Code must be at most 50 characters",
	}, ValidateRow(rows[0]))
}

func TestTextColumnLimitsMatchSitesTable(t *testing.T) {
	schema, err := os.ReadFile(filepath.Join("..", "database", "migrations", "001_create_projects_and_sites.sql"))
	require.NoError(t, err)

	sitesTable := string(schema[strings.Index(string(schema), "CREATE TABLE IF NOT EXISTS sites"):])
	sizes := map[string]int{}
	for _, m := range regexp.MustCompile(`(?m)^\s*(\w+) VARCHAR\((\d+)\)`).FindAllStringSubmatch(sitesTable, -1) {
		size, err := strconv.Atoi(m[2])
		require.NoError(t, err)
		sizes[m[1]] = size
	}

	for _, limit := range textColumnLimits {
		size, ok := sizes[limit.column]
		require.True(t, ok, limit.column)
		assert.Equal(t, size, limit.max, limit.column)
	}
	assert.LessOrEqual(t, len(NormalizeZip("27513512399999")), sizes["zip_full"])
	assert.LessOrEqual(t, len(zip5(NormalizeZip("27513512399999"))), sizes["zip"])
}

func TestNormalizeZip(t *testing.T) {
	cases := map[string]string{
		"275135123":     "27513-5123",
		"27513":         "27513",
		"275":           "275",
		"27513-5123":    "27513-5123",
		" 02134 ":       "02134",
		"2751351239999": "27513-5123",
		"ZIP":           "",
	}
	for in, want := range cases {
		got := NormalizeZip(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, NormalizeZip(got), "idempotent for %q", in)
	}
	assert.Equal(t, "27513", zip5("27513-5123"))
	assert.Equal(t, "275", zip5("275"))
}

func TestIdentityTransformer(t *testing.T) {
	lat, lon := IdentityTransformer{}.Transform(35.7796, -78.6382)
	assert.Equal(t, 35.7796, lat)
	assert.Equal(t, -78.6382, lon)
}

func TestBoundedBuffer(t *testing.T) {
	buf := NewBoundedBuffer[int](3)
	for i := 1; i <= 5; i++ {
		buf.Add(i)
	}
	assert.Equal(t, []int{1, 2, 3}, buf.Items())
	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, 2, buf.Dropped())
	assert.Equal(t, 5, buf.Total())

	empty := NewBoundedBuffer[string](0)
	empty.Add("x")
	assert.Empty(t, empty.Items())
	assert.Equal(t, 1, empty.Dropped())
}

func TestFirstN(t *testing.T) {
	assert.Equal(t, []int{1, 2}, firstN([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1}, firstN([]int{1}, 5))
	assert.Equal(t, []int{}, firstN[int](nil, 5))
	assert.Empty(t, firstN([]int{1}, -1))
}
