package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"site-inventory/internal/models"
	"strings"

	"github.com/xuri/excelize/v2"
)

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// ReadRows returns the raw cell matrix of an uploaded .xlsx (first sheet) or
// .csv file. The first returned row is the header.
func (s *ExcelService) ReadRows(filename string, data []byte) ([][]string, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = s.readWorkbook(data)
	case ".csv":
		rows, err = s.readCSV(data)
	default:
		return nil, ErrUnsupportedFileType
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func (s *ExcelService) readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return rows, nil
}

func (s *ExcelService) readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// GenerateSiteTemplate builds the import workbook with the header row, one
// sample site and filling instructions.
func (s *ExcelService) GenerateSiteTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sites"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}

	s.writeHeaderRow(f, sheetName, SiteImportHeaders, "#E0E0E0")

	sample := []interface{}{
		"NC-CLT-0001", "Charlotte Uptown Rooftop", "Southeast", "Carolinas", "Crown Castle", "No",
		"101 S Tryon St", "Charlotte", "Mecklenburg", "NC", "28280-0001", "CMA-031", "Charlotte-Gastonia",
		"Rooftop", "Macro", "GE-1182", 145.5, 35.2271, -80.8431, "ALT-0001",
	}
	for colIdx, value := range sample {
		f.SetCellValue(sheetName, fmt.Sprintf("%s2", getColumnName(colIdx)), value)
	}

	for i := range SiteImportHeaders {
		colName := getColumnName(i)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	instructionsStartRow := 5
	instructions := []string{
		"Instructions:",
		"1. Do not rename, reorder, add or remove header columns.",
		"2. Required: Site ID, Site Name, Provider, Address, City, State, ZIP, Structure Type.",
		"3. Latitude must be between -90 and 90, Longitude between -180 and 180 (WGS84 decimal degrees).",
		"4. Structure Height must be 0 or greater.",
		"5. Provider Resident accepts Yes/No, Y/N, 1/0 or true/false.",
		"6. Sites whose Site ID already exists in the project are skipped on commit.",
	}
	for i, instruction := range instructions {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", instructionsStartRow+i), instruction)
	}

	instructionStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 10},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F0F8FF"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", instructionsStartRow), fmt.Sprintf("A%d", instructionsStartRow), instructionStyle)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateErrorReport lists the staged row errors of a batch, one message per line.
func (s *ExcelService) GenerateErrorReport(batch *models.ImportBatch) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Import Errors"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}

	headers := []string{"Row Number", "Error Message"}
	s.writeHeaderRow(f, sheetName, headers, "#FFE6E6")

	row := 2
	for _, rowErr := range batch.ErrorDetails {
		for _, message := range rowErr.Messages {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rowErr.Row)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), message)
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 60)

	summaryStartRow := row + 2
	summary := [][]interface{}{
		{"Import Summary", ""},
		{"File:", batch.Filename},
		{"Total Rows:", batch.TotalRows},
		{"Error Rows:", batch.ErrorRows},
		{"Errors Not Listed:", batch.DroppedErrors},
	}
	for i, line := range summary {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+i), line[0])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+i), line[1])
	}

	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryStartRow), fmt.Sprintf("A%d", summaryStartRow), summaryStyle)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write error report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSampleImport saves an import file with the given data rows under the
// standard header.
func (s *ExcelService) WriteSampleImport(rows [][]interface{}, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	s.writeHeaderRow(f, sheetName, SiteImportHeaders, "#E0E0E0")

	for rowIdx, values := range rows {
		for colIdx, value := range values {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	return f.SaveAs(outputPath)
}

func (s *ExcelService) writeHeaderRow(f *excelize.File, sheetName string, headers []string, color string) {
	for i, header := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s1", getColumnName(i)), header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)
}

func getColumnName(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+(index%26))) + result
		index = index/26 - 1
	}
	return result
}
