package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"site-inventory/internal/service"
)

func main() {
	outDir := flag.String("out", filepath.Join("storage", "samples"), "directory for the generated workbooks")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Printf("Error creating %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	excel := service.NewExcelService()

	// Valid sites, including a comma-formatted height and a 9-digit ZIP
	validRows := [][]interface{}{
		{"NC-CLT-0001", "Charlotte Uptown Rooftop", "Southeast", "Carolinas", "Crown Castle", "No",
			"101 S Tryon St", "Charlotte", "Mecklenburg", "NC", "28280-0001", "CMA-031", "Charlotte-Gastonia",
			"Rooftop", "Macro", "GE-1182", 145.5, 35.2271, -80.8431, "ALT-0001"},
		{"NC-RAL-0002", "Raleigh Beltline Monopole", "Southeast", "Carolinas", "American Tower", "Yes",
			"4400 Glenwood Ave", "Raleigh", "Wake", "NC", "276121234", "CMA-074", "Raleigh-Durham",
			"Monopole", "Macro", "GE-2291", "1,250", 35.8438, -78.6842, ""},
		{"SC-CHS-0003", "Charleston Harbor Small Cell", "Southeast", "Lowcountry", "SBA", "Y",
			"1 Concord St", "Charleston", "Charleston", "SC", "29401", "CMA-101", "Charleston",
			"Pole", "Small Cell", "GE-0410", 32, 32.7765, -79.9253, "ALT-0003"},
	}

	// Rows that fail validation: missing required columns and out-of-range values
	invalidRows := [][]interface{}{
		{"", "No Site ID", "Southeast", "Carolinas", "Crown Castle", "No",
			"9 Main St", "Durham", "Durham", "NC", "27701", "CMA-074", "Raleigh-Durham",
			"Monopole", "Macro", "GE-3001", 90, 35.99, -78.89, ""},
		{"NC-BAD-0005", "Bad Coordinates", "Southeast", "Carolinas", "Crown Castle", "No",
			"10 Main St", "Durham", "Durham", "NC", "27701", "CMA-074", "Raleigh-Durham",
			"Monopole", "Macro", "GE-3002", -5, 95.1, -190.2, ""},
		{"NC-BAD-0006", "", "Southeast", "Carolinas", "", "No",
			"", "", "Durham", "", "", "CMA-074", "Raleigh-Durham",
			"", "Macro", "GE-3003", 60, 35.99, -78.89, ""},
	}

	// The same Site ID twice; the second copy is skipped on commit
	duplicateRows := [][]interface{}{
		validRows[0],
		validRows[0],
		validRows[2],
	}

	files := []struct {
		name string
		rows [][]interface{}
	}{
		{"sites_valid.xlsx", validRows},
		{"sites_mixed.xlsx", append(append([][]interface{}{}, validRows...), invalidRows...)},
		{"sites_duplicates.xlsx", duplicateRows},
	}

	for _, file := range files {
		path := filepath.Join(*outDir, file.name)
		if err := excel.WriteSampleImport(file.rows, path); err != nil {
			fmt.Printf("Error saving %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Created %s (%d data rows)\n", path, len(file.rows))
	}

	template, err := excel.GenerateSiteTemplate()
	if err != nil {
		fmt.Printf("Error generating template: %v\n", err)
		os.Exit(1)
	}
	templatePath := filepath.Join(*outDir, "site_import_template.xlsx")
	if err := os.WriteFile(templatePath, template, 0o644); err != nil {
		fmt.Printf("Error saving %s: %v\n", templatePath, err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", templatePath)
}
