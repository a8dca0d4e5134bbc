//go:build ignore

// This program generates sample class workbooks for trying sheetmerge by hand:
//
//	go run testdata/generate_fixtures.go
//	sheetmerge merge testdata/classes --task ole
//	sheetmerge consolidate testdata/classes/merge_OLE.xlsx --class-name 1 --class-number 2 --grouping 3 --value 4
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

var students = []string{"Alice Tan", "Ben Lim", "Chloe Ng", "Daniel Goh", "Esther Koh", "Farid Ali"}

var awards = []string{"Maths Olympiad", "Art", "Choir", "Robotics"}

func main() {
	dir := filepath.Join("testdata", "classes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fail(err)
	}

	for i, class := range []string{"7A", "7B", "7C"} {
		path := filepath.Join(dir, class+".xlsx")
		if err := generateClass(path, class, i); err != nil {
			fail(fmt.Errorf("%s: %w", path, err))
		}
	}

	fmt.Println("Test fixtures generated successfully.")
}

// generateClass writes one workbook with a setting sheet and two class sheets.
// Data starts at CV26, the layout the "ole" preset expects.
func generateClass(path, class string, seed int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "setting"); err != nil {
		return err
	}
	f.SetCellValue("setting", "A1", "template settings, never merged")

	for s, group := range []string{"T1", "T2"} {
		sheet := class + "-" + group
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		f.SetCellValue(sheet, "H3", "Class "+class)
		f.SetCellValue(sheet, "H4", group)
		f.SetCellValue(sheet, "CV4", "✔")

		rows := 3 + (seed+s)%3
		for r := 0; r < rows; r++ {
			row := 26 + r
			student := students[(seed*2+s+r)%len(students)]
			set := func(col string, v interface{}) {
				f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
			}
			set("CV", class)
			set("CW", r+1)
			set("CX", awards[(seed+r)%len(awards)])
			set("CY", student)
			set("DD", 0)
			set("DK", "note")
		}
	}

	return f.SaveAs(path)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error generating fixtures: %v\n", err)
	os.Exit(1)
}
