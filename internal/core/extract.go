package core

// extract.go reads an uploaded workbook into validated enrollment rows.
//
// Only the first sheet is read. Row 1 is the header row; the five required
// columns must match exactly (case-sensitive). Fully blank rows are skipped
// silently; rows with a mix of filled and missing values fail the whole
// extraction so the caller never sees partial data.

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RequiredColumns are the headers an enrollment spreadsheet must carry.
var RequiredColumns = []string{"First Name", "Last Name", "Classroom", "Dob", "Schedule"}

// ExtractRows parses workbook bytes into validated rows, in original sheet
// order. All failure modes return a *ParseError; the function performs no
// I/O beyond reading the input bytes.
func ExtractRows(data []byte) ([]EnrollmentRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Message: "The uploaded file is not a readable spreadsheet."}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Message: "The uploaded file does not contain any sheets."}
	}

	// Raw cell values so date cells surface as spreadsheet serial numbers
	// instead of locale-formatted display strings.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Message: "The uploaded file is not a readable spreadsheet."}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Message: "Unable to read the header row from the uploaded file."}
	}

	headerIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, seen := headerIdx[h]; !seen {
			headerIdx[h] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := headerIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Message: fmt.Sprintf("Missing required columns: %s. Please update the spreadsheet and try again.",
				strings.Join(missing, ", ")),
		}
	}

	cell := func(row []string, col string) string {
		i := headerIdx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		extracted   []EnrollmentRow
		invalidRows []int
	)

	for i, row := range rows[1:] {
		line := i + 2 // header row is line 1

		firstName := cell(row, "First Name")
		lastName := cell(row, "Last Name")
		classroom := cell(row, "Classroom")
		schedule := cell(row, "Schedule")
		dob, dobOK := NormalizeDate(cell(row, "Dob"))

		if firstName == "" && lastName == "" && classroom == "" && schedule == "" && !dobOK {
			continue // blank row
		}

		if firstName == "" || lastName == "" || classroom == "" || schedule == "" || !dobOK {
			invalidRows = append(invalidRows, line)
			continue
		}

		extracted = append(extracted, EnrollmentRow{
			FirstName: firstName,
			LastName:  lastName,
			Classroom: classroom,
			Dob:       dob,
			Schedule:  schedule,
		})
	}

	if len(invalidRows) > 0 {
		return nil, &ParseError{
			Message: fmt.Sprintf("Rows %s are missing required values. Please fix them and re-upload the file.",
				joinLines(invalidRows)),
		}
	}
	if len(extracted) == 0 {
		return nil, &ParseError{Message: "No enrollment data found in the uploaded spreadsheet."}
	}

	return extracted, nil
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
