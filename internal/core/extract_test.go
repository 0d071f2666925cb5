package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows into the first sheet of a fresh workbook and
// returns the serialized bytes.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

var enrollmentHeader = []any{"First Name", "Last Name", "Classroom", "Dob", "Schedule"}

func TestExtractRows(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		enrollmentHeader,
		{"Avery", "Johnson", "Toddlers", "2019-03-14", "Mon-Fri"},
		{"  Riley ", " Chen ", " Preschool ", float64(44621), " Mon/Wed "},
	})

	rows, err := ExtractRows(data)
	if err != nil {
		t.Fatalf("ExtractRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	want := []EnrollmentRow{
		{FirstName: "Avery", LastName: "Johnson", Classroom: "Toddlers", Dob: "2019-03-14", Schedule: "Mon-Fri"},
		{FirstName: "Riley", LastName: "Chen", Classroom: "Preschool", Dob: "2022-03-01", Schedule: "Mon/Wed"},
	}
	for i, w := range want {
		if rows[i] != w {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], w)
		}
	}
}

func TestExtractRows_MissingColumn(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"First Name", "Last Name", "Classroom", "Dob"}, // no Schedule
		{"Avery", "Johnson", "Toddlers", "2019-03-14"},
	})

	_, err := ExtractRows(data)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %T (%v), want *ParseError", err, err)
	}
	if !strings.Contains(parseErr.Message, "Schedule") {
		t.Errorf("error should name the missing column, got %q", parseErr.Message)
	}
	if strings.Contains(parseErr.Message, "Dob") {
		t.Errorf("error should only name missing columns, got %q", parseErr.Message)
	}
}

func TestExtractRows_MissingColumnsListed(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"First Name", "Classroom"},
		{"Avery", "Toddlers"},
	})

	_, err := ExtractRows(data)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %T, want *ParseError", err)
	}
	for _, col := range []string{"Last Name", "Dob", "Schedule"} {
		if !strings.Contains(parseErr.Message, col) {
			t.Errorf("error should name %q, got %q", col, parseErr.Message)
		}
	}
}

func TestExtractRows_PartialRowRejected(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		enrollmentHeader,
		{"Avery", "Johnson", "Toddlers", "2019-03-14", "Mon-Fri"},
		{"Riley", "Chen", nil, "2020-01-02", "Mon"}, // missing classroom, line 3
		{"Jordan", "Lee", "Toddlers", nil, "Tue"},   // missing dob, line 4
	})

	_, err := ExtractRows(data)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %T (%v), want *ParseError", err, err)
	}
	if !strings.Contains(parseErr.Message, "3") || !strings.Contains(parseErr.Message, "4") {
		t.Errorf("error should cite lines 3 and 4, got %q", parseErr.Message)
	}
}

func TestExtractRows_BlankRowsSkipped(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		enrollmentHeader,
		{"Avery", "Johnson", "Toddlers", "2019-03-14", "Mon-Fri"},
		{nil, nil, nil, nil, nil},
		{"", "", "", "", ""},
		{"Riley", "Chen", "Preschool", "2020-01-02", "Mon"},
	})

	rows, err := ExtractRows(data)
	if err != nil {
		t.Fatalf("ExtractRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank rows skipped)", len(rows))
	}
	if rows[1].FirstName != "Riley" {
		t.Errorf("row order not preserved across blank rows: %+v", rows[1])
	}
}

func TestExtractRows_NoDataRows(t *testing.T) {
	onlyHeader := buildWorkbook(t, [][]any{enrollmentHeader})
	if _, err := ExtractRows(onlyHeader); err == nil {
		t.Error("header-only workbook should fail")
	}

	onlyBlanks := buildWorkbook(t, [][]any{
		enrollmentHeader,
		{"", "", "", "", ""},
	})
	var parseErr *ParseError
	if _, err := ExtractRows(onlyBlanks); !errors.As(err, &parseErr) {
		t.Errorf("blank-only workbook should fail with *ParseError, got %v", err)
	}
}

func TestExtractRows_InvalidBeatsNoData(t *testing.T) {
	// Every data row is invalid: the invalid-rows error must win over the
	// no-data error so the user learns what to fix.
	data := buildWorkbook(t, [][]any{
		enrollmentHeader,
		{"Avery", "", "Toddlers", "2019-03-14", "Mon-Fri"},
	})

	_, err := ExtractRows(data)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %T, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Message, "2") {
		t.Errorf("error should cite line 2, got %q", parseErr.Message)
	}
}

func TestExtractRows_NotASpreadsheet(t *testing.T) {
	var parseErr *ParseError
	if _, err := ExtractRows([]byte("definitely,not,xlsx\n1,2,3\n")); !errors.As(err, &parseErr) {
		t.Errorf("CSV bytes should fail with *ParseError, got %v", err)
	}
	if _, err := ExtractRows(nil); !errors.As(err, &parseErr) {
		t.Errorf("nil bytes should fail with *ParseError, got %v", err)
	}
}

func TestExtractRows_HeaderWhitespaceTrimmed(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{" First Name ", "Last Name", "Classroom", " Dob", "Schedule "},
		{"Avery", "Johnson", "Toddlers", "2019-03-14", "Mon-Fri"},
	})

	rows, err := ExtractRows(data)
	if err != nil {
		t.Fatalf("ExtractRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}
