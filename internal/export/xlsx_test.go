package export

import (
	"bytes"
	"testing"

	"github.com/tealeg/xlsx/v3"

	"github.com/imdcare/ward/internal/report"
)

func TestBuildWorkbook(t *testing.T) {
	doc := NewDocument("IMD-Care Report", testFiltered(4, report.TabAll), generatedAt)
	book, err := buildWorkbook(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := []string{sheetSummary, "Active Admissions", "Medical Consultations", "Clinic Appointments"}
	if len(book.Sheets) != len(names) {
		t.Fatalf("expected %d sheets, got %d", len(names), len(book.Sheets))
	}
	for i, n := range names {
		if book.Sheets[i].Name != n {
			t.Errorf("sheet %d: expected %q, got %q", i, n, book.Sheets[i].Name)
		}
	}
	if rows := book.Sheet["Active Admissions"].MaxRow; rows != 5 {
		t.Errorf("expected header plus 4 rows, got %d", rows)
	}
}

func TestRenderXLSX_Readable(t *testing.T) {
	var buf bytes.Buffer
	doc := NewDocument("IMD-Care Report", testFiltered(1, report.TabConsultations), generatedAt)
	if err := RenderXLSX(&buf, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	book, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := book.Sheet["Medical Consultations"]; !ok {
		t.Error("expected consultations sheet")
	}
	if _, ok := book.Sheet["Active Admissions"]; ok {
		t.Error("expected admissions sheet omitted for the consultations tab")
	}
}
