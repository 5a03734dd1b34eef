package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/imdcare/ward/internal/report"
)

var pageFooter = regexp.MustCompile(`Page (\d+) of (\d+)`)

func TestRenderPDF_SinglePage(t *testing.T) {
	var buf bytes.Buffer
	doc := NewDocument("IMD-Care Report", testFiltered(2, report.TabAll), generatedAt)
	if err := renderPDF(&buf, doc, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-") {
		t.Fatal("expected a PDF document")
	}
	for _, want := range []string{"IMD-Care Report", "Generated on: January 31, 2024", "Active Admissions", "Clinic Appointments", "Page 1 of 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestRenderPDF_PaginatesWithRepeatedHeader(t *testing.T) {
	var buf bytes.Buffer
	doc := NewDocument("IMD-Care Report", testFiltered(120, report.TabAdmissions), generatedAt)
	if err := renderPDF(&buf, doc, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	footers := pageFooter.FindAllStringSubmatch(out, -1)
	if len(footers) < 2 {
		t.Fatalf("expected several pages, got %d footers", len(footers))
	}
	total, _ := strconv.Atoi(footers[0][2])
	if total != len(footers) {
		t.Errorf("expected footer total %d to match page count %d", total, len(footers))
	}
	if n := strings.Count(out, "(Patient Name)"); n != total {
		t.Errorf("expected header on each of %d pages, got %d", total, n)
	}
}

func TestRenderPDF_SplitsRowTallerThanPage(t *testing.T) {
	words := make([]string, 600)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	data := testDataset(1)
	data.Patients[0].Admissions[0].Diagnosis = strings.Join(words, " ")

	r, err := report.ParseRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	filtered := report.Aggregate(data, report.Filter{Range: r, Specialty: report.AllSpecialties, Tab: report.TabAdmissions})

	var buf bytes.Buffer
	if err := renderPDF(&buf, NewDocument("IMD-Care Report", filtered, generatedAt), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	footers := pageFooter.FindAllStringSubmatch(out, -1)
	if len(footers) < 5 {
		t.Fatalf("expected the diagnosis to span several pages, got %d", len(footers))
	}
	for _, w := range []string{"w0000", "w0300", "w0599"} {
		if !strings.Contains(out, w) {
			t.Errorf("expected %q to be drawn", w)
		}
	}
	if n := strings.Count(out, "(Patient Name)"); n != len(footers) {
		t.Errorf("expected header on each of %d pages, got %d", len(footers), n)
	}
}

func TestCutLines(t *testing.T) {
	cells := [][]string{{"a"}, {"b1", "b2", "b3"}}
	head, rest := cutLines(cells, 2)
	if len(head[0]) != 1 || len(head[1]) != 2 {
		t.Errorf("unexpected head %v", head)
	}
	if len(rest[0]) != 0 || len(rest[1]) != 1 || rest[1][0] != "b3" {
		t.Errorf("unexpected rest %v", rest)
	}
}

func TestRenderPDF_Compressed(t *testing.T) {
	var buf bytes.Buffer
	doc := NewDocument("IMD-Care Report", testFiltered(1, report.TabAll), generatedAt)
	if err := RenderPDF(&buf, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) || !bytes.Contains(buf.Bytes(), []byte("%%EOF")) {
		t.Error("expected a complete PDF document")
	}
}

func TestLatin1(t *testing.T) {
	if got := latin1("Réka 李"); got != "Réka ?" {
		t.Errorf("unexpected %q", got)
	}
}
