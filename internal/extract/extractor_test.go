package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// zipOf builds an in-memory zip archive from name/content pairs.
func zipOf(files ...string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		fw, _ := w.Create(files[i])
		_, _ = fw.Write([]byte(files[i+1]))
	}
	_ = w.Close()
	return buf.Bytes()
}

func docxBody(paragraphs ...string) string {
	body := ""
	for _, p := range paragraphs {
		body += `<w:p w:rsidR="00AB"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`
	}
	return `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`
}

func slideXML(texts ...string) string {
	s := `<p:sld><p:cSld><p:spTree><p:sp><p:txBody>`
	for _, t := range texts {
		s += `<a:p><a:r><a:t>` + t + `</a:t></a:r></a:p>`
	}
	return s + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestParseBytes_plain(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"txt", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8", []byte("hello\x80world"), ".rst", "hello�world"},
		{"unknown extension", []byte("raw content"), ".xyz", "raw content"},
		{"uppercase extension", []byte("  padded  "), ".TXT", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ParseBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ParseBytes: %v", err)
			}
			if got.Text != tt.want {
				t.Errorf("got %q, want %q", got.Text, tt.want)
			}
			if got.NumPages() != 0 {
				t.Errorf("plain text should have no pages, got %d", got.NumPages())
			}
		})
	}
}

func TestParseBytes_excelSheetsArePages(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	if _, err := f.NewSheet("Totals"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Totals", "A1", "Sum")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ParseBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got.NumPages() != 2 {
		t.Fatalf("got %d pages, want 2", got.NumPages())
	}
	if got.Pages[0].Number != 1 || got.Pages[0].Text != "Title\nValue 1\tValue 2" {
		t.Errorf("page 1 = %+v", got.Pages[0])
	}
	if got.Pages[1].Number != 2 || got.Pages[1].Text != "Sum" {
		t.Errorf("page 2 = %+v", got.Pages[1])
	}
	if got.Text != "Title\nValue 1\tValue 2\nSum" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestParse_files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	deck := filepath.Join(dir, "deck.pptx")
	if err := os.WriteFile(deck, zipOf("ppt/slides/slide1.xml", slideXML("Searchable from file")), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	doc, err := e.Parse(txt)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.FileName != "notes.txt" || doc.FileType != ".txt" || doc.Text != "File content" {
		t.Errorf("got %+v", doc)
	}

	doc, err = e.Parse(deck)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.FileName != "deck.pptx" || doc.NumPages() != 1 || doc.Text != "Searchable from file" {
		t.Errorf("got %+v", doc)
	}
}

func TestParse_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Parse("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestParseBytes_docx(t *testing.T) {
	e := NewExtractor()
	got, err := e.ParseBytes(zipOf("word/document.xml", docxBody("First paragraph.", "Tom &amp; Jerry.")), ".docx")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got.Text != "First paragraph.\nTom & Jerry." {
		t.Errorf("got %q", got.Text)
	}
}

func TestParseBytes_docxMainPartFromContentTypes(t *testing.T) {
	const mainType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	tests := []struct {
		name     string
		override string
		part     string
	}{
		{"part name first", `<Override PartName="/word/document2.xml" ContentType="` + mainType + `"/>`, "word/document2.xml"},
		{"content type first", `<Override ContentType="` + mainType + `" PartName="/word/document3.xml"/>`, "word/document3.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := zipOf(
				"[Content_Types].xml", `<?xml version="1.0"?><Types>`+tt.override+`</Types>`,
				tt.part, docxBody("Custom part"),
			)
			got, err := NewExtractor().ParseBytes(content, ".docx")
			if err != nil {
				t.Fatalf("ParseBytes: %v", err)
			}
			if got.Text != "Custom part" {
				t.Errorf("got %q", got.Text)
			}
		})
	}
}

func TestParseBytes_pptxSlidesArePagesInOrder(t *testing.T) {
	content := zipOf(
		"ppt/slides/slide10.xml", slideXML("Tenth"),
		"ppt/slides/slide2.xml", slideXML("Second", "slide"),
		"ppt/slides/slide1.xml", slideXML("First slide"),
		"ppt/slides/_rels/slide1.xml.rels", "<Relationships/>",
	)
	got, err := NewExtractor().ParseBytes(content, ".pptx")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got.NumPages() != 3 {
		t.Fatalf("got %d pages, want 3", got.NumPages())
	}
	wantNums := []int{1, 2, 10}
	wantText := []string{"First slide", "Second slide", "Tenth"}
	for i := range wantNums {
		if got.Pages[i].Number != wantNums[i] || got.Pages[i].Text != wantText[i] {
			t.Errorf("page %d = %+v", i, got.Pages[i])
		}
	}
}

func TestParseBytes_pptxEmpty(t *testing.T) {
	got, err := NewExtractor().ParseBytes(zipOf("ppt/slides/other.xml", "", "docProps/core.xml", ""), ".pptx")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got.Text != "" || got.NumPages() != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestParseBytes_odp(t *testing.T) {
	contentXML := `<office:document><office:body><office:presentation>` +
		`<draw:page draw:name="p1"><text:h>Slide title</text:h><text:p>Body <text:span>text</text:span></text:p></draw:page>` +
		`<draw:page draw:name="p2"><text:p>Second slide</text:p></draw:page>` +
		`</office:presentation></office:body></office:document>`
	got, err := NewExtractor().ParseBytes(zipOf("content.xml", contentXML), ".odp")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got.NumPages() != 2 {
		t.Fatalf("got %d pages, want 2", got.NumPages())
	}
	if got.Pages[0].Text != "Slide title\nBody text" {
		t.Errorf("page 1 = %q", got.Pages[0].Text)
	}
	if got.Pages[1].Number != 2 || got.Pages[1].Text != "Second slide" {
		t.Errorf("page 2 = %+v", got.Pages[1])
	}
}

func TestParseBytes_ods(t *testing.T) {
	contentXML := `<office:document><office:body><office:spreadsheet>` +
		`<table:table table:name="A"><table:table-row><table:table-cell><text:p>Cell A</text:p></table:table-cell>` +
		`<table:table-cell><text:p><text:span>Cell B</text:span></text:p></table:table-cell></table:table-row></table:table>` +
		`<table:table table:name="B"><table:table-row><table:table-cell><text:p>Other sheet</text:p></table:table-cell></table:table-row></table:table>` +
		`</office:spreadsheet></office:body></office:document>`
	got, err := NewExtractor().ParseBytes(zipOf("content.xml", contentXML), ".ods")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got.NumPages() != 2 {
		t.Fatalf("got %d pages, want 2", got.NumPages())
	}
	if got.Pages[0].Text != "Cell A\nCell B" || got.Pages[1].Text != "Other sheet" {
		t.Errorf("pages = %+v", got.Pages)
	}
}

func TestParseBytes_invalidArchives(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".pptx", ".docx", ".odp", ".ods"} {
		if _, err := e.ParseBytes([]byte("not a zip"), ext); err == nil {
			t.Errorf("%s: expected error for non-zip content", ext)
		}
	}
	for _, ext := range []string{".odp", ".ods", ".docx"} {
		if _, err := e.ParseBytes(zipOf("other.xml", ""), ext); err == nil {
			t.Errorf("%s: expected error when main part is missing", ext)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, ext := range []string{".pdf", ".PDF", ".docx", ".rtf", ".md"} {
		if !IsSupported(ext) {
			t.Errorf("IsSupported(%q) = false", ext)
		}
	}
	if IsSupported(".exe") {
		t.Error("IsSupported(.exe) = true")
	}
}
