package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/documind/internal/models"
)

const odfContentPath = "content.xml"

var (
	// odfTextP matches a whole <text:p> or <text:h> element, nested spans included.
	odfTextP = regexp.MustCompile(`(?s)<text:(p|h)\b[^>]*>(.*?)</text:(?:p|h)>`)
	odfTag = regexp.MustCompile(`<[^>]+>`)
	odpSlide = regexp.MustCompile(`(?s)<draw:page\b[^>]*>(.*?)</draw:page>`)
	odsTable = regexp.MustCompile(`(?s)<table:table\b[^>]*>(.*?)</table:table>`)
)

// extractODP returns one page per presentation slide (draw:page).
func extractODP(content []byte) ([]models.Page, error) {
	return extractODFSections(content, "ODP", odpSlide)
}

// extractODS returns one page per spreadsheet table.
func extractODS(content []byte) ([]models.Page, error) {
	return extractODFSections(content, "ODS", odsTable)
}

func extractODFSections(content []byte, format string, section *regexp.Regexp) ([]models.Page, error) {
	zr, err := openZip(content, format)
	if err != nil {
		return nil, err
	}
	data, err := readZipFile(zr, odfContentPath)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", format, err)
	}
	if data == nil {
		return nil, fmt.Errorf("extract %s: %s not found", format, odfContentPath)
	}
	pages := make([]models.Page, 0)
	for i, m := range section.FindAllStringSubmatch(string(data), -1) {
		pages = append(pages, models.Page{Number: i + 1, Text: odfParagraphs(m[1])})
	}
	return pages, nil
}

// odfParagraphs returns the text of every paragraph/heading in xml, one per line.
func odfParagraphs(xml string) string {
	var lines []string
	for _, m := range odfTextP.FindAllStringSubmatch(xml, -1) {
		if s := strings.TrimSpace(unescapeXML(odfTag.ReplaceAllString(m[2], ""))); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}
