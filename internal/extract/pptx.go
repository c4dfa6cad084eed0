package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/documind/internal/models"
)

// slideName matches ppt/slides/slideN.xml and captures N.
var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// atTag matches <a:t>text</a:t> with any attributes.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX returns one page per slide, ordered by slide number.
func extractPPTX(content []byte) ([]models.Page, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return nil, err
	}
	pages := make([]models.Page, 0)
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		var parts []string
		for _, p := range atTag.FindAllStringSubmatch(string(data), -1) {
			if s := strings.TrimSpace(p[1]); s != "" {
				parts = append(parts, s)
			}
		}
		pages = append(pages, models.Page{Number: n, Text: unescapeXML(strings.Join(parts, " "))})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}
