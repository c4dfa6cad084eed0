package agents

import (
	"strconv"
	"strings"

	"github.com/hyperjump/documind/internal/models"
)

// BuildContext renders entries as "[Source: s, Page: n]\ntext" blocks separated by
// blank lines, in the given order. The page is omitted when absent.
func BuildContext(entries []models.ContextEntry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		b.WriteString("[Source: ")
		b.WriteString(e.Source)
		if e.Page != nil {
			b.WriteString(", Page: ")
			b.WriteString(strconv.Itoa(*e.Page))
		}
		b.WriteString("]\n")
		b.WriteString(e.Text)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
