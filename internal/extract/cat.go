package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractWithCat handles RTF and ODT, whose layouts lu4p/cat understands.
func extractWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}
