package indexer

import (
	"strings"
	"testing"
)

func BenchmarkChunkerSplit(b *testing.B) {
	c, _ := NewChunker(800, 150)
	text := strings.Repeat("The committee reviewed the budget and approved the plan. Costs were flat in the third quarter! Was the deadline met? ", 200)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Split(text)
	}
}
