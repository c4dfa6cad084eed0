package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// BERT special token IDs and the id range hashed word pieces are folded into.
const (
	clsToken   = 101
	sepToken   = 102
	firstWord  = 1000
	vocabSize  = 30522
	defaultMax = 256
)

// Tokenizer produces the input_ids, attention_mask and token_type_ids tensors of a
// BERT-style encoder, padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// HashTokenizer approximates BERT basic tokenization: lowercased words and single
// punctuation marks, mapped to ids by hashing instead of a vocabulary lookup.
type HashTokenizer struct{}

func (HashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = defaultMax
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0], attentionMask[0] = clsToken, 1
	pos := 1
	for _, tok := range basicTokens(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(firstWord + HashString(tok)%(vocabSize-firstWord))
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos], attentionMask[pos] = sepToken, 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// basicTokens lowercases text and splits it into runs of letters and digits, with
// every other non-space rune as a token of its own.
func basicTokens(text string) []string {
	var tokens []string
	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, text[start:end])
			start = -1
		}
	}
	text = strings.ToLower(text)
	for i, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if start < 0 {
				start = i
			}
		case unicode.IsSpace(r):
			flush(i)
		default:
			flush(i)
			tokens = append(tokens, string(r))
		}
	}
	flush(len(text))
	return tokens
}

// HashString returns a deterministic non-negative 31-bit FNV-1a hash of s.
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() & 0x7fffffff)
}
