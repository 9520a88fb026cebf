package embedding

import "strings"

// Tokenizer produces token IDs for CLIP-style text encoders (input_ids, attention_mask).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

const (
	startOfTextToken = 49406
	endOfTextToken   = 49407
	vocabSize        = 49408
)

// CLIPTokenizer is a word-split tokenizer with hash-bucketed token IDs. It
// stands in for the byte-pair encoder when the exported vocabulary does not
// ship with the model; IDs land in the [0, 49408) range the text encoder
// expects.
type CLIPTokenizer struct{}

// Tokenize lowercases and splits text into words, brackets them with the
// start/end markers, and pads to maxTokens.
func (t *CLIPTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	words := SplitWords(strings.ToLower(text))
	if maxTokens <= 0 {
		maxTokens = 77
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)

	inputIDs[0] = startOfTextToken
	attentionMask[0] = 1

	pos := 1
	for _, word := range words {
		if pos >= maxTokens-1 {
			break
		}
		// vocabSize-2 keeps hashed IDs clear of the marker tokens.
		inputIDs[pos] = int64(HashString(word) % (vocabSize - 2))
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = endOfTextToken
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	var words []string
	word := ""
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if word != "" {
				words = append(words, word)
				word = ""
			}
		} else {
			word += string(r)
		}
	}
	if word != "" {
		words = append(words, word)
	}
	return words
}

// HashString returns a deterministic hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
