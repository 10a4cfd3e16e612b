package minilm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Standard BERT IDs, used when the vocab does not list the special tokens.
const (
	fallbackUnkID = 100
	fallbackClsID = 101
	fallbackSepID = 102
)

// Tokenizer is a BERT-style WordPiece tokenizer backed by the vocab section
// of a HuggingFace tokenizer.json file.
type Tokenizer struct {
	vocab map[string]int
	cls   int64
	sep   int64
	unk   int64
}

// LoadTokenizer reads the vocab out of the tokenizer.json file at path.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}

	var parsed struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse tokenizer %s: %w", path, err)
	}
	if len(parsed.Model.Vocab) == 0 {
		return nil, fmt.Errorf("tokenizer %s has an empty vocab", path)
	}
	return NewTokenizer(parsed.Model.Vocab), nil
}

// NewTokenizer builds a Tokenizer over the given vocab. Special token IDs
// are taken from the vocab when present.
func NewTokenizer(vocab map[string]int) *Tokenizer {
	t := &Tokenizer{
		vocab: vocab,
		cls:   fallbackClsID,
		sep:   fallbackSepID,
		unk:   fallbackUnkID,
	}
	if id, ok := vocab["[CLS]"]; ok {
		t.cls = int64(id)
	}
	if id, ok := vocab["[SEP]"]; ok {
		t.sep = int64(id)
	}
	if id, ok := vocab["[UNK]"]; ok {
		t.unk = int64(id)
	}
	return t
}

// Encode tokenizes text and lays it out as model input: [CLS], the token
// IDs (truncated to fit), [SEP], zero padding up to maxLen. The returned
// attention mask is 1 over the occupied positions.
func (t *Tokenizer) Encode(text string, maxLen int) (ids, mask []int64) {
	tokens := t.tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	ids = make([]int64, maxLen)
	mask = make([]int64, maxLen)

	ids[0] = t.cls
	mask[0] = 1
	for i, id := range tokens {
		ids[i+1] = id
		mask[i+1] = 1
	}
	ids[len(tokens)+1] = t.sep
	mask[len(tokens)+1] = 1
	return ids, mask
}

// tokenize lowercases text, strips edge punctuation per word, and maps each
// word to vocab IDs: a whole-word hit when the vocab has one, WordPiece
// subwords otherwise.
func (t *Tokenizer) tokenize(text string) []int64 {
	var out []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			out = append(out, int64(id))
			continue
		}
		out = append(out, t.wordPiece(word)...)
	}
	return out
}

// wordPiece greedily matches the longest known prefix, tagging continuation
// pieces with "##". A position with no match at all becomes [UNK] and the
// scan advances one byte.
func (t *Tokenizer) wordPiece(word string) []int64 {
	var out []int64
	start := 0
	for start < len(word) {
		end := len(word)
		matched := false
		for end > start {
			piece := word[start:end]
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				out = append(out, int64(id))
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			out = append(out, t.unk)
			start++
		}
	}
	return out
}
