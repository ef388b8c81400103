// Package harvest turns Japanese web articles into tokenized sentences whose
// dictionary forms can be stored as words.
package harvest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface       string   // The text as it appears (e.g. "行っ")
	BaseForm      string   // The dictionary form (e.g. "行く")
	Reading       string   // katakana, e.g. "イッ"
	PartsOfSpeech []string // e.g. ["動詞", "自立", "*", "*"]
	PrimaryPOS    string
}

// Headword is the form a token is stored under: its base form when the
// dictionary knows one, otherwise the surface text.
func (t Token) Headword() string {
	if t.BaseForm != "" && t.BaseForm != "*" {
		return t.BaseForm
	}
	return t.Surface
}

// Sentence represents a sentence containing tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analyzer segments Japanese text with the IPA dictionary.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("create tokenizer: %w", err)
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
// Whitespace-only tokens are dropped.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: POS, sub-POS 1-3, conjugation type, conjugation
		// form, base form, reading, pronunciation.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}
	return result
}

// AnalyzeDocument splits the text into sentences and tokenizes each sentence.
func (a *Analyzer) AnalyzeDocument(text string) []Sentence {
	var result []Sentence
	for _, s := range SplitSentences(text) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		result = append(result, Sentence{
			Text:   s,
			Tokens: a.Analyze(s),
		})
	}
	return result
}

// SplitSentences cuts text after 。, ！, ？ and newlines, keeping the
// delimiter with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content, so extracted text does not repeat the furigana after its
// kanji ("漢字かんじ"). It works on raw bytes and is safe for Shift_JIS input.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, nil)
	return reRP.ReplaceAll(cleaned, nil)
}
