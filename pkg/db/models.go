package db

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Word is the canonical word entry. (Text, Language) is unique and ID is
// assigned by the database on first insert.
type Word struct {
	ID       int64   `json:"id"`
	Language string  `json:"language"`
	Sex      *string `json:"sex,omitempty"`
	Text     string  `json:"text"`
}

// NewWord carries the attributes of a word that has not been resolved to a
// stable id yet.
type NewWord struct {
	Text     string  `json:"text" yaml:"text"`
	Language string  `json:"language" yaml:"language"`
	Sex      *string `json:"sex,omitempty" yaml:"sex,omitempty"`
}

// Validate checks that text and language are present.
func (w NewWord) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Text, validation.By(notBlank)),
		validation.Field(&w.Language, validation.By(notBlank)),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

// normalized returns a copy with surrounding whitespace removed.
func (w NewWord) normalized() NewWord {
	w.Text = strings.TrimSpace(w.Text)
	w.Language = strings.TrimSpace(w.Language)
	return w
}

// Translation is one directed edge. A translation relationship between two
// words is always stored as two edges, one in each direction.
type Translation struct {
	ID       int64 `json:"id"`
	WordFrom int64 `json:"word_from"`
	WordTo   int64 `json:"word_to"`
}

// NewTranslation is an edge that has not been persisted yet.
type NewTranslation struct {
	WordFrom int64
	WordTo   int64
}

// NewTranslationPair returns the two edges that make from and to translations
// of each other: from->to followed by to->from.
func NewTranslationPair(from, to Word) []NewTranslation {
	return []NewTranslation{
		{WordFrom: from.ID, WordTo: to.ID},
		{WordFrom: to.ID, WordTo: from.ID},
	}
}

// NewTranslationFanOut links from with every word in tos.
func NewTranslationFanOut(from Word, tos []Word) []NewTranslation {
	out := make([]NewTranslation, 0, 2*len(tos))
	for _, to := range tos {
		out = append(out, NewTranslationPair(from, to)...)
	}
	return out
}

// TranslatedWord is a neighbour of OriginWordID reached through one edge,
// carrying the neighbour's own attributes.
type TranslatedWord struct {
	OriginWordID int64   `json:"origin_word_id"`
	ID           int64   `json:"id"`
	Language     string  `json:"language"`
	Sex          *string `json:"sex,omitempty"`
	Text         string  `json:"text"`
}

// ToWord drops the origin tag and copies the remaining fields.
func (tw TranslatedWord) ToWord() Word {
	return Word{
		ID:       tw.ID,
		Language: tw.Language,
		Sex:      tw.Sex,
		Text:     tw.Text,
	}
}

// ToWords applies ToWord to every element.
func ToWords(tws []TranslatedWord) []Word {
	out := make([]Word, 0, len(tws))
	for _, tw := range tws {
		out = append(out, tw.ToWord())
	}
	return out
}
