package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/japaniel/cards/pkg/db"
)

// Entry is one glossary line: a word and the words it translates to.
type Entry struct {
	Word         db.NewWord   `yaml:"word" json:"word"`
	Translations []db.NewWord `yaml:"translations" json:"translations"`
}

// Validate checks the word and every translation.
func (e Entry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Word),
		validation.Field(&e.Translations),
	)
}

// Glossary is the on-disk glossary format:
//
//	entries:
//	  - word: {text: экзамен, language: RU, sex: M}
//	    translations:
//	      - {text: exam, language: EN}
type Glossary struct {
	Entries []Entry `yaml:"entries"`
}

// WordList is the on-disk format of a plain word batch.
type WordList struct {
	Words []db.NewWord `yaml:"words"`
}

// LoadGlossary reads a YAML glossary file.
func LoadGlossary(path string) (Glossary, error) {
	var g Glossary
	if err := decodeYAMLFile(path, &g); err != nil {
		return Glossary{}, err
	}
	return g, nil
}

// ParseGlossary decodes a YAML glossary. Unknown keys are rejected.
func ParseGlossary(r io.Reader) (Glossary, error) {
	var g Glossary
	if err := decodeYAML(r, &g); err != nil {
		return Glossary{}, err
	}
	return g, nil
}

// LoadWordList reads a YAML file of the form `words: [{text, language, sex}]`.
func LoadWordList(path string) ([]db.NewWord, error) {
	var wl WordList
	if err := decodeYAMLFile(path, &wl); err != nil {
		return nil, err
	}
	return wl.Words, nil
}

func decodeYAMLFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := decodeYAML(f, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func decodeYAML(r io.Reader, out interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}
