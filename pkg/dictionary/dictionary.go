// Package dictionary turns the JMdict dictionary (jmdict-simplified JSON)
// into glossary entries: Japanese headwords linked to their English glosses.
package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/japaniel/cards/pkg/db"
	"github.com/japaniel/cards/pkg/ingest"
)

// Languages written for dictionary words.
const (
	HeadwordLanguage = "JA"
	GlossLanguage    = "EN"
)

// JMdictEntry matches the structure of jmdict-simplified entries.
type JMdictEntry struct {
	ID    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string      `json:"partOfSpeech"`
	Gloss        []JMdictGloss `json:"gloss"`
}

type JMdictGloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // "eng" when missing
}

// Headword is the first kanji spelling, or the first kana one for words
// normally written in kana.
func (e JMdictEntry) Headword() string {
	for _, k := range e.Kanji {
		if t := strings.TrimSpace(k.Text); t != "" {
			return t
		}
	}
	for _, k := range e.Kana {
		if t := strings.TrimSpace(k.Text); t != "" {
			return t
		}
	}
	return ""
}

// EnglishGlosses returns the English glosses of every sense without
// duplicates.
func (e JMdictEntry) EnglishGlosses() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range e.Sense {
		for _, g := range s.Gloss {
			if g.Lang != "" && g.Lang != "eng" {
				continue
			}
			text := strings.TrimSpace(g.Text)
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			out = append(out, text)
		}
	}
	return out
}

// LoadJMdictSimplified reads a dictionary file, either the release format
// `{"words": [...]}` or a bare array of entries.
func LoadJMdictSimplified(path string) ([]JMdictEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := ParseJMdictSimplified(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// ParseJMdictSimplified is LoadJMdictSimplified for an open file.
func ParseJMdictSimplified(r io.ReadSeeker) ([]JMdictEntry, error) {
	var wrapper struct {
		Words []JMdictEntry `json:"words"`
	}
	if err := json.NewDecoder(r).Decode(&wrapper); err == nil && len(wrapper.Words) > 0 {
		return wrapper.Words, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var entries []JMdictEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse dictionary as object or array: %w", err)
	}
	return entries, nil
}

// ToEntries converts dictionary entries to glossary entries: the headword
// in HeadwordLanguage translated to each English gloss. Entries sharing a
// headword are merged, keeping the order of first appearance. Entries
// without a headword are skipped.
func ToEntries(entries []JMdictEntry) []ingest.Entry {
	byHeadword := make(map[string]int)
	seenGloss := make(map[string]map[string]bool)
	var out []ingest.Entry
	for _, e := range entries {
		hw := e.Headword()
		if hw == "" {
			continue
		}
		i, ok := byHeadword[hw]
		if !ok {
			i = len(out)
			byHeadword[hw] = i
			seenGloss[hw] = make(map[string]bool)
			out = append(out, ingest.Entry{Word: db.NewWord{Text: hw, Language: HeadwordLanguage}})
		}
		for _, g := range e.EnglishGlosses() {
			if seenGloss[hw][g] {
				continue
			}
			seenGloss[hw][g] = true
			out[i].Translations = append(out[i].Translations, db.NewWord{Text: g, Language: GlossLanguage})
		}
	}
	return out
}
