package dictionary

import (
	"sort"

	"github.com/japaniel/cards/pkg/db"
	"github.com/japaniel/cards/pkg/ingest"
)

// Index finds dictionary entries by any kanji or kana spelling. It is
// read-only once built and safe for concurrent use.
type Index struct {
	byText map[string][]JMdictEntry
}

// NewIndex builds an in-memory index of entries.
func NewIndex(entries []JMdictEntry) *Index {
	idx := make(map[string][]JMdictEntry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Index{byText: idx}
}

// Lookup returns the entries spelled text, sorted by entry id. A non-empty
// reading (katakana or hiragana) must match one of the entry's kana.
func (ix *Index) Lookup(text, reading string) []JMdictEntry {
	seen := make(map[string]bool)
	var results []JMdictEntry
	for _, e := range ix.byText[text] {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		if matchesReading(e, reading) {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results
}

// EntryFor builds the glossary entry for a word as it is stored: text keeps
// its spelling and is linked to the English glosses of every match. It
// reports false when nothing matches or the matches have no glosses.
func (ix *Index) EntryFor(text, reading string) (ingest.Entry, bool) {
	matches := ix.Lookup(text, reading)
	entry := ingest.Entry{Word: db.NewWord{Text: text, Language: HeadwordLanguage}}
	seen := make(map[string]bool)
	for _, m := range matches {
		for _, g := range m.EnglishGlosses() {
			if seen[g] {
				continue
			}
			seen[g] = true
			entry.Translations = append(entry.Translations, db.NewWord{Text: g, Language: GlossLanguage})
		}
	}
	return entry, len(entry.Translations) > 0
}

func matchesReading(entry JMdictEntry, reading string) bool {
	if reading == "" {
		return true
	}
	want := ToHiragana(reading)
	for _, k := range entry.Kana {
		if ToHiragana(k.Text) == want {
			return true
		}
	}
	return false
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
