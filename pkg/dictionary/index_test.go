package dictionary

import (
	"io"
	"strings"
	"testing"
)

func readSeeker(s string) io.ReadSeeker { return strings.NewReader(s) }

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	entries, err := ParseJMdictSimplified(readSeeker(sampleDictionary))
	if err != nil {
		t.Fatal(err)
	}
	return NewIndex(entries)
}

func TestIndexLookup(t *testing.T) {
	ix := newTestIndex(t)

	tests := []struct {
		name          string
		text, reading string
		wantIDs       []string
	}{
		{"kanji without reading", "犬", "", []string{"1", "5"}},
		{"katakana reading", "犬", "イヌ", []string{"1"}},
		{"hiragana reading", "犬", "けん", []string{"5"}},
		{"wrong reading", "猫", "イヌ", nil},
		{"kana spelling", "いぬ", "", []string{"1"}},
		{"katakana word", "テスト", "テスト", []string{"4"}},
		{"unknown", "未知", "ミチ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, e := range ix.Lookup(tt.text, tt.reading) {
				ids = append(ids, e.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("Lookup(%q, %q) = %v, want %v", tt.text, tt.reading, ids, tt.wantIDs)
			}
		})
	}
}

func TestIndexEntryFor(t *testing.T) {
	ix := newTestIndex(t)

	entry, ok := ix.EntryFor("いぬ", "")
	if !ok {
		t.Fatal("expected an entry for いぬ")
	}
	if entry.Word.Text != "いぬ" || entry.Word.Language != HeadwordLanguage {
		t.Errorf("stored spelling should be kept, got %+v", entry.Word)
	}
	if len(entry.Translations) != 2 || entry.Translations[0].Text != "dog" {
		t.Errorf("translations = %+v", entry.Translations)
	}

	if _, ok := ix.EntryFor("未知", ""); ok {
		t.Error("expected no entry for an unknown word")
	}
}

func TestToHiragana(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"ア", "あ"},
		{"イ", "い"},
		{"カ", "か"},
		{"ガ", "が"},
		{"パ", "ぱ"},
		{"ン", "ん"},
		{"ー", "ー"},
		{"abc", "abc"},
		{"あいう", "あいう"},
	}
	for _, tt := range tests {
		if got := ToHiragana(tt.in); got != tt.out {
			t.Errorf("ToHiragana(%q) = %q; want %q", tt.in, got, tt.out)
		}
	}
}
