package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/japaniel/cards/internal/testutil"
	"github.com/japaniel/cards/pkg/ingest"
)

const sampleDictionary = `
{
  "words": [
    {
      "id": "1",
      "kanji": [{"text": "犬", "common": true}],
      "kana": [{"text": "いぬ", "common": true}],
      "sense": [{"gloss": [{"lang": "eng", "text": "dog"}, {"lang": "eng", "text": "canine"}], "partOfSpeech": ["n"]}]
    },
    {
      "id": "2",
      "kanji": [{"text": "走る", "common": true}],
      "kana": [{"text": "はしる", "common": true}],
      "sense": [
        {"gloss": [{"text": "to run"}], "partOfSpeech": ["v5r"]},
        {"gloss": [{"text": "to run"}, {"text": "to dash"}], "partOfSpeech": ["v5r"]}
      ]
    },
    {
      "id": "3",
      "kanji": [{"text": "猫", "common": true}],
      "kana": [{"text": "ねこ", "common": true}],
      "sense": [{"gloss": [{"lang": "ger", "text": "Katze"}, {"lang": "eng", "text": "cat"}], "partOfSpeech": ["n"]}]
    },
    {
      "id": "4",
      "kanji": [],
      "kana": [{"text": "テスト", "common": true}],
      "sense": [{"gloss": [{"text": "test"}], "partOfSpeech": ["n", "vs"]}]
    },
    {
      "id": "5",
      "kanji": [{"text": "犬", "common": false}],
      "kana": [{"text": "けん", "common": false}],
      "sense": [{"gloss": [{"text": "dog"}, {"text": "spy"}], "partOfSpeech": ["n"]}]
    }
  ]
}
`

func writeDictionary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jmdict.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJMdictSimplified(t *testing.T) {
	entries, err := LoadJMdictSimplified(writeDictionary(t, sampleDictionary))
	if err != nil {
		t.Fatalf("load dict: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	if entries[3].Kana[0].Text != "テスト" {
		t.Errorf("unexpected kana: %+v", entries[3].Kana)
	}
}

func TestLoadJMdictSimplifiedArray(t *testing.T) {
	path := writeDictionary(t, `[{"id": "9", "kana": [{"text": "ああ"}], "sense": [{"gloss": [{"text": "ah"}]}]}]`)
	entries, err := LoadJMdictSimplified(path)
	if err != nil {
		t.Fatalf("load dict: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "9" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if _, err := LoadJMdictSimplified(writeDictionary(t, "not json")); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := LoadJMdictSimplified(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestHeadwordAndGlosses(t *testing.T) {
	entries, err := ParseJMdictSimplified(readSeeker(sampleDictionary))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		entry    JMdictEntry
		headword string
		glosses  []string
	}{
		{entries[0], "犬", []string{"dog", "canine"}},
		{entries[1], "走る", []string{"to run", "to dash"}},
		{entries[2], "猫", []string{"cat"}},
		{entries[3], "テスト", []string{"test"}},
	}
	for _, tt := range tests {
		if got := tt.entry.Headword(); got != tt.headword {
			t.Errorf("Headword() = %q, want %q", got, tt.headword)
		}
		if got := tt.entry.EnglishGlosses(); !reflect.DeepEqual(got, tt.glosses) {
			t.Errorf("EnglishGlosses(%s) = %q, want %q", tt.headword, got, tt.glosses)
		}
	}
	if hw := (JMdictEntry{ID: "0"}).Headword(); hw != "" {
		t.Errorf("empty entry headword = %q", hw)
	}
}

func TestToEntries(t *testing.T) {
	entries, err := ParseJMdictSimplified(readSeeker(sampleDictionary))
	if err != nil {
		t.Fatal(err)
	}
	entries = append(entries, JMdictEntry{ID: "6"})

	got := ToEntries(entries)
	if len(got) != 4 {
		t.Fatalf("expected 4 merged entries, got %d: %+v", len(got), got)
	}
	dog := got[0]
	if dog.Word.Text != "犬" || dog.Word.Language != HeadwordLanguage {
		t.Errorf("first entry = %+v", dog.Word)
	}
	var glosses []string
	for _, tr := range dog.Translations {
		if tr.Language != GlossLanguage {
			t.Errorf("gloss language = %q", tr.Language)
		}
		glosses = append(glosses, tr.Text)
	}
	if want := []string{"dog", "canine", "spy"}; !reflect.DeepEqual(glosses, want) {
		t.Errorf("犬 glosses = %q, want %q", glosses, want)
	}
	for i, e := range got {
		if err := e.Validate(); err != nil {
			t.Errorf("entry %d does not validate: %v", i, err)
		}
	}
}

func TestToEntriesImport(t *testing.T) {
	conn, store := testutil.TestStore(t)
	entries, err := LoadJMdictSimplified(writeDictionary(t, sampleDictionary))
	if err != nil {
		t.Fatal(err)
	}

	ig := ingest.NewIngester(store)
	stats, err := ig.Import(context.Background(), ToEntries(entries))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.Entries != 4 {
		t.Errorf("stats = %+v", stats)
	}

	// 犬 走る 猫 テスト + dog canine spy, to run, to dash, cat, test
	if n := testutil.CountRows(t, conn, "words"); n != 11 {
		t.Errorf("words = %d, want 11", n)
	}
	dog, ok, err := store.FindByText(context.Background(), "dog")
	if err != nil || !ok {
		t.Fatalf("dog not stored: ok=%v err=%v", ok, err)
	}
	linked, err := store.FindByWord(context.Background(), dog)
	if err != nil {
		t.Fatal(err)
	}
	if len(linked) != 1 || linked[0].Text != "犬" {
		t.Errorf("dog translations = %+v, want [犬]", linked)
	}
}
