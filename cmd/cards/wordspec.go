package main

import (
	"fmt"
	"strings"

	"github.com/japaniel/cards/pkg/db"
)

// wordSpecHelp describes the LANG:text[:sex] argument format.
const wordSpecHelp = `Words are written LANG:text or LANG:text:sex, for example EN:exam or
RU:экзамен:M. The text cannot contain ':', since everything after a second
':' is read as the sex; save such words with "cards load" or the JSON API.`

// parseWordSpec parses LANG:text or LANG:text:sex. The first two colons are
// separators, so EN:re:sign is the text "re" with sex "sign".
func parseWordSpec(spec string) (db.NewWord, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return db.NewWord{}, fmt.Errorf("%w: %q, want LANG:text[:sex]", db.ErrInvalidWord, spec)
	}
	w := db.NewWord{
		Language: strings.TrimSpace(parts[0]),
		Text:     strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		sex := strings.TrimSpace(parts[2])
		if sex == "" {
			return db.NewWord{}, fmt.Errorf("%w: %q has an empty sex", db.ErrInvalidWord, spec)
		}
		w.Sex = &sex
	}
	if err := w.Validate(); err != nil {
		return db.NewWord{}, fmt.Errorf("word %q: %w: %v", spec, db.ErrInvalidWord, err)
	}
	return w, nil
}

func parseWordSpecs(specs []string) ([]db.NewWord, error) {
	out := make([]db.NewWord, 0, len(specs))
	for _, s := range specs {
		w, err := parseWordSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func formatWord(w db.Word) string {
	if w.Sex != nil {
		return fmt.Sprintf("%s:%s:%s", w.Language, w.Text, *w.Sex)
	}
	return fmt.Sprintf("%s:%s", w.Language, w.Text)
}
