package harvest

import (
	"reflect"
	"testing"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	return a
}

func TestAnalyzeBaseForms(t *testing.T) {
	a := newTestAnalyzer(t)

	tokens := a.Analyze("犬が走った。")
	if len(tokens) == 0 {
		t.Fatal("No tokens found")
	}

	var surfaces []string
	found := false
	for _, tok := range tokens {
		surfaces = append(surfaces, tok.Surface)
		if len(tok.PartsOfSpeech) == 0 || tok.PrimaryPOS != tok.PartsOfSpeech[0] {
			t.Errorf("PrimaryPOS %q does not match features %v", tok.PrimaryPOS, tok.PartsOfSpeech)
		}
		if tok.Surface == "走っ" {
			found = true
			if tok.BaseForm != "走る" {
				t.Errorf("base form of 走っ = %q, want 走る", tok.BaseForm)
			}
			if tok.Headword() != "走る" {
				t.Errorf("headword of 走っ = %q, want 走る", tok.Headword())
			}
			if tok.PrimaryPOS != "動詞" {
				t.Errorf("POS of 走っ = %q, want 動詞", tok.PrimaryPOS)
			}
		}
	}
	if !found {
		t.Fatalf("expected a 走っ token, got %v", surfaces)
	}
}

func TestAnalyzeDropsWhitespace(t *testing.T) {
	a := newTestAnalyzer(t)
	for _, tok := range a.Analyze("猫 　 犬") {
		if tok.Surface == " " || tok.Surface == "　" {
			t.Fatalf("whitespace token kept: %q", tok.Surface)
		}
	}
}

func TestHeadwordFallsBackToSurface(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{Token{Surface: "行っ", BaseForm: "行く"}, "行く"},
		{Token{Surface: "ＧＯ", BaseForm: "*"}, "ＧＯ"},
		{Token{Surface: "ググっ"}, "ググっ"},
	}
	for _, tt := range tests {
		if got := tt.tok.Headword(); got != tt.want {
			t.Errorf("Headword(%+v) = %q, want %q", tt.tok, got, tt.want)
		}
	}
}

func TestAnalyzeDocumentSegmentation(t *testing.T) {
	a := newTestAnalyzer(t)

	sentences := a.AnalyzeDocument("今日は晴れ。明日は雨です！本当？\n\n終わり")
	var texts []string
	for _, s := range sentences {
		texts = append(texts, s.Text)
		if len(s.Tokens) == 0 {
			t.Errorf("Sentence has no tokens: %q", s.Text)
		}
	}
	// the blank lines are skipped
	want := []string{"今日は晴れ。", "明日は雨です！", "本当？", "終わり"}
	if !reflect.DeepEqual(texts, want) {
		t.Fatalf("sentences = %q, want %q", texts, want)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("一。二！三")
	want := []string{"一。", "二！", "三"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
	if got := SplitSentences(""); len(got) != 0 {
		t.Fatalf("expected no sentences, got %q", got)
	}
}

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple Ruby",
			input:    "<ruby>漢字<rt>かんじ</rt></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Ruby with RP",
			input:    "<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Multiple Ruby",
			input:    "<ruby>私<rt>わたし</rt></ruby>は<ruby>猫<rt>ねこ</rt></ruby>である",
			expected: "<ruby>私</ruby>は<ruby>猫</ruby>である",
		},
		{
			name:     "Attributes in tags",
			input:    "<ruby class='test'>漢字<RT class='reading'>かんじ</RT></ruby>",
			expected: "<ruby class='test'>漢字</ruby>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeRuby([]byte(tt.input))
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}
