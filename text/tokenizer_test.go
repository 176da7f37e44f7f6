package text

import "testing"

func TestStandardTokenizer_Tokenize(t *testing.T) {
	tok := NewStandardTokenizer()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercase and split", "Campus Marathon 2024!", []string{"campus", "marathon", "2024"}},
		{"stopwords filtered", "the rise of AI in the campus", []string{"rise", "ai", "campus"}},
		{"punctuation only", "!!! ... ???", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tokenize(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStandardTokenizer_ExtractKeywords(t *testing.T) {
	tok := NewStandardTokenizer()

	kws := tok.ExtractKeywords("go go go gopher conference", 2)
	if len(kws) != 2 {
		t.Fatalf("expected 2 keywords, got %d", len(kws))
	}
	if kws[0].Text != "go" {
		t.Errorf("top keyword = %q, want %q", kws[0].Text, "go")
	}
	if kws[0].Weight != 1.0 {
		t.Errorf("top keyword weight = %v, want 1.0", kws[0].Weight)
	}
	// 次高关键词相关度 = 词频/最大词频
	if kws[1].Weight <= 0 || kws[1].Weight > 1 {
		t.Errorf("keyword weight out of range: %v", kws[1].Weight)
	}

	if got := tok.ExtractKeywords("", 3); got != nil {
		t.Errorf("empty text should yield no keywords, got %v", got)
	}
	if got := tok.ExtractKeywords("hello", 0); got != nil {
		t.Errorf("topK=0 should yield no keywords, got %v", got)
	}
}
