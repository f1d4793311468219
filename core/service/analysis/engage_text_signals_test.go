package analysis

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			text: "Best Deals, Today!",
			want: []string{"best", "deals", "today"},
		},
		{
			name: "keeps apostrophes and digits",
			text: "don't miss 2024's top10",
			want: []string{"don't", "miss", "2024's", "top10"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "only punctuation",
			text: "!!! --- ???",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	extractor := NewKeywordExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
		{
			name: "drops short tokens and stop words",
			text: "the cat sat on a big keyboard because keyboards have keys",
			want: []string{"keyboard", "keyboards", "keys"},
		},
		{
			name: "intent keywords rank above frequent plain keywords",
			text: "keyboard keyboard keyboard discount",
			want: []string{"discount", "keyboard"},
		},
		{
			name: "frequency breaks ties within a class",
			text: "mattress pillow mattress blanket pillow mattress",
			want: []string{"mattress", "pillow", "blanket"},
		},
		{
			name: "high intent headline",
			text: "Best budget wireless headphones review: compare top deals",
			want: []string{"best", "review", "compare", "deals", "budget", "wireless", "headphones"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.Extract(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractCapsKeywordCount(t *testing.T) {
	extractor := NewKeywordExtractor()

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "keyword%02d ", i)
	}

	got := extractor.Extract(sb.String())
	if len(got) != maxKeywords {
		t.Fatalf("Extract returned %d keywords, want %d", len(got), maxKeywords)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	extractor := NewKeywordExtractor()
	text := "Best budget wireless headphones review: compare top deals and discount offers for quality headphones"

	first := extractor.Extract(text)
	for i := 0; i < 10; i++ {
		again := extractor.Extract(text)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Extract not deterministic: run %d got %v, first run got %v", i, again, first)
		}
	}
}

func TestIsIntentKeyword(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"deal", true},
		{"deals", true},
		{"bestseller", true},
		{"reviewing", true},
		{"headphones", false},
		{"mattress", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := IsIntentKeyword(tt.word); got != tt.want {
				t.Errorf("IsIntentKeyword(%q) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestIntentWeight(t *testing.T) {
	if IntentWeight("deal") != 15 {
		t.Errorf("IntentWeight(deal) = %d, want 15", IntentWeight("deal"))
	}
	if IntentWeight("nonsense") != 0 {
		t.Errorf("IntentWeight(nonsense) = %d, want 0", IntentWeight("nonsense"))
	}
}
