package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"Widget", "Widgte", 2},
		{"str_pad", "str_pda", 2},
		{"héllo", "hello", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
				t.Errorf("LevenshteinDistance(%q, %q) = %d; want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"Widget", "Counter", `App\Base`, "Gadget", "str_pad"}

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"typo", "Widgte", []string{"Widget"}},
		{"namespace and case", `\app\bse`, []string{`App\Base`}},
		{"closest first", "Gidget", []string{"Widget", "Gadget"}},
		{"exact match is not a suggestion", "counter", []string{}},
		{"nothing close", "Zzzzzzzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.target, candidates)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest(%q) = %v; want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestSuggestLimit(t *testing.T) {
	got := Suggest("ab", []string{"aa", "ac", "ad", "ae"})
	if len(got) != DefaultMaxSuggestions {
		t.Fatalf("got %d suggestions, want %d", len(got), DefaultMaxSuggestions)
	}
	if got[0] != "aa" {
		t.Errorf("ties should keep candidate order, got %v", got)
	}
}
