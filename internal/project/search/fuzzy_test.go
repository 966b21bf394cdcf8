package search

import (
	"reflect"
	"testing"
)

func TestFuzzyScore(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		target    string
		score     int
		positions []int
	}{
		{"empty query", "", "main.go", 1, nil},
		{"exact", "main.go", "main.go", 1000, []int{0, 1, 2, 3, 4, 5, 6}},
		{"exact ignores case", "README.md", "readme.MD", 1000, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{"prefix", "mai", "main.go", 500, []int{0, 1, 2}},
		{"prefix ignores case", "MA", "main.go", 500, []int{0, 1}},
		{"subsequence", "abc", "xaxbxc", 30, []int{1, 3, 5}},
		{"subsequence greedy", "mg", "main.go", 20, []int{0, 5}},
		{"out of order", "abc", "acb", 0, nil},
		{"missing char", "mz", "main.go", 0, nil},
		{"query longer than name", "main.go.bak", "main.go", 0, nil},
		{"empty name", "a", "", 0, nil},
		{"unicode fold", "ÉTÉ", "été.txt", 500, []int{0, 1, 2}},
		{"unicode subsequence", "üx", "über.txt", 20, []int{0, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FuzzyScore(tt.query, tt.target)
			if m.Score != tt.score {
				t.Errorf("FuzzyScore(%q, %q).Score = %d, want %d", tt.query, tt.target, m.Score, tt.score)
			}
			if !reflect.DeepEqual(m.Positions, tt.positions) {
				t.Errorf("FuzzyScore(%q, %q).Positions = %v, want %v", tt.query, tt.target, m.Positions, tt.positions)
			}
			if m.Matched() != (tt.score > 0) {
				t.Errorf("Matched() = %v for score %d", m.Matched(), m.Score)
			}
		})
	}
}

func TestFuzzyScore_ExactHighlightsEveryCharacter(t *testing.T) {
	names := []string{"a", "Makefile", "go.mod", "café.go", "x_y-z.test.ts"}
	for _, n := range names {
		m := FuzzyScore(n, n)
		if m.Score != ScoreExact {
			t.Errorf("FuzzyScore(%q, %q).Score = %d, want %d", n, n, m.Score, ScoreExact)
		}
		if got, want := len(m.Positions), len([]rune(n)); got != want {
			t.Errorf("FuzzyScore(%q, %q) highlighted %d characters, want %d", n, n, got, want)
		}
	}
}
