package search

import (
	"golang.org/x/text/cases"
)

// Scores assigned by FuzzyScore.
const (
	ScoreEmpty   = 1
	ScoreExact   = 1000
	ScorePrefix  = 500
	ScorePerChar = 10
)

// Match is the outcome of matching a query against a name.
type Match struct {
	// Score is 0 when the query does not match.
	Score int

	// Positions are rune indexes into the name.
	Positions []int
}

// Matched reports whether the query matched.
func (m Match) Matched() bool {
	return m.Score > 0
}

// FuzzyScore matches query against name, ignoring case.
//
// An empty query matches everything with score 1. A full match scores 1000
// and a prefix match 500. Otherwise the query must appear in order as a
// subsequence of name; each query character matched scores 10. Characters
// are consumed greedily from the left.
func FuzzyScore(query, name string) Match {
	if query == "" {
		return Match{Score: ScoreEmpty}
	}

	fold := cases.Fold()
	q := []rune(fold.String(query))
	segs := foldRunes(fold, name)

	// Prefix walk: consume whole folded segments while they agree with q.
	qi, ni := 0, 0
	for ni < len(segs) && hasPrefixAt(q, qi, segs[ni]) {
		qi += len(segs[ni])
		ni++
	}
	if qi == len(q) {
		if ni == len(segs) {
			return Match{Score: ScoreExact, Positions: indexes(0, ni)}
		}
		return Match{Score: ScorePrefix, Positions: indexes(0, ni)}
	}

	var positions []int
	qi = 0
	for i, seg := range segs {
		if qi == len(q) {
			break
		}
		if hasPrefixAt(q, qi, seg) {
			positions = append(positions, i)
			qi += len(seg)
		}
	}
	if qi < len(q) {
		return Match{}
	}
	return Match{Score: len(q) * ScorePerChar, Positions: positions}
}

// foldRunes returns the case-folded form of each rune of s.
func foldRunes(fold cases.Caser, s string) [][]rune {
	segs := make([][]rune, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			if 'A' <= r && r <= 'Z' {
				r += 'a' - 'A'
			}
			segs = append(segs, []rune{r})
			continue
		}
		fold.Reset()
		segs = append(segs, []rune(fold.String(string(r))))
	}
	return segs
}

func hasPrefixAt(q []rune, at int, seg []rune) bool {
	if len(seg) == 0 || at+len(seg) > len(q) {
		return false
	}
	for i, r := range seg {
		if q[at+i] != r {
			return false
		}
	}
	return true
}

func indexes(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
