package util

import (
	"regexp"
	"strconv"
	"strings"
)

var tokenizer = regexp.MustCompile(`(\d+|\D+)`)

type naturalSortToken struct {
	str   string
	num   int
	isNum bool
}

func tokenize(s string) []naturalSortToken {
	parts := tokenizer.FindAllString(s, -1)
	tokens := make([]naturalSortToken, len(parts))
	for i, p := range parts {
		if num, err := strconv.Atoi(p); err == nil {
			tokens[i] = naturalSortToken{num: num, isNum: true}
		} else {
			tokens[i] = naturalSortToken{str: strings.ToLower(p)}
		}
	}
	return tokens
}

// NaturalSortLess orders strings with embedded numbers by value, so season
// "2" sorts before season "10" and "Part 9" before "Part 10".
func NaturalSortLess(s1, s2 string) bool {
	t1 := tokenize(s1)
	t2 := tokenize(s2)

	for i := 0; i < min(len(t1), len(t2)); i++ {
		a, b := t1[i], t2[i]
		switch {
		case a.isNum && !b.isNum:
			return true
		case !a.isNum && b.isNum:
			return false
		case a.isNum:
			if a.num != b.num {
				return a.num < b.num
			}
		case a.str != b.str:
			return a.str < b.str
		}
	}
	return len(t1) < len(t2)
}
