// Package compose generates musical material algorithmically.
package compose

import (
	"fmt"
	"strings"
)

// Euclidean distributes hits as evenly as possible over steps using
// Bjorklund's algorithm, optionally rotating the result. Euclidean(3, 8)
// yields the Cuban tresillo, Euclidean(5, 8) the cinquillo.
func Euclidean(hits, steps, rotate int) ([]bool, error) {
	if hits < 0 || steps < 0 {
		return nil, fmt.Errorf("hits and steps must be non-negative")
	}
	if hits > steps {
		return nil, fmt.Errorf("hits (%d) cannot exceed steps (%d)", hits, steps)
	}
	if steps == 0 {
		return nil, nil
	}

	pattern := bjorklund(hits, steps)

	if rotate != 0 {
		rotate = ((rotate % steps) + steps) % steps
		pattern = append(pattern[rotate:], pattern[:rotate]...)
	}
	return pattern, nil
}

func bjorklund(hits, steps int) []bool {
	if hits == 0 {
		return make([]bool, steps)
	}
	if hits == steps {
		pattern := make([]bool, steps)
		for i := range pattern {
			pattern[i] = true
		}
		return pattern
	}

	groups := make([][]bool, hits)
	for i := range groups {
		groups[i] = []bool{true}
	}
	remainder := make([][]bool, steps-hits)
	for i := range remainder {
		remainder[i] = []bool{false}
	}

	for len(remainder) > 1 {
		var paired [][]bool
		for len(groups) > 0 && len(remainder) > 0 {
			paired = append(paired, append(groups[0], remainder[0]...))
			groups = groups[1:]
			remainder = remainder[1:]
		}
		if len(groups) > 0 {
			remainder = groups
		}
		groups = paired
	}

	var out []bool
	for _, g := range groups {
		out = append(out, g...)
	}
	for _, r := range remainder {
		out = append(out, r...)
	}
	return out
}

// Source renders a pattern as notation source: notes on hits, rests on
// the off steps, each with the given denominator duration.
func Source(pattern []bool, pitch string, denominator int) string {
	if pitch == "" {
		pitch = "c"
	}

	var sb strings.Builder
	for i, hit := range pattern {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if hit {
			sb.WriteString(pitch)
		} else {
			sb.WriteByte('r')
		}
		if denominator > 0 {
			fmt.Fprintf(&sb, "%d", denominator)
		}
	}
	return sb.String()
}
