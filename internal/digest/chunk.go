package digest

import (
	"strings"
	"unicode/utf8"

	"github.com/amishk599/jobdigest/internal/company"
)

// MaxMessageLen is the hard size limit of one payload, in characters. It
// leaves margin under the channel's 2000 character cap.
const MaxMessageLen = 1900

// Detail section limits.
const (
	MaxDetailedCompanies = 20
	MinDetailedPerSource = 2
)

const ellipsis = "..."

// SplitLines packs lines greedily into chunks of at most maxLen characters,
// joined by newlines. A line longer than maxLen is truncated, never dropped.
func SplitLines(lines []string, maxLen int) []string {
	chunks, _ := pack(lines, maxLen)
	return chunks
}

// pack is SplitLines that also reports the chunk index each line landed in.
func pack(lines []string, maxLen int) ([]string, []int) {
	var (
		chunks  []string
		current []string
		length  int
	)
	where := make([]int, len(lines))
	for i, line := range lines {
		line = truncate(line, maxLen)
		n := utf8.RuneCountInString(line)
		extra := n
		if len(current) > 0 {
			extra++
		}
		if len(current) > 0 && length+extra > maxLen {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = []string{line}
			length = n
		} else {
			current = append(current, line)
			length += extra
		}
		where[i] = len(chunks)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks, where
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	keep := maxLen - utf8.RuneCountInString(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(s)[:keep]) + ellipsis
}

// SplitCompanies chooses which companies get a detailed block. Under the cap
// every company is detailed. Over it, each main source first gets up to
// perSource slots round-robin in order of first appearance, then remaining
// slots go by rank. Both results keep the input (rank) order.
func SplitCompanies(companies []company.Summary, limit, perSource int) (detailed, overflow []company.Summary) {
	if len(companies) <= limit {
		return companies, nil
	}

	bySource := make(map[string][]int)
	var order []string
	for i, c := range companies {
		src := c.MainSource
		if src == "" {
			src = "unknown"
		}
		if _, ok := bySource[src]; !ok {
			order = append(order, src)
		}
		bySource[src] = append(bySource[src], i)
	}

	picked := make(map[int]bool, limit)
	cursor := make(map[string]int, len(order))
	for round := 0; round < perSource; round++ {
		for _, src := range order {
			if len(picked) >= limit {
				break
			}
			idx := bySource[src]
			if cursor[src] < len(idx) {
				picked[idx[cursor[src]]] = true
				cursor[src]++
			}
		}
	}
	for i := range companies {
		if len(picked) >= limit {
			break
		}
		picked[i] = true
	}

	for i, c := range companies {
		if picked[i] {
			detailed = append(detailed, c)
		} else {
			overflow = append(overflow, c)
		}
	}
	return detailed, overflow
}
