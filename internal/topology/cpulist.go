package topology

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadCPUList is returned for malformed CPU-list text.
var ErrBadCPUList = errors.New("topology: malformed cpu list")

// ParseCPUList parses the kernel's CPU-list format: comma-separated tokens,
// each a single CPU id or an inclusive "start-end" range. Surrounding
// whitespace and empty input are accepted; "0-3,8,10-11" yields
// [0 1 2 3 8 10 11].
func ParseCPUList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var cpus []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, fmt.Errorf("%w: empty token in %q", ErrBadCPUList, s)
		}
		lo, hi, isRange := strings.Cut(tok, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || start < 0 {
			return nil, fmt.Errorf("%w: bad cpu %q", ErrBadCPUList, tok)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("%w: bad range %q", ErrBadCPUList, tok)
			}
		}
		for cpu := start; cpu <= end; cpu++ {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

// FormatCPUList renders ascending cpus in CPU-list form, collapsing runs into ranges.
func FormatCPUList(cpus []int) string {
	var sb strings.Builder
	for i := 0; i < len(cpus); {
		j := i
		for j+1 < len(cpus) && cpus[j+1] == cpus[j]+1 {
			j++
		}
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		if j > i {
			fmt.Fprintf(&sb, "%d-%d", cpus[i], cpus[j])
		} else {
			sb.WriteString(strconv.Itoa(cpus[i]))
		}
		i = j + 1
	}
	return sb.String()
}
