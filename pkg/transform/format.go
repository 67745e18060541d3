// Package transform implements the per-journal text transforms applied by
// the maintenance commands: canonical formatting, literal replacement,
// balance shifting, and depreciation-entry insertion. Every transform is a
// pure string function so it can be driven by journal.UpdateFileIfChanged.
package transform

import (
	"sort"
	"strings"
)

// Format builds the canonical journal text from the journal's original
// content and the output of `hledger print`: any `include ` header lines are
// preserved at the top, the body is replaced by the printed form, and
// comment properties are reordered consistently.
func Format(original, printed string) string {
	var includes []string
	for _, line := range splitLines(original) {
		if strings.HasPrefix(line, "include ") {
			includes = append(includes, line)
		}
	}

	text := strings.Join(includes, "\n") + "\n\n" + strings.TrimSpace(printed) + "\n\n"

	lines := splitLines(text)
	for i, line := range lines {
		lines[i] = SortProps(line)
	}
	return strings.Join(lines, "\n")
}

// SortProps normalizes a single `<code>  ; <comment>` line by grouping
// consecutive key:value properties in the comment and sorting each group by
// key. Lines without the `  ;` separator are returned unchanged.
func SortProps(line string) string {
	code, comment, ok := strings.Cut(line, "  ;")
	if !ok {
		return line
	}

	var parts []string
	var group [][2]string

	flush := func() {
		if len(group) == 0 {
			return
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i][0] != group[j][0] {
				return group[i][0] < group[j][0]
			}
			return group[i][1] < group[j][1]
		})
		props := make([]string, len(group))
		for i, p := range group {
			props[i] = p[0] + ": " + p[1]
		}
		parts = append(parts, strings.Join(props, ", "))
		group = group[:0]
	}

	for _, section := range strings.Split(comment, ",") {
		if key, value, isProp := strings.Cut(section, ":"); isProp {
			group = append(group, [2]string{strings.TrimSpace(key), strings.TrimSpace(value)})
			continue
		}
		flush()
		parts = append(parts, strings.TrimSpace(section))
	}
	flush()

	return code + "  ; " + strings.Join(parts, ", ")
}

// splitLines splits on newlines without producing a phantom final element
// for a trailing newline.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// splitAfterLines splits s into lines that keep their trailing newline, so a
// transform can reassemble the text byte-for-byte.
func splitAfterLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
