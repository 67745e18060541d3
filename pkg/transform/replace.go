package transform

import "strings"

// Replacer returns an updater that replaces every occurrence of find with
// repl. Matching is literal, not regular-expression based.
func Replacer(find, repl string) func(string) string {
	return func(read string) string {
		return strings.ReplaceAll(read, find, repl)
	}
}
