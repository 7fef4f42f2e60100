package inventory

import "strings"

// SanitizeNo derives the storage identity from a free-text item number:
// whitespace is stripped entirely and path separators removed, so the result
// never collides with store path syntax. An empty result means the store
// should assign an identity itself.
func SanitizeNo(no string) string {
	compact := strings.Join(strings.Fields(no), "")
	return strings.ReplaceAll(compact, "/", "")
}
