package format

// Preview truncates s to at most length runes for log lines, marking the cut
// with "...".
func Preview(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
