package utils

// CountTokens estimates prompt size at roughly 4 characters per token,
// with any non-empty text counting as at least one token.
func CountTokens(text string) int {
	n := len([]rune(text))
	switch {
	case n == 0:
		return 0
	case n < 4:
		return 1
	}
	return n / 4
}

// ExceedsWindow reports whether text is estimated to overflow a model
// context window. A non-positive window is treated as unknown.
func ExceedsWindow(text string, window int) (int, bool) {
	tokens := CountTokens(text)
	return tokens, window > 0 && tokens > window
}
