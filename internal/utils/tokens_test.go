package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 1, CountTokens("abc"))
	assert.Equal(t, 2, CountTokens("abcdefgh"))
	assert.Equal(t, 1, CountTokens("héllo"))
}

func TestExceedsWindow(t *testing.T) {
	text := strings.Repeat("a", 400)

	n, over := ExceedsWindow(text, 50)
	assert.Equal(t, 100, n)
	assert.True(t, over)

	_, over = ExceedsWindow(text, 100)
	assert.False(t, over)

	_, over = ExceedsWindow(text, 0)
	assert.False(t, over)
}
