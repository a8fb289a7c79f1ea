package commands

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessageLaw(t *testing.T) {
	inputs := map[string]string{
		"short":            "hello",
		"exact":            strings.Repeat("a", 2000),
		"no newline":       strings.Repeat("b", 4501),
		"newline at start": "\n" + strings.Repeat("c", 4100),
		"newline on limit": strings.Repeat("d", 2000) + "\n" + strings.Repeat("e", 300),
		"many lines":       strings.Repeat("line of coaching advice\n", 400),
		"multibyte":        strings.Repeat("🎯 aim drills\n", 500),
		"newline run":      strings.Repeat("\n", 4100),
	}
	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			chunks := SplitMessage(text, DiscordMessageLimit)
			assert.Equal(t, text, strings.Join(chunks, ""))
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), DiscordMessageLimit)
				assert.NotEmpty(t, c)
			}
		})
	}
}

func TestSplitMessagePrefersLastNewline(t *testing.T) {
	text := "aaaa\nbbbb\ncc"
	chunks := SplitMessage(text, 8)
	assert.Equal(t, []string{"aaaa", "\nbbbb\ncc"}, chunks)
}

func TestSplitMessageHardCut(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, SplitMessage("abcdefg", 3))
}

func TestSplitMessageEmpty(t *testing.T) {
	assert.Empty(t, SplitMessage("", DiscordMessageLimit))
}
