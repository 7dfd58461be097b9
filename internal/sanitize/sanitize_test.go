package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLStripper_Strip(t *testing.T) {
	stripper := NewHTMLStripper()

	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "empty input",
			html:     "",
			expected: "",
		},
		{
			name:     "plain text passes through",
			html:     "just text",
			expected: "just text",
		},
		{
			name:     "tags are stripped",
			html:     "<h1>Title</h1><p>Body with <b>bold</b> text.</p>",
			expected: "TitleBody with bold text.",
		},
		{
			name:     "scripts and styles are dropped entirely",
			html:     `<style>p { color: red }</style><p>Visible</p><script>alert("x")</script>`,
			expected: "Visible",
		},
		{
			name:     "whitespace is collapsed",
			html:     "<p>  one \n\t two  </p>\n<p>three</p>",
			expected: "one two three",
		},
		{
			name:     "nested lists keep reading order",
			html:     "<ul><li>first</li><li>second</li></ul>",
			expected: "firstsecond",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripper.Strip(tt.html))
		})
	}
}
