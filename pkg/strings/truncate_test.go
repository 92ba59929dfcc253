package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{name: "short", input: "fetch a page", width: 20, want: "fetch a page"},
		{name: "exact width", input: "abcde", width: 5, want: "abcde"},
		{name: "cut", input: "search the web for pages", width: 10, want: "search ..."},
		{name: "newlines collapse", input: "line one\n\tline  two", width: 40, want: "line one line two"},
		{name: "empty", input: "   ", width: 10, want: ""},
		{name: "tiny width raised", input: "abcdefgh", width: 1, want: "a..."},
		{name: "multibyte", input: "ääääääää", width: 6, want: "äää..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.input, tt.width))
		})
	}
}
