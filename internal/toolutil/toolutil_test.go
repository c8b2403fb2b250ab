package toolutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormVideoID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"  dQw4w9WgXcQ ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?list=PL1&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "https://example.com/watch?v=dQw4w9WgXcQ"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormVideoID(tt.in), tt.in)
	}
}

func TestNormVideoIDs(t *testing.T) {
	got := NormVideoIDs([]string{"https://youtu.be/aaaaaaaaaaa", "b", ""})
	assert.Equal(t, []string{"aaaaaaaaaaa", "b", ""}, got)
}
