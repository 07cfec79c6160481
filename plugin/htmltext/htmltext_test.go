package htmltext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text passes through",
			in:   "buy milk tomorrow",
			want: "buy milk tomorrow",
		},
		{
			name: "paragraphs become lines",
			in:   "<html><body><p>first</p><p>second</p></body></html>",
			want: "first\nsecond",
		},
		{
			name: "script and style dropped",
			in:   "<html><head><style>p{color:red}</style></head><body><script>alert(1)</script><p>visible</p></body></html>",
			want: "visible",
		},
		{
			name: "line breaks kept",
			in:   "<div>line one<br>line two</div>",
			want: "line one\nline two",
		},
		{
			name: "blank line runs collapsed",
			in:   "<p>a</p><p></p><p></p><p></p><p>b</p>",
			want: "a\n\nb",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Strip(tt.in))
		})
	}
}
