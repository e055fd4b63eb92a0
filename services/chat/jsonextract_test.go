package chat

import (
	"reflect"
	"testing"
)

func TestStripMarkdownCodeBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fence passes through trimmed",
			input: "  {\"a\": 1}  ",
			want:  `{"a": 1}`,
		},
		{
			name:  "json fence stripped",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare fence stripped",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "text around fence ignored",
			input: "Here you go:\n```json\n{\"a\": 1}\n```\nLet me know!",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownCodeBlocks(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	fallback := map[string]any{"destination": nil}

	tests := []struct {
		name   string
		input  string
		fields []string
		want   map[string]any
	}{
		{
			name:   "direct parse",
			input:  `{"destination": "Banff"}`,
			fields: []string{"destination"},
			want:   map[string]any{"destination": "Banff"},
		},
		{
			name:   "fenced parse",
			input:  "```json\n{\"destination\": \"Banff\"}\n```",
			fields: []string{"destination"},
			want:   map[string]any{"destination": "Banff"},
		},
		{
			name:   "embedded object found by field",
			input:  `Sure! The context is {"destination": "Moab", "dates": "May"} as requested.`,
			fields: []string{"destination", "dates"},
			want:   map[string]any{"destination": "Moab", "dates": "May"},
		},
		{
			name:   "no json falls back",
			input:  "I could not determine a destination.",
			fields: []string{"destination"},
			want:   fallback,
		},
		{
			name:   "empty input falls back",
			input:  "",
			fields: []string{"destination"},
			want:   fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input, tt.fields, fallback)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractJSONNilFallback(t *testing.T) {
	got := ExtractJSON("garbage", nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("nil fallback should yield empty map, got %v", got)
	}
}
