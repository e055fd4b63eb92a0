package services

import "testing"

func TestCardLast4(t *testing.T) {
	tests := []struct {
		name string
		info map[string]any
		want string
	}{
		{"plain number", map[string]any{"card_number": "4111111111111111"}, "1111"},
		{"spaced number", map[string]any{"card_number": "4111 1111 1111 1234"}, "1234"},
		{"dashed number", map[string]any{"card_number": "4111-1111-1111-9876"}, "9876"},
		{"too short", map[string]any{"card_number": "12"}, ""},
		{"missing field", map[string]any{}, ""},
		{"nil info", nil, ""},
		{"wrong type", map[string]any{"card_number": 4111.0}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cardLast4(tt.info); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
