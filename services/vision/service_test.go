package vision

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain base64 passes through",
			input: "aGVsbG8=",
			want:  "aGVsbG8=",
		},
		{
			name:  "data uri prefix stripped",
			input: "data:image/png;base64,aGVsbG8=",
			want:  "aGVsbG8=",
		},
		{
			name:    "oversized image rejected",
			input:   strings.Repeat("A", 6*1024*1024),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateImage(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "too large") {
					t.Errorf("error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsWarmingError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("API returned unexpected status code: 503"), true},
		{errors.New("model is warming up, please retry"), true},
		{errors.New("Cold Start in progress"), true},
		{errors.New("API returned unexpected status code: 401"), false},
		{errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		if got := isWarmingError(tt.err); got != tt.want {
			t.Errorf("isWarmingError(%q) = %t, want %t", tt.err, got, tt.want)
		}
	}
}

func TestProductSceneSchema(t *testing.T) {
	schema := productSceneSchema()

	properties, ok := schema["properties"]
	if !ok || properties == nil {
		t.Fatal("schema missing properties")
	}
	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "description" {
		t.Errorf("required = %v, want [description]", required)
	}
}
