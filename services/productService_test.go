package services

import (
	"reflect"
	"testing"
)

func TestSuggestFromVocabulary(t *testing.T) {
	vocabulary := []string{"Tents", "Sleeping Bags", "Backpacks", "Footwear", "Climbing"}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "partial term suggests containing term",
			query: "pack",
			want:  []string{"Backpacks"},
		},
		{
			name:  "partial word matches",
			query: "climb",
			want:  []string{"Climbing"},
		},
		{
			name:  "exact match excluded from suggestions",
			query: "Tents",
			want:  nil,
		},
		{
			name:  "nothing close yields no suggestions",
			query: "xyzzy",
			want:  nil,
		},
		{
			name:  "empty query yields nothing",
			query: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestFromVocabulary(tt.query, vocabulary)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuggestFromVocabularyCapped(t *testing.T) {
	vocabulary := []string{"Camp Stoves", "Camp Chairs", "Camp Tables", "Camp Mugs", "Camping"}

	got := suggestFromVocabulary("camp", vocabulary)
	if len(got) > 3 {
		t.Errorf("suggestions = %v, want at most 3", got)
	}
	if len(got) == 0 {
		t.Error("expected at least one suggestion for a common prefix")
	}
}
