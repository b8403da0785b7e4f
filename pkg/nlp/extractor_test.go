package nlp

import "testing"

func TestExtractIndex(t *testing.T) {
	ie := NewIndexExtractor()

	tests := []struct {
		name  string
		text  string
		want  int
		found bool
	}{
		{"digit", "open email 3", 2, true},
		{"ordinal word", "open second email", 1, true},
		{"cardinal word", "open email two", 1, true},
		{"tenth", "open the tenth one", 9, true},
		{"digit beats word", "open item 2 second", 1, true},
		{"digit beats earlier word", "open fifth item 1", 0, true},
		{"zero is out of range", "open email 0", -1, true},
		{"no index", "open my email", -1, false},
		{"word inside another word", "open someone", -1, false},
		{"upper case", "Open THIRD", 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ie.ExtractIndex(tt.text)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Errorf("index = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExtractIndex_HugeNumber(t *testing.T) {
	ie := NewIndexExtractor()

	idx, found := ie.ExtractIndex("open email 99999999999999999999999")
	if !found {
		t.Fatal("expected an index to be found")
	}
	if idx != -1 {
		t.Errorf("expected -1 for an overflowing number, got %d", idx)
	}
}
