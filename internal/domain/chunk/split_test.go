package chunk

import (
	"strconv"
	"strings"
	"testing"
)

func makeText(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w" + strconv.Itoa(i)
	}
	return strings.Join(w, " ")
}

func TestSplit_ThreeChunks(t *testing.T) {
	text := makeText(2500)
	chunks := Split(text, 1000)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []int{1000, 1000, 500} {
		if got := len(strings.Fields(chunks[i])); got != want {
			t.Errorf("chunk %d: expected %d words, got %d", i, want, got)
		}
	}
	if strings.Join(chunks, " ") != text {
		t.Error("joined chunks must reproduce the original text")
	}
}

func TestSplit_NormalizesWhitespace(t *testing.T) {
	chunks := Split("  alpha\tbeta\n\ngamma  delta ", 3)
	want := []string{"alpha beta gamma", "delta"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %v, got %v", want, chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplit_EdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		words int
		want  int
	}{
		{"empty", "", 10, 0},
		{"blank", " \n\t ", 10, 0},
		{"exact multiple", makeText(20), 10, 2},
		{"shorter than chunk", makeText(3), 10, 1},
		{"zero size uses default", makeText(1500), 0, 2},
		{"negative size uses default", makeText(10), -1, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(Split(tc.text, tc.words)); got != tc.want {
				t.Errorf("expected %d chunks, got %d", tc.want, got)
			}
		})
	}
}
