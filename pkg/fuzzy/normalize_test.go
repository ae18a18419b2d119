package fuzzy

import (
	"testing"
	"time"
)

// runStringTransformationTest is a helper to run tests for string transformation functions.
func runStringTransformationTest(t *testing.T, testName string,
	transformFunc func(string) string, testCases []struct {
		name     string
		input    string
		expected string
	}) {
	t.Helper()
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			result := transformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", testName, result, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty",
			input:    "",
			expected: "",
		},
		{
			name:     "Simple artist name",
			input:    "Four Tet",
			expected: "four tet",
		},
		{
			name:     "Hyphen and apostrophe removed",
			input:    "EGO-WRAPPIN'",
			expected: "egowrappin",
		},
		{
			name:     "Parenthetical qualifier",
			input:    "FOUR TET (musician)",
			expected: "four tet musician",
		},
		{
			name:     "Whitespace collapsed and trimmed",
			input:    "  The   Chemical\tBrothers \n",
			expected: "the chemical brothers",
		},
		{
			name:     "Underscore kept",
			input:    "dj_koze",
			expected: "dj_koze",
		},
		{
			name:     "Japanese survives",
			input:    "サカナクション!",
			expected: "サカナクション",
		},
		{
			name:     "Accents survive",
			input:    "Björk",
			expected: "björk",
		},
		{
			name:     "Full-width Latin folded",
			input:    "ＹＭＯ",
			expected: "ymo",
		},
		{
			name:     "Punctuation only",
			input:    "!!!",
			expected: "",
		},
	}

	runStringTransformationTest(t, "Normalize", Normalize, tests)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"EGO-WRAPPIN'",
		"FOUR TET (musician)",
		"  Sigur   Rós ",
		"坂本龍一",
		"ＹＭＯ",
		"P!nk",
		"",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestQueryCleaner_Artist(t *testing.T) {
	cleaner := NewQueryCleaner()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple artist name",
			input:    "The Beatles",
			expected: "The Beatles",
		},
		{
			name:     "Artist with feat",
			input:    "Artist feat. Someone",
			expected: "Artist",
		},
		{
			name:     "Artist with bracketed featuring",
			input:    "Artist (featuring Someone)",
			expected: "Artist",
		},
	}

	runStringTransformationTest(t, "Artist", cleaner.Artist, tests)
}

func TestQueryCleaner_Title(t *testing.T) {
	cleaner := NewQueryCleaner()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple title",
			input:    "Hey Jude",
			expected: "Hey Jude",
		},
		{
			name:     "Title with featuring",
			input:    "Song Title (feat. Artist)",
			expected: "Song Title",
		},
		{
			name:     "Title with remaster suffix",
			input:    "Come As You Are - Remastered 2021",
			expected: "Come As You Are",
		},
		{
			name:     "Title with year remaster",
			input:    "Hey Jude (2015 Remaster)",
			expected: "Hey Jude",
		},
		{
			name:     "Title with radio edit",
			input:    "Song Title - Radio Edit",
			expected: "Song Title",
		},
		{
			name:     "Word containing live kept",
			input:    "Alive",
			expected: "Alive",
		},
		{
			name:     "Title with multiple spaces",
			input:    "Song    Title",
			expected: "Song Title",
		},
	}

	runStringTransformationTest(t, "Title", cleaner.Title, tests)
}

func TestQueryCleaner_DurationTolerance(t *testing.T) {
	cleaner := NewQueryCleaner()

	tests := []struct {
		name     string
		d1       time.Duration
		d2       time.Duration
		expected float64
		delta    float64
	}{
		{
			name:     "Identical durations",
			d1:       3 * time.Minute,
			d2:       3 * time.Minute,
			expected: 1.0,
		},
		{
			name:     "Within tolerance",
			d1:       3 * time.Minute,
			d2:       3*time.Minute + 20*time.Second,
			expected: 1.0,
		},
		{
			name:     "Just outside tolerance",
			d1:       3 * time.Minute,
			d2:       3*time.Minute + 40*time.Second,
			expected: 0.9,
			delta:    0.1,
		},
		{
			name:     "Very different durations",
			d1:       1 * time.Minute,
			d2:       5 * time.Minute,
			expected: 0.0,
		},
		{
			name:     "Negative difference",
			d1:       4 * time.Minute,
			d2:       3 * time.Minute,
			expected: 0.667,
			delta:    0.01,
		},
		{
			name:     "Unknown duration",
			d1:       0,
			d2:       3 * time.Minute,
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cleaner.DurationTolerance(tt.d1, tt.d2)
			if abs64(result-tt.expected) > tt.delta {
				t.Errorf("DurationTolerance() = %f, want %f (±%f)", result, tt.expected, tt.delta)
			}
		})
	}
}

func BenchmarkNormalize(b *testing.B) {
	name := "The Beatles feat. John Lennon & Paul McCartney"

	b.ResetTimer()
	for range b.N {
		Normalize(name)
	}
}

func BenchmarkQueryCleaner_Title(b *testing.B) {
	cleaner := NewQueryCleaner()
	title := "Hey Jude (Remastered 2009) [feat. Orchestra] - Radio Edit"

	b.ResetTimer()
	for range b.N {
		cleaner.Title(title)
	}
}

// Helper function for floating point comparison.
func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
