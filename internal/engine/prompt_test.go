package engine

import (
	"strings"
	"testing"

	"studio/internal/domain"
)

func TestAssemblePromptSimilarityBands(t *testing.T) {
	cases := []struct {
		name       string
		similarity domain.Similarity
		want       string
	}{
		{
			name:       "unset adds no clause",
			similarity: domain.SimilarityUnset,
			want:       "a red bicycle",
		},
		{
			name:       "band 25",
			similarity: domain.SimilarityLoose,
			want:       "a red bicycle, apply the changes described, and feel free to radically reimagine the original image",
		},
		{
			name:       "band 50",
			similarity: domain.SimilarityHalf,
			want:       "a red bicycle, apply the changes described, but feel free to creatively reinterpret the original image",
		},
		{
			name:       "band 75",
			similarity: domain.SimilarityClose,
			want:       "a red bicycle, apply the changes described, while keeping the overall composition of the original image",
		},
		{
			name:       "band 100",
			similarity: domain.SimilarityExact,
			want:       "a red bicycle, apply only the changes described, keeping everything else in the original image unchanged",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AssemblePrompt(domain.ModeState{Prompt: "a red bicycle", Similarity: tc.similarity})
			if got != tc.want {
				t.Fatalf("AssemblePrompt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAssemblePromptPersonUsesSuggestion(t *testing.T) {
	got := AssemblePrompt(domain.ModeState{
		Prompt:     "a quiet street",
		AddPerson:  true,
		Suggestion: "add a cyclist waiting at the crossing",
	})
	want := "a quiet street, add a cyclist waiting at the crossing"
	if got != want {
		t.Fatalf("AssemblePrompt = %q, want %q", got, want)
	}
}

func TestAssemblePromptPersonFallbackPool(t *testing.T) {
	pool := make(map[string]bool, len(personFallbackPhrases))
	for _, p := range personFallbackPhrases {
		pool[", "+p] = true
	}

	// No suggestion cached: the clause must come from the fixed pool, every
	// time. Run enough rounds to touch more than one member.
	for i := 0; i < 50; i++ {
		got := AssemblePrompt(domain.ModeState{Prompt: "a quiet street", AddPerson: true})
		clause := strings.TrimPrefix(got, "a quiet street")
		if !pool[clause] {
			t.Fatalf("person clause %q is not in the fallback pool", clause)
		}
	}
}

func TestAssemblePromptClauseOrder(t *testing.T) {
	got := AssemblePrompt(domain.ModeState{
		Prompt:     "a beach cafe",
		AddPerson:  true,
		Suggestion: "add a surfer carrying a board",
		RemoveText: true,
		Similarity: domain.SimilarityClose,
	})
	want := "a beach cafe" +
		", add a surfer carrying a board" +
		", remove all text, captions and watermarks from the image" +
		", apply the changes described, while keeping the overall composition of the original image"
	if got != want {
		t.Fatalf("AssemblePrompt = %q, want %q", got, want)
	}
}

func TestRecipeCardPromptMentionsTitle(t *testing.T) {
	got := recipeCardPrompt(&domain.Recipe{Title: "Shakshuka", Description: "Eggs poached in spiced tomato sauce."})
	if !strings.Contains(got, `"Shakshuka"`) {
		t.Fatalf("recipeCardPrompt = %q, want the title quoted in it", got)
	}
	if !strings.Contains(got, "Eggs poached in spiced tomato sauce.") {
		t.Fatalf("recipeCardPrompt = %q, want the description in it", got)
	}
}
