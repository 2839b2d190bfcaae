package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"studio/internal/domain"
)

// personFallbackPhrases is the fixed pool used for the person-addition clause
// when no contextual suggestion has been cached. Membership of this pool is a
// contract; tests enumerate it.
var personFallbackPhrases = []string{
	"add a person casually enjoying the scene",
	"add a smiling person interacting naturally with the surroundings",
	"add a passerby who blends into the setting",
	"add a person posing candidly for the camera",
}

// similarityClauses maps each of the four similarity bands to its fixed
// instruction string. The wording is a contract with downstream tests; no
// freeform text is ever produced for a band.
var similarityClauses = map[domain.Similarity]string{
	domain.SimilarityLoose: ", apply the changes described, and feel free to radically reimagine the original image",
	domain.SimilarityHalf:  ", apply the changes described, but feel free to creatively reinterpret the original image",
	domain.SimilarityClose: ", apply the changes described, while keeping the overall composition of the original image",
	domain.SimilarityExact: ", apply only the changes described, keeping everything else in the original image unchanged",
}

const removeTextClause = ", remove all text, captions and watermarks from the image"

// AssemblePrompt builds the effective image-mode prompt. Clauses are appended
// in fixed order: person addition, text removal, similarity band. The person
// clause uses the cached contextual suggestion when present and otherwise a
// pseudo-random member of the fixed fallback pool.
func AssemblePrompt(state domain.ModeState) string {
	var b strings.Builder
	b.WriteString(state.Prompt)

	if state.AddPerson {
		phrase := strings.TrimSpace(state.Suggestion)
		if phrase == "" {
			phrase = personFallbackPhrases[rand.IntN(len(personFallbackPhrases))]
		}
		b.WriteString(", ")
		b.WriteString(phrase)
	}

	if state.RemoveText {
		b.WriteString(removeTextClause)
	}

	if clause, ok := similarityClauses[state.Similarity]; ok {
		b.WriteString(clause)
	}

	return b.String()
}

// recipeCardPrompt describes the card image generated for a recipe in card
// mode.
func recipeCardPrompt(recipe *domain.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A beautifully styled recipe card for %q.", recipe.Title)
	if recipe.Description != "" {
		b.WriteString(" ")
		b.WriteString(recipe.Description)
	}
	b.WriteString(" Clean layout, readable typography, the finished dish photographed from above,")
	b.WriteString(" ingredient list and numbered steps legible on the card.")
	return b.String()
}
