package engine

import (
	"net/url"
	"strings"

	"studio/internal/domain"
)

// checkInputs enforces the per-mode minimum-input rules. A request that fails
// here is never dispatched; the inputs stay as they are for correction.
func checkInputs(mode domain.Mode, state domain.ModeState) error {
	switch mode {
	case domain.ModeImage:
		if !state.Similarity.Valid() {
			return domain.UserInputf("similarity must be one of 25, 50, 75 or 100")
		}
		if wantsImageGeneration(state) || strings.TrimSpace(state.TranslationText) != "" {
			return nil
		}
		return domain.UserInputf("enter a prompt, upload an image with an edit selected, or enter text to translate")

	case domain.ModeVideo:
		if strings.TrimSpace(state.Prompt) != "" || state.SourceImage != nil {
			return nil
		}
		return domain.UserInputf("enter a prompt or upload a starting image")

	case domain.ModeRecipe:
		if strings.TrimSpace(state.Prompt) != "" {
			return nil
		}
		return domain.UserInputf("describe the dish to generate a recipe for")

	case domain.ModeRecipeFromLink, domain.ModeRecipeCard, domain.ModeStructuredArticle:
		return checkURL(state.SourceURL)

	case domain.ModeSpeech:
		if strings.TrimSpace(state.Prompt) != "" {
			return nil
		}
		return domain.UserInputf("enter text to speak")

	case domain.ModeProductShot:
		if len(state.ProductImages) > 0 {
			return nil
		}
		return domain.UserInputf("upload at least one product image")
	}
	return domain.UserInputf("unknown mode %q", mode)
}

// wantsImageGeneration reports whether image mode's inputs call for the main
// image operation (as opposed to only the translation sub-request).
func wantsImageGeneration(state domain.ModeState) bool {
	if strings.TrimSpace(state.Prompt) != "" {
		return true
	}
	if state.SourceImage == nil {
		return false
	}
	return state.AddPerson || state.RemoveText || state.Similarity != domain.SimilarityUnset
}

func checkURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.UserInputf("enter a link")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domain.UserInputf("%q is not a valid link", raw)
	}
	return nil
}
