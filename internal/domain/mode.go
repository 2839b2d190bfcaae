package domain

import "fmt"

// Mode identifies one generation capability. Each mode owns its own input and
// output shape; the set is closed and every dispatch site switches over it
// exhaustively.
type Mode string

const (
	ModeImage             Mode = "image"
	ModeVideo             Mode = "video"
	ModeRecipe            Mode = "recipe"
	ModeRecipeFromLink    Mode = "recipe_link"
	ModeRecipeCard        Mode = "recipe_card"
	ModeSpeech            Mode = "speech"
	ModeProductShot       Mode = "product_shot"
	ModeStructuredArticle Mode = "article"
)

// Modes lists every mode in a stable order.
func Modes() []Mode {
	return []Mode{
		ModeImage,
		ModeVideo,
		ModeRecipe,
		ModeRecipeFromLink,
		ModeRecipeCard,
		ModeSpeech,
		ModeProductShot,
		ModeStructuredArticle,
	}
}

// ParseMode validates a mode identifier coming from the UI boundary.
func ParseMode(raw string) (Mode, error) {
	m := Mode(raw)
	switch m {
	case ModeImage, ModeVideo, ModeRecipe, ModeRecipeFromLink, ModeRecipeCard,
		ModeSpeech, ModeProductShot, ModeStructuredArticle:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", raw)
}

func (m Mode) String() string {
	return string(m)
}

// OutputKind distinguishes the result slots a mode can write to. The main slot
// holds the primary generation; the translation slot exists for image mode's
// independent translation sub-request.
type OutputKind string

const (
	OutputMain        OutputKind = "main"
	OutputTranslation OutputKind = "translation"
)

// Slot is the (mode, output-kind) address a completed generation is applied to.
type Slot struct {
	Mode   Mode
	Output OutputKind
}

// MainSlot returns the primary output slot for a mode.
func MainSlot(m Mode) Slot {
	return Slot{Mode: m, Output: OutputMain}
}

// TranslationSlot returns image mode's secondary text slot.
func TranslationSlot(m Mode) Slot {
	return Slot{Mode: m, Output: OutputTranslation}
}
