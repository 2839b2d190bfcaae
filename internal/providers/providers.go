// Package providers defines the typed operation set of the generative-AI
// provider boundary. Every operation takes the credential snapshot captured at
// dispatch time plus mode-specific input, and fails only with one of the four
// classified error kinds from the domain package.
package providers

import (
	"context"

	"studio/internal/domain"
)

// ImageInput describes one image generation or edit request. The prompt is
// fully assembled by the engine before it reaches the adapter.
type ImageInput struct {
	Prompt string
	Source *domain.ImageData
}

// ImageResult is the normalized image operation payload.
type ImageResult struct {
	Images []domain.ImageData
	Text   string
}

// ProductShotInput composes several product photos, and optionally an
// inspiration shot, into one scene.
type ProductShotInput struct {
	Prompt      string
	Products    []domain.ImageData
	Inspiration *domain.ImageData
}

// SpeechInput describes one speech synthesis request.
type SpeechInput struct {
	Text  string
	Voice string
}

// AudioResult is the normalized speech payload.
type AudioResult struct {
	Bytes    []byte
	MIMEType string
}

// TranslateInput describes one translation request. Language is a BCP-47 tag.
type TranslateInput struct {
	Text     string
	Language string
}

// VideoInput describes one video generation request.
type VideoInput struct {
	Prompt string
	Source *domain.ImageData
}

// VideoOperation is the coarse-grained handle for the provider's asynchronous
// video job. Until Done, only the operation name is meaningful. Raw carries
// the adapter's own job state between polls and is opaque to callers.
type VideoOperation struct {
	Name     string
	Done     bool
	Video    []byte
	MIMEType string
	Raw      any
}

// Adapter is the full provider operation set. All operations are idempotent
// from the client's point of view: re-issuing an identical request is always a
// new generation. The video operation is split into submit and poll; the
// polling loop itself is owned by the engine.
type Adapter interface {
	GenerateImage(ctx context.Context, credential string, in ImageInput) (*ImageResult, error)
	StartVideo(ctx context.Context, credential string, in VideoInput) (*VideoOperation, error)
	PollVideo(ctx context.Context, credential string, op *VideoOperation) (*VideoOperation, error)
	AnalyzeImage(ctx context.Context, credential string, image domain.ImageData) (string, error)
	GenerateRecipe(ctx context.Context, credential string, prompt string) (*domain.Recipe, error)
	GenerateRecipeFromLink(ctx context.Context, credential string, url string) (*domain.Recipe, error)
	GenerateSpeech(ctx context.Context, credential string, in SpeechInput) (*AudioResult, error)
	GenerateProductShot(ctx context.Context, credential string, in ProductShotInput) (*ImageResult, error)
	GenerateStructuredArticle(ctx context.Context, credential string, url string) (*domain.Article, error)
	TranslateText(ctx context.Context, credential string, in TranslateInput) (string, error)
}
