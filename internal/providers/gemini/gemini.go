// Package gemini implements the provider boundary on top of the official
// Gemini Go SDK. One adapter serves every operation; clients are cached per
// credential snapshot so an in-flight request keeps the key it was dispatched
// with even after the store forgets it.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/genai"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/providers"
)

// Options controls which models serve each operation family.
type Options struct {
	ImageModel  string
	VideoModel  string
	TextModel   string
	SpeechModel string
	Logger      *infra.Logger
}

// Adapter is the concrete provider adapter.
type Adapter struct {
	opts   Options
	logger *infra.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client
}

var _ providers.Adapter = (*Adapter)(nil)

// DefaultVoice is used when the speech input does not name one.
const DefaultVoice = "Kore"

// New constructs the adapter. Missing model names fall back to current
// defaults so a zero Options is usable in tests.
func New(opts Options) *Adapter {
	if opts.ImageModel == "" {
		opts.ImageModel = "gemini-2.5-flash-image"
	}
	if opts.VideoModel == "" {
		opts.VideoModel = "veo-3.0-generate-001"
	}
	if opts.TextModel == "" {
		opts.TextModel = "gemini-2.5-flash"
	}
	if opts.SpeechModel == "" {
		opts.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	return &Adapter{
		opts:    opts,
		logger:  opts.Logger,
		clients: make(map[string]*genai.Client),
	}
}

func (a *Adapter) client(ctx context.Context, credential string) (*genai.Client, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, domain.NewProviderError(domain.ErrAuthOrQuota, "no API key supplied", nil)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.clients[credential]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, providers.Classify(err)
	}
	a.clients[credential] = c
	return c, nil
}

// GenerateImage creates or edits an image. When a source image is present the
// call is an edit: the source precedes the instruction in the content parts.
func (a *Adapter) GenerateImage(ctx context.Context, credential string, in providers.ImageInput) (*providers.ImageResult, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, 2)
	if in.Source != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: in.Source.Bytes, MIMEType: in.Source.MIMEType},
		})
	}
	parts = append(parts, &genai.Part{Text: in.Prompt})

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	result, err := client.Models.GenerateContent(ctx, a.opts.ImageModel, []*genai.Content{{Parts: parts}}, config)
	if err != nil {
		return nil, providers.Classify(err)
	}
	return imageResult(result)
}

// GenerateProductShot composes the product photos, and optionally an
// inspiration shot, into a single scene.
func (a *Adapter) GenerateProductShot(ctx context.Context, credential string, in providers.ProductShotInput) (*providers.ImageResult, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(in.Products)+2)
	for _, img := range in.Products {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Bytes, MIMEType: img.MIMEType},
		})
	}
	if in.Inspiration != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: in.Inspiration.Bytes, MIMEType: in.Inspiration.MIMEType},
		})
	}
	parts = append(parts, &genai.Part{Text: in.Prompt})

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	result, err := client.Models.GenerateContent(ctx, a.opts.ImageModel, []*genai.Content{{Parts: parts}}, config)
	if err != nil {
		return nil, providers.Classify(err)
	}
	return imageResult(result)
}

// AnalyzeImage returns a one-phrase description of a person who would fit the
// scene, used as the contextual suggestion for prompt assembly.
func (a *Adapter) AnalyzeImage(ctx context.Context, credential string, image domain.ImageData) (string, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{Parts: []*genai.Part{
		{InlineData: &genai.Blob{Data: image.Bytes, MIMEType: image.MIMEType}},
		{Text: "Look at this scene and suggest, in one short phrase starting with a verb, " +
			"a person to add so they fit naturally. Example: \"add a cyclist resting beside the bench\". " +
			"Answer with the phrase only."},
	}}}
	result, err := client.Models.GenerateContent(ctx, a.opts.TextModel, contents, nil)
	if err != nil {
		return "", providers.Classify(err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", providers.EmptyResult("the model returned no suggestion")
	}
	return text, nil
}

// TranslateText translates into the BCP-47 target language.
func (a *Adapter) TranslateText(ctx context.Context, credential string, in providers.TranslateInput) (string, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return "", err
	}

	target, err := languageName(in.Language)
	if err != nil {
		return "", domain.NewProviderError(domain.ErrUserInput, fmt.Sprintf("unknown target language %q", in.Language), err)
	}

	prompt := fmt.Sprintf("Translate the following text to %s. Respond with the translation only.\n\n%s", target, in.Text)
	result, err := client.Models.GenerateContent(ctx, a.opts.TextModel, genai.Text(prompt), nil)
	if err != nil {
		return "", providers.Classify(err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", providers.EmptyResult("the model returned no translation")
	}
	return text, nil
}

// GenerateRecipe extracts a structured recipe from a free-text description.
func (a *Adapter) GenerateRecipe(ctx context.Context, credential string, prompt string) (*domain.Recipe, error) {
	instruction := "Write a complete recipe for the following request.\n\n" + prompt
	return a.structuredRecipe(ctx, credential, instruction, nil)
}

// GenerateRecipeFromLink extracts the recipe published at the given URL. A
// page with no extractable recipe is a user-input failure, not a provider one.
func (a *Adapter) GenerateRecipeFromLink(ctx context.Context, credential string, url string) (*domain.Recipe, error) {
	instruction := "Extract the recipe published at " + url + ". " +
		"If the page does not contain a recipe, return an object with an empty title."
	tools := []*genai.Tool{{URLContext: &genai.URLContext{}}}
	recipe, err := a.structuredRecipe(ctx, credential, instruction, tools)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(recipe.Title) == "" || len(recipe.Ingredients) == 0 {
		return nil, domain.NewProviderError(domain.ErrUserInput, "no extractable recipe found at "+url, nil)
	}
	return recipe, nil
}

func (a *Adapter) structuredRecipe(ctx context.Context, credential, instruction string, tools []*genai.Tool) (*domain.Recipe, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Tools:            tools,
	}
	if tools == nil {
		// Schema-constrained output and tools are mutually exclusive; the
		// link path relies on the instruction plus the JSON MIME type.
		config.ResponseSchema = recipeSchema
	} else {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: recipeShapeInstruction}}}
	}

	result, err := client.Models.GenerateContent(ctx, a.opts.TextModel, genai.Text(instruction), config)
	if err != nil {
		return nil, providers.Classify(err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, providers.EmptyResult("the model returned no recipe")
	}
	var recipe domain.Recipe
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &recipe); err != nil {
		return nil, domain.NewProviderError(domain.ErrEmptyResult, "the model returned malformed recipe data", err)
	}
	return &recipe, nil
}

// GenerateStructuredArticle writes a structured article about the page at the
// given URL.
func (a *Adapter) GenerateStructuredArticle(ctx context.Context, credential string, url string) (*domain.Article, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	instruction := "Read the page at " + url + " and write a well-structured article about it."
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		Tools:             []*genai.Tool{{URLContext: &genai.URLContext{}}},
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: articleShapeInstruction}}},
	}
	result, err := client.Models.GenerateContent(ctx, a.opts.TextModel, genai.Text(instruction), config)
	if err != nil {
		return nil, providers.Classify(err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, providers.EmptyResult("the model returned no article")
	}
	var article domain.Article
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &article); err != nil {
		return nil, domain.NewProviderError(domain.ErrEmptyResult, "the model returned malformed article data", err)
	}
	if strings.TrimSpace(article.Title) == "" {
		return nil, domain.NewProviderError(domain.ErrUserInput, "no readable content found at "+url, nil)
	}
	return &article, nil
}

// GenerateSpeech synthesizes the text with a prebuilt voice.
func (a *Adapter) GenerateSpeech(ctx context.Context, credential string, in providers.SpeechInput) (*providers.AudioResult, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	voice := in.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	result, err := client.Models.GenerateContent(ctx, a.opts.SpeechModel, genai.Text(in.Text), config)
	if err != nil {
		return nil, providers.Classify(err)
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "audio/L16;codec=pcm;rate=24000"
				}
				return &providers.AudioResult{Bytes: part.InlineData.Data, MIMEType: mime}, nil
			}
		}
	}
	return nil, providers.EmptyResult("the model returned no audio")
}

// StartVideo submits the asynchronous video job and returns its handle.
func (a *Adapter) StartVideo(ctx context.Context, credential string, in providers.VideoInput) (*providers.VideoOperation, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	var image *genai.Image
	if in.Source != nil {
		image = &genai.Image{ImageBytes: in.Source.Bytes, MIMEType: in.Source.MIMEType}
	}
	op, err := client.Models.GenerateVideos(ctx, a.opts.VideoModel, in.Prompt, image, nil)
	if err != nil {
		return nil, providers.Classify(err)
	}
	return a.videoOperation(ctx, client, op)
}

// PollVideo re-checks the job once. The caller owns the polling cadence.
func (a *Adapter) PollVideo(ctx context.Context, credential string, op *providers.VideoOperation) (*providers.VideoOperation, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return nil, err
	}
	raw, ok := op.Raw.(*genai.GenerateVideosOperation)
	if !ok {
		return nil, domain.NewProviderError(domain.ErrTransientProvider, "video operation handle is no longer valid", nil)
	}
	updated, err := client.Operations.GetVideosOperation(ctx, raw, nil)
	if err != nil {
		return nil, providers.Classify(err)
	}
	return a.videoOperation(ctx, client, updated)
}

func (a *Adapter) videoOperation(ctx context.Context, client *genai.Client, op *genai.GenerateVideosOperation) (*providers.VideoOperation, error) {
	out := &providers.VideoOperation{Name: op.Name, Done: op.Done, Raw: op}
	if !op.Done {
		return out, nil
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, providers.EmptyResult("video generation finished without producing a video")
	}
	video := op.Response.GeneratedVideos[0].Video
	if video == nil {
		return nil, providers.EmptyResult("video generation finished without producing a video")
	}
	if len(video.VideoBytes) == 0 {
		if _, err := client.Files.Download(ctx, video, nil); err != nil {
			return nil, providers.Classify(err)
		}
	}
	if len(video.VideoBytes) == 0 {
		return nil, providers.EmptyResult("the generated video could not be downloaded")
	}
	out.Video = video.VideoBytes
	out.MIMEType = video.MIMEType
	if out.MIMEType == "" {
		out.MIMEType = "video/mp4"
	}
	return out, nil
}

func imageResult(result *genai.GenerateContentResponse) (*providers.ImageResult, error) {
	out := &providers.ImageResult{}
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				out.Text += part.Text
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				out.Images = append(out.Images, domain.ImageData{
					Bytes:    part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				})
			}
		}
	}
	if len(out.Images) == 0 {
		return nil, providers.EmptyResult("the model returned no images")
	}
	return out, nil
}

// languageName renders a BCP-47 tag as its English display name, which is what
// the model is prompted with.
func languageName(tag string) (string, error) {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", err
	}
	return display.English.Languages().Name(parsed), nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

const recipeShapeInstruction = `Respond with a single JSON object of this shape:
{"title": string, "description": string, "servings": string, "ingredients": [string], "steps": [string]}`

const articleShapeInstruction = `Respond with a single JSON object of this shape:
{"title": string, "summary": string, "sections": [{"heading": string, "body": string}], "tags": [string]}`

var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"servings":    {Type: genai.TypeString},
		"ingredients": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"steps":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"title", "ingredients", "steps"},
}
