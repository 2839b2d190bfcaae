// Package engine is the orchestration core: it builds effective requests from
// mode state, dispatches provider operations (several in parallel where the
// mode allows it), classifies failures, owns the video polling loop and
// applies completions back onto session state in completion order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"studio/internal/assets"
	"studio/internal/domain"
	"studio/internal/history"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/providers"
	"studio/internal/session"
	"studio/internal/storage"
)

// Config wires the engine's collaborators. All are required except
// PollInterval, which defaults to 10 seconds.
type Config struct {
	Provider     providers.Adapter
	Credentials  *credentials.Store
	Session      *session.Store
	History      *history.Log
	Blobs        *storage.FileStore
	Logger       *infra.Logger
	PollInterval time.Duration
}

// Engine is the central dispatcher. One instance lives for the session.
type Engine struct {
	provider     providers.Adapter
	creds        *credentials.Store
	session      *session.Store
	history      *history.Log
	blobs        *storage.FileStore
	registry     *assets.Registry
	logger       *infra.Logger
	pollInterval time.Duration

	// mu serializes completion application so results land in completion
	// order and slot replacement pairs with handle release.
	mu     sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// New constructs the engine.
func New(cfg Config) *Engine {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		provider:     cfg.Provider,
		creds:        cfg.Credentials,
		session:      cfg.Session,
		history:      cfg.History,
		blobs:        cfg.Blobs,
		registry:     assets.NewRegistry(),
		logger:       cfg.Logger,
		pollInterval: interval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Close tears the session down: waits for in-flight work and releases every
// live transient asset handle exactly once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	return e.registry.Close()
}

// Generate validates the mode's current inputs and dispatches the operations
// they call for. It returns immediately after dispatch; completions are
// applied to the originating mode's state whenever they arrive, even if the
// user has switched away. Guard violations and a missing credential are
// reported synchronously and nothing is dispatched.
func (e *Engine) Generate(mode domain.Mode) error {
	state := e.session.Snapshot(mode)
	if err := checkInputs(mode, state); err != nil {
		return err
	}
	credential, ok := e.creds.Get()
	if !ok {
		return domain.ErrNoCredential
	}

	e.logger.Info().Str("mode", mode.String()).Msg("engine: request building")

	switch mode {
	case domain.ModeImage:
		e.dispatchImage(credential, state)
	case domain.ModeVideo:
		e.markBusy(mode)
		e.spawn(func(ctx context.Context) { e.runVideo(ctx, credential, state) })
	case domain.ModeRecipe:
		e.markBusy(mode)
		e.spawn(func(ctx context.Context) { e.runRecipe(ctx, credential, state.Prompt) })
	case domain.ModeRecipeFromLink:
		e.markBusy(mode)
		e.spawn(func(ctx context.Context) { e.runRecipeFromLink(ctx, credential, state.SourceURL) })
	case domain.ModeRecipeCard:
		e.markBusy(mode)
		e.spawn(func(ctx context.Context) { e.runRecipeCard(ctx, credential, state.SourceURL) })
	case domain.ModeSpeech:
		e.markBusy(mode)
		e.spawn(func(ctx context.Context) { e.runSpeech(ctx, credential, state) })
	case domain.ModeProductShot:
		e.markBusy(mode)
		e.spawn(func(ctx context.Context) { e.runProductShot(ctx, credential, state) })
	case domain.ModeStructuredArticle:
		e.markBusy(mode)
		e.spawn(func(ctx context.Context) { e.runArticle(ctx, credential, state.SourceURL) })
	}
	return nil
}

// AnalyzeSource derives the contextual suggestion from image mode's source
// image. Failures are silent: the suggestion is an enhancement, not a result.
func (e *Engine) AnalyzeSource(mode domain.Mode) error {
	state := e.session.Snapshot(mode)
	if state.SourceImage == nil {
		return domain.UserInputf("no source image to analyze")
	}
	credential, ok := e.creds.Get()
	if !ok {
		return domain.ErrNoCredential
	}

	source := *state.SourceImage
	e.session.Update(mode, func(s *domain.ModeState) {
		s.IsAnalyzing = true
	})
	e.spawn(func(ctx context.Context) {
		suggestion, err := e.provider.AnalyzeImage(ctx, credential, source)
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		if err != nil {
			e.logger.Warn().Err(err).Str("mode", mode.String()).Msg("engine: source analysis failed")
			e.session.Update(mode, func(s *domain.ModeState) { s.IsAnalyzing = false })
			return
		}
		e.creds.MarkValidated()
		e.session.Update(mode, func(s *domain.ModeState) {
			s.IsAnalyzing = false
			s.Suggestion = suggestion
		})
	})
	return nil
}

// Replay reconstructs a history item's ModeState and makes its mode active.
func (e *Engine) Replay(id string) error {
	item, ok := e.history.Get(id)
	if !ok {
		return fmt.Errorf("engine: no history item %q", id)
	}
	e.session.Replace(item.Mode, history.SelectForReplay(item))
	return e.session.SwitchMode(item.Mode)
}

// ---- image mode -----------------------------------------------------------

// dispatchImage issues the main image operation and the translation
// sub-request concurrently when both have inputs. The two completions are
// independent: either may arrive first, and a failure in one leaves the
// other's result intact.
func (e *Engine) dispatchImage(credential string, state domain.ModeState) {
	wantImage := wantsImageGeneration(state)
	wantTranslation := strings.TrimSpace(state.TranslationText) != ""

	e.session.Update(domain.ModeImage, func(s *domain.ModeState) {
		s.Err = ""
		s.ErrAction = ""
		s.IsLoading = s.IsLoading || wantImage
		s.IsTranslating = s.IsTranslating || wantTranslation
	})

	if wantImage {
		prompt := AssemblePrompt(state)
		input := providers.ImageInput{Prompt: prompt, Source: state.SourceImage}
		e.logger.Info().Str("mode", "image").Str("prompt", prompt).Msg("engine: dispatched")
		e.spawn(func(ctx context.Context) {
			result, err := e.provider.GenerateImage(ctx, credential, input)
			e.settleImage(prompt, result, err)
		})
	}
	if wantTranslation {
		target := state.TargetLanguage
		if target == "" {
			target = "en"
		}
		input := providers.TranslateInput{Text: state.TranslationText, Language: target}
		e.spawn(func(ctx context.Context) {
			text, err := e.provider.TranslateText(ctx, credential, input)
			e.settleTranslation(text, err)
		})
	}
}

func (e *Engine) settleImage(prompt string, result *providers.ImageResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.fail(domain.ModeImage, err, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}

	refs, storeErr := e.storeImages(domain.ModeImage, result.Images)
	if storeErr != nil {
		e.fail(domain.ModeImage, storeErr, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}

	e.creds.MarkValidated()
	var secondary string
	e.session.Update(domain.ModeImage, func(s *domain.ModeState) {
		s.IsLoading = false
		s.Err = ""
		s.ErrAction = ""
		s.Outputs = refs
		s.OutputKind = domain.AssetImage
		secondary = s.Translation
	})
	e.appendHistory(domain.HistoryItem{
		Mode:      domain.ModeImage,
		Prompt:    prompt,
		Outputs:   refs,
		Kind:      domain.AssetImage,
		Secondary: secondary,
	})
}

func (e *Engine) settleTranslation(text string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.fail(domain.ModeImage, err, func(s *domain.ModeState) { s.IsTranslating = false })
		return
	}
	e.creds.MarkValidated()
	e.session.Update(domain.ModeImage, func(s *domain.ModeState) {
		s.IsTranslating = false
		s.Translation = text
	})
}

// ---- video mode -----------------------------------------------------------

// runVideo submits the asynchronous job and re-checks it at a fixed interval
// until the provider reports a terminal state. The loop never gives up on its
// own: completion time is the provider's to decide.
func (e *Engine) runVideo(ctx context.Context, credential string, state domain.ModeState) {
	input := providers.VideoInput{Prompt: state.Prompt, Source: state.SourceImage}
	op, err := e.provider.StartVideo(ctx, credential, input)
	if err != nil {
		e.settleBinary(domain.ModeVideo, state.Prompt, nil, "", err)
		return
	}

	for !op.Done {
		e.logger.Debug().Str("operation", op.Name).Msg("engine: video polling")
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.pollInterval):
		}
		op, err = e.provider.PollVideo(ctx, credential, op)
		if err != nil {
			e.settleBinary(domain.ModeVideo, state.Prompt, nil, "", err)
			return
		}
	}
	e.settleBinary(domain.ModeVideo, state.Prompt, op.Video, op.MIMEType, nil)
}

// ---- speech mode ----------------------------------------------------------

func (e *Engine) runSpeech(ctx context.Context, credential string, state domain.ModeState) {
	result, err := e.provider.GenerateSpeech(ctx, credential, providers.SpeechInput{
		Text:  state.Prompt,
		Voice: state.Voice,
	})
	if err != nil {
		e.settleBinary(domain.ModeSpeech, state.Prompt, nil, "", err)
		return
	}
	e.settleBinary(domain.ModeSpeech, state.Prompt, result.Bytes, result.MIMEType, nil)
}

// settleBinary applies a video or speech completion. These outputs are the
// transient ones: the slot owns the handle, replacement releases the previous
// occupant, teardown releases the rest.
func (e *Engine) settleBinary(mode domain.Mode, prompt string, data []byte, mimeType string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.fail(mode, err, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}

	kind := domain.AssetVideo
	if mode == domain.ModeSpeech {
		kind = domain.AssetAudio
	}
	key := blobKey(mode, mimeType)
	stored, storeErr := e.blobs.Write(e.ctx, key, data)
	if storeErr != nil {
		e.fail(mode, storeErr, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}
	handle := assets.NewHandle(stored, func() error { return e.blobs.Delete(stored) })
	if assignErr := e.registry.Assign(domain.MainSlot(mode), handle); assignErr != nil {
		e.logger.Error().Err(assignErr).Str("mode", mode.String()).Msg("engine: releasing superseded handle failed")
	}

	refs := []domain.AssetRef{{URI: assetURI(stored), Kind: kind}}
	e.creds.MarkValidated()
	e.session.Update(mode, func(s *domain.ModeState) {
		s.IsLoading = false
		s.Err = ""
		s.ErrAction = ""
		s.Outputs = refs
		s.OutputKind = kind
	})
	e.appendHistory(domain.HistoryItem{
		Mode:    mode,
		Prompt:  prompt,
		Outputs: refs,
		Kind:    kind,
	})
}

// ---- structured text modes ------------------------------------------------

func (e *Engine) runRecipe(ctx context.Context, credential, prompt string) {
	recipe, err := e.provider.GenerateRecipe(ctx, credential, prompt)
	e.settleRecipe(domain.ModeRecipe, prompt, "", nil, recipe, err)
}

func (e *Engine) runRecipeFromLink(ctx context.Context, credential, url string) {
	recipe, err := e.provider.GenerateRecipeFromLink(ctx, credential, url)
	e.settleRecipe(domain.ModeRecipeFromLink, "", url, nil, recipe, err)
}

// runRecipeCard extracts the linked recipe first and then renders a card
// image for it; the recipe rides along as the secondary result.
func (e *Engine) runRecipeCard(ctx context.Context, credential, url string) {
	recipe, err := e.provider.GenerateRecipeFromLink(ctx, credential, url)
	if err != nil {
		e.settleRecipe(domain.ModeRecipeCard, "", url, nil, nil, err)
		return
	}
	result, err := e.provider.GenerateImage(ctx, credential, providers.ImageInput{Prompt: recipeCardPrompt(recipe)})
	if err != nil {
		e.settleRecipe(domain.ModeRecipeCard, "", url, nil, nil, err)
		return
	}
	e.settleRecipe(domain.ModeRecipeCard, "", url, result.Images, recipe, nil)
}

func (e *Engine) settleRecipe(mode domain.Mode, prompt, url string, images []domain.ImageData, recipe *domain.Recipe, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.fail(mode, err, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}

	kind := domain.AssetText
	var refs []domain.AssetRef
	if len(images) > 0 {
		kind = domain.AssetImage
		var storeErr error
		refs, storeErr = e.storeImages(mode, images)
		if storeErr != nil {
			e.fail(mode, storeErr, func(s *domain.ModeState) { s.IsLoading = false })
			return
		}
	}

	e.creds.MarkValidated()
	e.session.Update(mode, func(s *domain.ModeState) {
		s.IsLoading = false
		s.Err = ""
		s.ErrAction = ""
		s.Outputs = refs
		s.OutputKind = kind
		s.Recipe = recipe
	})
	item := domain.HistoryItem{
		Mode:      mode,
		Prompt:    prompt,
		SourceURL: url,
		Outputs:   refs,
		Kind:      kind,
		Recipe:    recipe,
	}
	if len(refs) > 0 {
		item.CoverURI = refs[0].URI
	}
	e.appendHistory(item)
}

func (e *Engine) runArticle(ctx context.Context, credential, url string) {
	article, err := e.provider.GenerateStructuredArticle(ctx, credential, url)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.fail(domain.ModeStructuredArticle, err, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}
	e.creds.MarkValidated()
	e.session.Update(domain.ModeStructuredArticle, func(s *domain.ModeState) {
		s.IsLoading = false
		s.Err = ""
		s.ErrAction = ""
		s.OutputKind = domain.AssetText
		s.Article = article
	})
	e.appendHistory(domain.HistoryItem{
		Mode:      domain.ModeStructuredArticle,
		SourceURL: url,
		Kind:      domain.AssetText,
		Article:   article,
	})
}

// ---- product shot mode ----------------------------------------------------

func (e *Engine) runProductShot(ctx context.Context, credential string, state domain.ModeState) {
	result, err := e.provider.GenerateProductShot(ctx, credential, providers.ProductShotInput{
		Prompt:      state.Prompt,
		Products:    state.ProductImages,
		Inspiration: state.InspirationImage,
	})
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.fail(domain.ModeProductShot, err, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}
	refs, storeErr := e.storeImages(domain.ModeProductShot, result.Images)
	if storeErr != nil {
		e.fail(domain.ModeProductShot, storeErr, func(s *domain.ModeState) { s.IsLoading = false })
		return
	}
	e.creds.MarkValidated()
	e.session.Update(domain.ModeProductShot, func(s *domain.ModeState) {
		s.IsLoading = false
		s.Err = ""
		s.ErrAction = ""
		s.Outputs = refs
		s.OutputKind = domain.AssetImage
	})
	e.appendHistory(domain.HistoryItem{
		Mode:    domain.ModeProductShot,
		Prompt:  state.Prompt,
		Outputs: refs,
		Kind:    domain.AssetImage,
	})
}

// ---- shared plumbing ------------------------------------------------------

func (e *Engine) markBusy(mode domain.Mode) {
	e.session.Update(mode, func(s *domain.ModeState) {
		s.Err = ""
		s.ErrAction = ""
		s.IsLoading = true
	})
}

func (e *Engine) spawn(fn func(context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn(e.ctx)
	}()
}

// fail converts a classified error into the mode's single visible error and
// reacts to its kind. An auth/quota failure destroys the stored credential and
// offers the reselect affordance; everything else only surfaces its message.
// Inputs are never touched.
func (e *Engine) fail(mode domain.Mode, err error, clearFlags func(*domain.ModeState)) {
	message := err.Error()
	action := ""
	if errors.Is(err, domain.ErrAuthOrQuota) {
		action = domain.ActionReselectCredential
		if invErr := e.creds.Invalidate(e.ctx, message); invErr != nil {
			e.logger.Error().Err(invErr).Msg("engine: credential invalidation failed")
		}
	}
	e.logger.Warn().Err(err).Str("mode", mode.String()).Msg("engine: request settled with error")
	e.session.Update(mode, func(s *domain.ModeState) {
		clearFlags(s)
		s.Err = message
		s.ErrAction = action
	})
}

func (e *Engine) appendHistory(item domain.HistoryItem) {
	id, err := uuid.NewV7()
	if err != nil {
		e.logger.Error().Err(err).Msg("engine: history id generation failed")
		return
	}
	item.ID = id.String()
	item.CreatedAt = time.Now().UTC()
	if err := e.history.Append(e.ctx, item); err != nil {
		e.logger.Error().Err(err).Msg("engine: history append failed")
	}
}

// storeImages writes the generated images to the blob store concurrently and
// returns their asset refs. Image blobs outlive their slot so history replay
// keeps working; only video and audio blobs are handle-managed.
func (e *Engine) storeImages(mode domain.Mode, images []domain.ImageData) ([]domain.AssetRef, error) {
	refs := make([]domain.AssetRef, len(images))
	g, ctx := errgroup.WithContext(e.ctx)
	for i, img := range images {
		g.Go(func() error {
			stored, err := e.blobs.Write(ctx, blobKey(mode, img.MIMEType), img.Bytes)
			if err != nil {
				return err
			}
			refs[i] = domain.AssetRef{URI: assetURI(stored), Kind: domain.AssetImage}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.NewProviderError(domain.ErrTransientProvider, "failed to store generated assets", err)
	}
	return refs, nil
}

func blobKey(mode domain.Mode, mimeType string) string {
	return fmt.Sprintf("%s/%s%s", mode, uuid.NewString(), extensionFor(mimeType))
}

func assetURI(key string) string {
	return "/v1/assets/" + key
}

func extensionFor(mimeType string) string {
	switch {
	case mimeType == "image/png":
		return ".png"
	case mimeType == "image/jpeg":
		return ".jpg"
	case mimeType == "image/webp":
		return ".webp"
	case mimeType == "video/mp4":
		return ".mp4"
	case strings.HasPrefix(mimeType, "audio/"):
		return ".pcm"
	default:
		return ".bin"
	}
}
