package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
)

type imagePayload struct {
	DataBase64 string `json:"data_base64"`
	MIMEType   string `json:"mime_type"`
}

func (p *imagePayload) decode() (*domain.ImageData, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(p.DataBase64)
	if err != nil {
		return nil, err
	}
	return &domain.ImageData{Bytes: raw, MIMEType: p.MIMEType}, nil
}

// modePatchRequest carries a partial update. Pointer fields distinguish "not
// sent" from "set to the zero value"; only the fields present in the payload
// are merged into the committed state.
type modePatchRequest struct {
	Prompt           *string         `json:"prompt"`
	SourceURL        *string         `json:"source_url"`
	SourceImage      *imagePayload   `json:"source_image"`
	ProductImages    *[]imagePayload `json:"product_images"`
	InspirationImage *imagePayload   `json:"inspiration_image"`
	AddPerson        *bool           `json:"add_person"`
	RemoveText       *bool           `json:"remove_text"`
	Similarity       *int            `json:"similarity"`
	TranslationText  *string         `json:"translation_text"`
	TargetLanguage   *string         `json:"target_language"`
	Voice            *string         `json:"voice"`
}

// ModeView returns one mode's committed state.
func (a *App) ModeView(w http.ResponseWriter, r *http.Request) {
	mode, ok := a.parseMode(w, chi.URLParam(r, "mode"))
	if !ok {
		return
	}
	a.json(w, http.StatusOK, a.Session.Snapshot(mode))
}

// ModePatch merges input changes into one mode's state. Updating an inactive
// mode is legal and never disturbs the others. Replacing the source image in
// image mode drops the cached suggestion and kicks off a fresh analysis.
func (a *App) ModePatch(w http.ResponseWriter, r *http.Request) {
	mode, ok := a.parseMode(w, chi.URLParam(r, "mode"))
	if !ok {
		return
	}
	var req modePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Similarity != nil && !domain.Similarity(*req.Similarity).Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "similarity must be one of 25, 50, 75 or 100")
		return
	}

	source, err := req.SourceImage.decode()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "source_image is not valid base64")
		return
	}
	inspiration, err := req.InspirationImage.decode()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "inspiration_image is not valid base64")
		return
	}
	var products []domain.ImageData
	if req.ProductImages != nil {
		for _, p := range *req.ProductImages {
			img, err := p.decode()
			if err != nil {
				a.error(w, http.StatusBadRequest, "bad_request", "product_images entry is not valid base64")
				return
			}
			products = append(products, *img)
		}
	}

	a.Session.Update(mode, func(s *domain.ModeState) {
		if req.Prompt != nil {
			s.Prompt = *req.Prompt
		}
		if req.SourceURL != nil {
			s.SourceURL = *req.SourceURL
		}
		if req.SourceImage != nil {
			s.SourceImage = source
			s.Suggestion = ""
		}
		if req.ProductImages != nil {
			s.ProductImages = products
		}
		if req.InspirationImage != nil {
			s.InspirationImage = inspiration
		}
		if req.AddPerson != nil {
			s.AddPerson = *req.AddPerson
		}
		if req.RemoveText != nil {
			s.RemoveText = *req.RemoveText
		}
		if req.Similarity != nil {
			s.Similarity = domain.Similarity(*req.Similarity)
		}
		if req.TranslationText != nil {
			s.TranslationText = *req.TranslationText
		}
		if req.TargetLanguage != nil {
			s.TargetLanguage = *req.TargetLanguage
		}
		if req.Voice != nil {
			s.Voice = *req.Voice
		}
	})

	if mode == domain.ModeImage && req.SourceImage != nil && source != nil {
		// Best effort; the suggestion is an enhancement and a failure here
		// must not block the edit flow.
		if err := a.Engine.AnalyzeSource(mode); err != nil {
			a.Logger.Debug().Err(err).Msg("http: source analysis not started")
		}
	}

	a.json(w, http.StatusOK, a.Session.Snapshot(mode))
}

// ModeGenerate dispatches one mode's generation. The response is the state as
// of dispatch; completions land asynchronously and are observed via the mode
// view.
func (a *App) ModeGenerate(w http.ResponseWriter, r *http.Request) {
	mode, ok := a.parseMode(w, chi.URLParam(r, "mode"))
	if !ok {
		return
	}
	if err := a.Engine.Generate(mode); err != nil {
		a.engineError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, a.Session.Snapshot(mode))
}

// ModeAnalyze re-runs the source image analysis on demand.
func (a *App) ModeAnalyze(w http.ResponseWriter, r *http.Request) {
	mode, ok := a.parseMode(w, chi.URLParam(r, "mode"))
	if !ok {
		return
	}
	if err := a.Engine.AnalyzeSource(mode); err != nil {
		a.engineError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, a.Session.Snapshot(mode))
}
