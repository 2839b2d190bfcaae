package domain

// ImageData carries raw bytes plus their declared content type across the
// clipboard/file boundary. It is opaque to everything but the provider adapter
// and the blob store.
type ImageData struct {
	Bytes    []byte `json:"bytes"`
	MIMEType string `json:"mimeType"`
}

// AssetKind tags the payload class of a generation output.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
	AssetAudio AssetKind = "audio"
	AssetText  AssetKind = "text"
)

// AssetRef points at one generated output. URIs address the local asset
// endpoint, never the provider.
type AssetRef struct {
	URI  string    `json:"uri"`
	Kind AssetKind `json:"kind"`
}

// Similarity selects how closely an image edit must track the source image.
// Zero means unset; the only legal set values are the four bands.
type Similarity int

const (
	SimilarityUnset Similarity = 0
	SimilarityLoose Similarity = 25
	SimilarityHalf  Similarity = 50
	SimilarityClose Similarity = 75
	SimilarityExact Similarity = 100
)

// Valid reports whether s is unset or one of the four bands.
func (s Similarity) Valid() bool {
	switch s {
	case SimilarityUnset, SimilarityLoose, SimilarityHalf, SimilarityClose, SimilarityExact:
		return true
	}
	return false
}

// ModeState is the full per-mode record. Exactly one mode is active at a time,
// but every mode keeps its committed state while inactive, and an operation
// started while a mode was active still settles into that mode's record.
type ModeState struct {
	Prompt           string      `json:"prompt"`
	SourceURL        string      `json:"sourceUrl,omitempty"`
	SourceImage      *ImageData  `json:"sourceImage,omitempty"`
	ProductImages    []ImageData `json:"productImages,omitempty"`
	InspirationImage *ImageData  `json:"inspirationImage,omitempty"`

	AddPerson       bool       `json:"addPerson,omitempty"`
	RemoveText      bool       `json:"removeText,omitempty"`
	Similarity      Similarity `json:"similarity,omitempty"`
	TranslationText string     `json:"translationText,omitempty"`
	TargetLanguage  string     `json:"targetLanguage,omitempty"`
	Voice           string     `json:"voice,omitempty"`

	Outputs     []AssetRef `json:"outputs,omitempty"`
	OutputKind  AssetKind  `json:"outputKind,omitempty"`
	Translation string     `json:"translation,omitempty"`
	Recipe      *Recipe    `json:"recipe,omitempty"`
	Article     *Article   `json:"article,omitempty"`

	// Suggestion is the cached contextual suggestion derived from the source
	// image. Ephemeral: never persisted, never replayed.
	Suggestion string `json:"suggestion,omitempty"`

	IsLoading     bool `json:"isLoading"`
	IsAnalyzing   bool `json:"isAnalyzing"`
	IsTranslating bool `json:"isTranslating"`

	// Err holds the single user-displayable error for this mode, replaced
	// wholesale on each new attempt. ErrAction optionally names a structured
	// recovery affordance understood by the UI.
	Err       string `json:"error,omitempty"`
	ErrAction string `json:"errorAction,omitempty"`
}

// ActionReselectCredential asks the UI to route the user back to credential
// selection after a provider rejection.
const ActionReselectCredential = "reselect_credential"

// CredentialStatus is the read-only credential view exposed to the UI.
// Validity is optimistic: it is only known after a call succeeds or fails.
type CredentialStatus struct {
	Present   bool `json:"present"`
	Validated bool `json:"validated"`
}
