package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/storage"
)

const kvKeyCredential = "credential"

// NoticeKind distinguishes why the credential disappeared.
type NoticeKind string

const (
	// NoticeCleared: the user removed the key themselves.
	NoticeCleared NoticeKind = "cleared"
	// NoticeRevoked: the engine destroyed the key after the provider rejected
	// it with an auth/quota failure.
	NoticeRevoked NoticeKind = "revoked"
)

// Notice is the user-facing message surfaced after the credential is removed.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Store owns the current credential's presence and optimistic validity. The
// secret is persisted only in the process's durable local store; every write
// and delete is synchronous from the caller's perspective.
type Store struct {
	mu        sync.Mutex
	kv        *storage.KV
	logger    *infra.Logger
	secret    string
	validated bool
	notice    *Notice
}

// NewStore loads any persisted credential and returns the store.
func NewStore(ctx context.Context, kv *storage.KV, logger *infra.Logger) (*Store, error) {
	s := &Store{kv: kv, logger: logger}
	value, ok, err := kv.Get(ctx, kvKeyCredential)
	if err != nil {
		return nil, err
	}
	if ok {
		s.secret = strings.TrimSpace(string(value))
	}
	return s, nil
}

// Get returns a snapshot of the secret and whether one is present. In-flight
// requests hold the snapshot they dispatched with; later invalidation does not
// retroactively fail them.
func (s *Store) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret, s.secret != ""
}

// Save stores a new secret, clears any pending notice and persists the secret
// before returning.
func (s *Store) Save(ctx context.Context, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("credentials: secret is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(ctx, kvKeyCredential, []byte(secret)); err != nil {
		return err
	}
	s.secret = secret
	s.validated = false
	s.notice = nil
	s.logger.Info().Msg("credentials: key saved")
	return nil
}

// Clear forgets the secret at the user's request and purges the durable copy.
func (s *Store) Clear(ctx context.Context) error {
	return s.remove(ctx, &Notice{
		Kind:    NoticeCleared,
		Message: "API key removed.",
	})
}

// Invalidate has the same effect as Clear but is triggered by the engine when
// a provider call fails with an auth/quota error. The notice tells the user
// the provider rejected the key, as opposed to them having cleared it.
func (s *Store) Invalidate(ctx context.Context, reason string) error {
	message := "API key was rejected by the provider. Select a different key to continue."
	if reason = strings.TrimSpace(reason); reason != "" {
		message = "API key was rejected by the provider: " + reason
	}
	s.logger.Warn().Str("reason", reason).Msg("credentials: key invalidated after provider rejection")
	return s.remove(ctx, &Notice{Kind: NoticeRevoked, Message: message})
}

func (s *Store) remove(ctx context.Context, notice *Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, kvKeyCredential); err != nil {
		return err
	}
	s.secret = ""
	s.validated = false
	s.notice = notice
	return nil
}

// MarkValidated records that a provider call succeeded with the current key.
func (s *Store) MarkValidated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secret != "" {
		s.validated = true
	}
}

// Status returns the read-only view exposed to the UI.
func (s *Store) Status() domain.CredentialStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CredentialStatus{
		Present:   s.secret != "",
		Validated: s.validated,
	}
}

// Notice returns the pending removal notice, if any. It stays visible until a
// new key is saved.
func (s *Store) Notice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}
