package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// ATTENTIONHUB_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set ATTENTIONHUB_SECRET_KEY")

// CredentialStore defines the driven port for encrypted credential persistence.
// The adapter encrypts and decrypts; this interface deals in plaintext.
type CredentialStore interface {
	// Set stores or replaces the credential for the service.
	Set(ctx context.Context, service, plaintext string) error

	// Get returns the plaintext credential, or ("", nil) if none is stored.
	Get(ctx context.Context, service string) (string, error)

	// List returns all stored credentials with decrypted values.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete removes the credential for the service.
	Delete(ctx context.Context, service string) error
}
