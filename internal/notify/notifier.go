// Package notify delivers rendered submissions to a remote party. Every
// transport makes exactly one attempt; callers decide what a failure means.
package notify

import (
	"context"
	"errors"
	"os"

	"github.com/parisxmas/vacancyform/internal/models"
)

// ErrAuthentication is wrapped by transports when the remote side rejects
// the supplied credential.
var ErrAuthentication = errors.New("authentication failed")

// Credential is supplied per delivery and never stored by a Notifier.
type Credential struct {
	Username string `json:"username,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

// Merge fills blank parts of c from other.
func (c Credential) Merge(other Credential) Credential {
	if c.Username == "" {
		c.Username = other.Username
	}
	if c.Secret == "" {
		c.Secret = other.Secret
	}
	return c
}

// Notifier sends a rendered submission to a fixed destination.
type Notifier interface {
	Name() string
	Deliver(ctx context.Context, doc *models.RenderedDocument, rec *models.Record, cred Credential) error
}

// EnvCredential reads a credential from the environment at call time, so the
// secret is never held by the process beyond one delivery.
type EnvCredential struct {
	UsernameVar string
	SecretVar   string
}

func (e EnvCredential) Credential() Credential {
	var c Credential
	if e.UsernameVar != "" {
		c.Username = os.Getenv(e.UsernameVar)
	}
	if e.SecretVar != "" {
		c.Secret = os.Getenv(e.SecretVar)
	}
	return c
}
