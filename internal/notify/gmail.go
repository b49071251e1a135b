package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/parisxmas/vacancyform/internal/models"
)

// Gmail sends the same message as SMTP through the Gmail API. The credential
// secret is an OAuth2 access token for the sending account.
type Gmail struct {
	endpoint string
	composer *Composer
}

// NewGmail uses the public Gmail endpoint when endpoint is empty.
func NewGmail(endpoint string, composer *Composer) *Gmail {
	return &Gmail{endpoint: endpoint, composer: composer}
}

func (n *Gmail) Name() string { return "gmail" }

func (n *Gmail) Deliver(ctx context.Context, doc *models.RenderedDocument, rec *models.Record, cred Credential) error {
	if cred.Secret == "" {
		return fmt.Errorf("%w: no access token", ErrAuthentication)
	}
	from := cred.Username
	if from == "" {
		from = n.composer.Sender(rec)
	}

	var raw bytes.Buffer
	if _, err := n.composer.Message(doc, rec, from).WriteTo(&raw); err != nil {
		return fmt.Errorf("gmail: build message: %w", err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Secret}))
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if n.endpoint != "" {
		opts = append(opts, option.WithEndpoint(n.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("gmail: create service: %w", err)
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw.Bytes())}
	if _, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && (gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden) {
			return fmt.Errorf("%w: %s", ErrAuthentication, gErr.Message)
		}
		return fmt.Errorf("gmail: send: %w", err)
	}
	return nil
}
