package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/parisxmas/vacancyform/internal/models"
)

const (
	defaultGraphURL = "https://graph.microsoft.com/v1.0"
	graphScope      = "https://graph.microsoft.com/.default"
)

// SharePoint uploads the document into a document library folder through
// Microsoft Graph. The credential secret is the app registration's client
// secret.
type SharePoint struct {
	graphURL string
	tokenURL string
	clientID string
	siteID   string
	folder   string
}

// NewSharePoint derives the token URL from tenantID unless tokenURL is set.
func NewSharePoint(graphURL, tokenURL, tenantID, clientID, siteID, folder string) *SharePoint {
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID)
	}
	return &SharePoint{
		graphURL: strings.TrimRight(graphURL, "/"),
		tokenURL: tokenURL,
		clientID: clientID,
		siteID:   siteID,
		folder:   strings.Trim(folder, "/"),
	}
}

func (n *SharePoint) Name() string { return "sharepoint" }

func (n *SharePoint) Deliver(ctx context.Context, doc *models.RenderedDocument, rec *models.Record, cred Credential) error {
	if cred.Secret == "" {
		return fmt.Errorf("%w: no client secret", ErrAuthentication)
	}
	clientID := n.clientID
	if cred.Username != "" {
		clientID = cred.Username
	}
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: cred.Secret,
		TokenURL:     n.tokenURL,
		Scopes:       []string{graphScope},
	}
	client := cc.Client(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, n.uploadURL(doc.FileName), bytes.NewReader(doc.Data))
	if err != nil {
		return fmt.Errorf("sharepoint: build request: %w", err)
	}
	req.Header.Set("Content-Type", doc.ContentType)
	resp, err := client.Do(req)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			return fmt.Errorf("%w: token request rejected: %s", ErrAuthentication, rErr.ErrorCode)
		}
		return fmt.Errorf("sharepoint: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}
	return remoteError("sharepoint", resp)
}

func (n *SharePoint) uploadURL(fileName string) string {
	p := path.Join(n.folder, fileName)
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/sites/%s/drive/root:/%s:/content", n.graphURL, url.PathEscape(n.siteID), strings.Join(segments, "/"))
}

// remoteError maps an unexpected HTTP response to an error, wrapping
// ErrAuthentication for 401 and 403.
func remoteError(service string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s returned %d", ErrAuthentication, service, resp.StatusCode)
	}
	return fmt.Errorf("%s: unexpected status %d: %s", service, resp.StatusCode, msg)
}
