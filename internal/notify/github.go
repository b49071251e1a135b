package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/parisxmas/vacancyform/internal/models"
)

// GitHub commits the document into a fixed repository path through the
// contents API. The credential secret is a token with contents:write.
type GitHub struct {
	apiURL string
	owner  string
	repo   string
	branch string
	dir    string
}

// NewGitHub takes repo as "owner/name". An empty apiURL means github.com.
func NewGitHub(apiURL, repo, branch, dir string) *GitHub {
	owner, name, _ := strings.Cut(repo, "/")
	return &GitHub{apiURL: apiURL, owner: owner, repo: name, branch: branch, dir: dir}
}

func (n *GitHub) Name() string { return "github" }

func (n *GitHub) client(ctx context.Context, token string) (*github.Client, error) {
	c := github.NewClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	if n.apiURL == "" {
		return c, nil
	}
	base, err := url.Parse(strings.TrimRight(n.apiURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("github: api url: %w", err)
	}
	c.BaseURL = base
	return c, nil
}

func (n *GitHub) Deliver(ctx context.Context, doc *models.RenderedDocument, rec *models.Record, cred Credential) error {
	if cred.Secret == "" {
		return fmt.Errorf("%w: no token", ErrAuthentication)
	}
	if n.owner == "" || n.repo == "" {
		return fmt.Errorf("github: repository must be owner/name")
	}
	client, err := n.client(ctx, cred.Secret)
	if err != nil {
		return err
	}

	target := path.Join(n.dir, doc.FileName)
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(fmt.Sprintf("Add job vacancy %s (%s)", doc.FileName, rec.SubmittedAt().Format(models.SubmissionDateLayout))),
		Content: doc.Data,
	}
	var getOpts *github.RepositoryContentGetOptions
	if n.branch != "" {
		opts.Branch = github.Ptr(n.branch)
		getOpts = &github.RepositoryContentGetOptions{Ref: n.branch}
	}

	existing, _, resp, err := client.Repositories.GetContents(ctx, n.owner, n.repo, target, getOpts)
	switch {
	case err == nil && existing != nil:
		opts.SHA = github.Ptr(existing.GetSHA())
		_, resp, err = client.Repositories.UpdateFile(ctx, n.owner, n.repo, target, opts)
	case err == nil || statusOf(resp) == http.StatusNotFound:
		_, resp, err = client.Repositories.CreateFile(ctx, n.owner, n.repo, target, opts)
	}
	if err != nil {
		return githubError(resp, err)
	}
	return nil
}

func statusOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// githubError wraps ErrAuthentication for 401 and 403 replies.
func githubError(resp *github.Response, err error) error {
	if code := statusOf(resp); code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("%w: github returned %d", ErrAuthentication, code)
	}
	var ge *github.ErrorResponse
	if errors.As(err, &ge) {
		return fmt.Errorf("github: %s", ge.Message)
	}
	return fmt.Errorf("github: %w", err)
}
