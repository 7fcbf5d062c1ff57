package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/jmylchreest/ape-plugins/internal/logging"
)

// GitHub lists an organisation's public plugin repositories.
type GitHub struct {
	client *github.Client
	org    string
	logger hclog.Logger
}

// GitHubOption configures a GitHub registry.
type GitHubOption func(*githubConfig)

type githubConfig struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// WithToken authenticates requests for higher rate limits.
func WithToken(token string) GitHubOption {
	return func(c *githubConfig) {
		c.token = token
	}
}

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(u string) GitHubOption {
	return func(c *githubConfig) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) GitHubOption {
	return func(c *githubConfig) {
		c.httpClient = hc
	}
}

// WithGitHubLogger sets the logger.
func WithGitHubLogger(l hclog.Logger) GitHubOption {
	return func(c *githubConfig) {
		c.logger = l
	}
}

// NewGitHub creates a registry backed by the GitHub API.
func NewGitHub(org string, opts ...GitHubOption) (*GitHub, error) {
	if org == "" {
		return nil, fmt.Errorf("github organisation required")
	}

	var cfg githubConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	httpClient := cfg.httpClient
	if cfg.token != "" {
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(httpClient)
	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.baseURL, err)
		}
		client.BaseURL = u
	}

	return &GitHub{
		client: client,
		org:    org,
		logger: logging.OrDiscard(cfg.logger).Named("registry.github"),
	}, nil
}

// Available returns the module names of the organisation's public,
// non-archived "ape-*" repositories.
func (g *GitHub) Available(ctx context.Context) ([]string, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type:        "public",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var names []string
	for {
		repos, resp, err := g.client.Repositories.ListByOrg(ctx, g.org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories for %q: %w", g.org, err)
		}

		for _, repo := range repos {
			if repo.GetPrivate() || repo.GetArchived() {
				continue
			}
			names = append(names, repo.GetName())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	available := normalize(names)
	g.logger.Debug("listed available plugins", "org", g.org, "count", len(available))
	return available, nil
}
