package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

type client struct {
	githubClient *github.Client
	owner        string
	repo         string
	callTimeout  time.Duration
	maxRetries   uint64
	newBackOff   func() backoff.BackOff
}

type config struct {
	token       string
	baseURL     string
	uploadURL   string
	httpClient  *http.Client
	callTimeout time.Duration
	maxRetries  uint64
	newBackOff  func() backoff.BackOff
}

// Option is a functional option for the release client
type Option func(*config)

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithBaseURL overrides the REST API endpoint
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithUploadURL overrides the endpoint used when a release has no upload URL
func WithUploadURL(u string) Option {
	return func(c *config) {
		c.uploadURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// WithCallTimeout bounds every single API call. Zero disables the timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *config) {
		c.callTimeout = d
	}
}

// WithMaxRetries sets how many times a failed call is retried. Client errors
// (4xx except 429) are never retried.
func WithMaxRetries(n uint64) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// WithBackOff sets the factory of the retry interval policy
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *config) {
		c.newBackOff = newBackOff
	}
}

// NewClient creates a release client bound to owner/repo
func NewClient(owner, repo string, opts ...Option) (interfaces.ReleaseClient, error) {
	if owner == "" || repo == "" {
		return nil, goerr.New("owner and repo are required",
			goerr.T(model.ErrTagInvalidConfiguration),
			goerr.V("owner", owner),
			goerr.V("repo", repo),
		)
	}

	cfg := &config{
		callTimeout: 2 * time.Minute,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	githubClient := github.NewClient(cfg.httpClient)
	if cfg.token != "" {
		githubClient = githubClient.WithAuthToken(cfg.token)
	}

	if cfg.baseURL != "" {
		u, err := parseEndpoint(cfg.baseURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API URL", goerr.T(model.ErrTagInvalidConfiguration))
		}
		githubClient.BaseURL = u
	}
	if cfg.uploadURL != "" {
		u, err := parseEndpoint(cfg.uploadURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub upload URL", goerr.T(model.ErrTagInvalidConfiguration))
		}
		githubClient.UploadURL = u
	}

	return &client{
		githubClient: githubClient,
		owner:        owner,
		repo:         repo,
		callTimeout:  cfg.callTimeout,
		maxRetries:   cfg.maxRetries,
		newBackOff:   cfg.newBackOff,
	}, nil
}

func parseEndpoint(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, goerr.New("endpoint must be an absolute URL", goerr.V("url", raw))
	}
	return u, nil
}

// CreateRelease creates a release record for the tag
func (c *client) CreateRelease(ctx context.Context, req *model.ReleaseRequest) (*model.ReleaseRecord, error) {
	var release *github.RepositoryRelease
	err := c.call(ctx, "create_release", func(ctx context.Context) error {
		r, _, err := c.githubClient.Repositories.CreateRelease(ctx, c.owner, c.repo, &github.RepositoryRelease{
			TagName:    github.Ptr(req.Tag.String()),
			Name:       github.Ptr(req.Name),
			Draft:      github.Ptr(req.Draft),
			Prerelease: github.Ptr(req.Prerelease),
		})
		if err != nil {
			return err
		}
		release = r
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create release",
			goerr.V("owner", c.owner),
			goerr.V("repo", c.repo),
			goerr.V("tag", req.Tag),
		)
	}

	return toRecord(release), nil
}

// GetReleaseByTag looks up the release record of tag. It returns nil without
// error when the release does not exist.
func (c *client) GetReleaseByTag(ctx context.Context, tag model.ReleaseTag) (*model.ReleaseRecord, error) {
	var release *github.RepositoryRelease
	err := c.call(ctx, "get_release_by_tag", func(ctx context.Context) error {
		r, _, err := c.githubClient.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag.String())
		if err != nil {
			if statusCode(err) == http.StatusNotFound {
				return nil
			}
			return err
		}
		release = r
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get release by tag",
			goerr.V("owner", c.owner),
			goerr.V("repo", c.repo),
			goerr.V("tag", tag),
		)
	}
	if release == nil {
		return nil, nil
	}

	return toRecord(release), nil
}

// ListAssets lists every asset of the release, following pagination
func (c *client) ListAssets(ctx context.Context, record *model.ReleaseRecord) ([]*model.ReleaseAsset, error) {
	var assets []*model.ReleaseAsset
	opt := &github.ListOptions{PerPage: 100}

	for {
		var page []*github.ReleaseAsset
		var resp *github.Response
		err := c.call(ctx, "list_release_assets", func(ctx context.Context) error {
			var err error
			page, resp, err = c.githubClient.Repositories.ListReleaseAssets(ctx, c.owner, c.repo, record.ID, opt)
			return err
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list release assets", goerr.V("release_id", record.ID))
		}

		for _, asset := range page {
			assets = append(assets, toAsset(asset))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return assets, nil
}

// DeleteAsset removes an asset from its release
func (c *client) DeleteAsset(ctx context.Context, assetID int64) error {
	err := c.call(ctx, "delete_release_asset", func(ctx context.Context) error {
		_, err := c.githubClient.Repositories.DeleteReleaseAsset(ctx, c.owner, c.repo, assetID)
		return err
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete release asset", goerr.V("asset_id", assetID))
	}
	return nil
}

// UploadAsset uploads a file to the upload endpoint of the release record
func (c *client) UploadAsset(ctx context.Context, record *model.ReleaseRecord, upload *model.AssetUpload) (*model.ReleaseAsset, error) {
	endpoint, err := c.uploadEndpoint(record, upload.Name)
	if err != nil {
		return nil, err
	}

	var asset *github.ReleaseAsset
	err = c.call(ctx, "upload_release_asset", func(ctx context.Context) error {
		// Reopened on every attempt so a retry sends the whole file again
		f, err := os.Open(upload.Path)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := c.githubClient.NewUploadRequest(endpoint, f, stat.Size(), upload.ContentType)
		if err != nil {
			return backoff.Permanent(err)
		}

		a := new(github.ReleaseAsset)
		if _, err := c.githubClient.Do(ctx, req, a); err != nil {
			return err
		}
		asset = a
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upload release asset",
			goerr.V("release_id", record.ID),
			goerr.V("name", upload.Name),
			goerr.V("path", upload.Path),
		)
	}

	return toAsset(asset), nil
}

// uploadEndpoint expands the upload URI template of the release, e.g.
// "https://uploads.github.com/repos/o/r/releases/1/assets{?name,label}"
func (c *client) uploadEndpoint(record *model.ReleaseRecord, name string) (string, error) {
	raw := record.UploadURL
	if i := strings.Index(raw, "{"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		raw = fmt.Sprintf("repos/%s/%s/releases/%d/assets", c.owner, c.repo, record.ID)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", goerr.Wrap(err, "invalid release upload URL", goerr.V("upload_url", record.UploadURL))
	}
	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// call runs fn with the per-call timeout, retrying transient failures up to
// maxRetries times
func (c *client) call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	logger := ctxlog.From(ctx)
	attempt := 0

	op := func() error {
		attempt++
		callCtx := ctx
		if c.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
			defer cancel()
		}

		err := fn(callCtx)
		if err == nil {
			return nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) || !retryable(ctx, err) {
			return backoff.Permanent(err)
		}

		logger.Warn("GitHub API call failed",
			"call", name,
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	return backoff.Retry(op, b)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}

	code := statusCode(err)
	if code == http.StatusTooManyRequests {
		return true
	}
	return code == 0 || code >= 500
}

func statusCode(err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

func toRecord(r *github.RepositoryRelease) *model.ReleaseRecord {
	return &model.ReleaseRecord{
		ID:        r.GetID(),
		TagName:   r.GetTagName(),
		Name:      r.GetName(),
		UploadURL: r.GetUploadURL(),
		HTMLURL:   r.GetHTMLURL(),
	}
}

func toAsset(a *github.ReleaseAsset) *model.ReleaseAsset {
	return &model.ReleaseAsset{
		ID:          a.GetID(),
		Name:        a.GetName(),
		ContentType: a.GetContentType(),
		Size:        int64(a.GetSize()),
		DownloadURL: a.GetBrowserDownloadURL(),
	}
}
