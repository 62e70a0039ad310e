package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// Publisher creates the hosted release and attaches the archive to it
type Publisher struct {
	client        interfaces.ReleaseClient
	prerelease    bool
	reuseExisting bool
	contentType   string
}

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithPrerelease marks created releases as pre-release (default true)
func WithPrerelease(prerelease bool) PublisherOption {
	return func(p *Publisher) {
		p.prerelease = prerelease
	}
}

// WithReuseExisting makes the publisher reuse a release that already exists
// for the tag and replace a same-named asset, so that a failed run can be
// re-run safely (default true)
func WithReuseExisting(reuse bool) PublisherOption {
	return func(p *Publisher) {
		p.reuseExisting = reuse
	}
}

// WithContentType sets the declared content type of the uploaded archive
func WithContentType(contentType string) PublisherOption {
	return func(p *Publisher) {
		p.contentType = contentType
	}
}

// NewPublisher creates a Publisher
func NewPublisher(client interfaces.ReleaseClient, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:        client,
		prerelease:    true,
		reuseExisting: true,
		contentType:   model.ArchiveContentType,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish creates the release record for tag and uploads the archive as its
// asset. The two phases are not atomic: when the upload fails the release
// record stays published without the asset.
func (p *Publisher) Publish(ctx context.Context, tag model.ReleaseTag, artifact *model.BuildArtifact) (*model.ReleaseRecord, error) {
	logger := ctxlog.From(ctx)

	record, err := p.ensureRelease(ctx, tag)
	if err != nil {
		return nil, err
	}

	logger.Info("Release record ready",
		"tag", tag,
		"release_id", record.ID,
		"reused", record.Reused,
		"url", record.HTMLURL,
	)

	asset, err := p.attach(ctx, record, artifact)
	if err != nil {
		logger.Error("Asset upload failed, release record is left without asset",
			"tag", tag,
			"release_id", record.ID,
			"asset", artifact.ArchiveName,
		)
		return record, err
	}
	record.Asset = asset

	logger.Info("Uploaded release asset",
		"tag", tag,
		"asset", asset.Name,
		"asset_id", asset.ID,
		"download_url", asset.DownloadURL,
	)

	return record, nil
}

func (p *Publisher) ensureRelease(ctx context.Context, tag model.ReleaseTag) (*model.ReleaseRecord, error) {
	if p.reuseExisting {
		existing, err := p.client.GetReleaseByTag(ctx, tag)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to look up existing release",
				goerr.T(model.ErrTagReleaseCreateFailed),
				goerr.V("tag", tag),
			)
		}
		if existing != nil {
			existing.Reused = true
			return existing, nil
		}
	}

	record, err := p.client.CreateRelease(ctx, &model.ReleaseRequest{
		Tag:        tag,
		Name:       tag.String(),
		Draft:      false,
		Prerelease: p.prerelease,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create release",
			goerr.T(model.ErrTagReleaseCreateFailed),
			goerr.V("tag", tag),
		)
	}
	return record, nil
}

func (p *Publisher) attach(ctx context.Context, record *model.ReleaseRecord, artifact *model.BuildArtifact) (*model.ReleaseAsset, error) {
	logger := ctxlog.From(ctx)

	if record.Reused {
		assets, err := p.client.ListAssets(ctx, record)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list assets of existing release",
				goerr.T(model.ErrTagAssetUploadFailed),
				goerr.V("release_id", record.ID),
			)
		}

		for _, asset := range assets {
			if asset.Name != artifact.ArchiveName {
				continue
			}
			logger.Warn("Replacing existing release asset",
				"release_id", record.ID,
				"asset", asset.Name,
				"asset_id", asset.ID,
			)
			if err := p.client.DeleteAsset(ctx, asset.ID); err != nil {
				return nil, goerr.Wrap(err, "failed to delete existing asset",
					goerr.T(model.ErrTagAssetUploadFailed),
					goerr.V("asset_id", asset.ID),
				)
			}
		}
	}

	asset, err := p.client.UploadAsset(ctx, record, &model.AssetUpload{
		Path:        artifact.ArchivePath,
		Name:        artifact.ArchiveName,
		ContentType: p.contentType,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upload asset",
			goerr.T(model.ErrTagAssetUploadFailed),
			goerr.V("release_id", record.ID),
			goerr.V("asset", artifact.ArchiveName),
		)
	}
	return asset, nil
}
