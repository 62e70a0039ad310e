package interfaces

import (
	"context"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// ReleaseClient defines operations against the release hosting service.
// A client is bound to a single repository.
type ReleaseClient interface {
	// CreateRelease creates a release record keyed by the request tag
	CreateRelease(ctx context.Context, req *model.ReleaseRequest) (*model.ReleaseRecord, error)

	// GetReleaseByTag returns the release record of tag, or nil if there is none
	GetReleaseByTag(ctx context.Context, tag model.ReleaseTag) (*model.ReleaseRecord, error)

	// ListAssets lists assets attached to the release record
	ListAssets(ctx context.Context, record *model.ReleaseRecord) ([]*model.ReleaseAsset, error)

	// DeleteAsset removes an asset from its release
	DeleteAsset(ctx context.Context, assetID int64) error

	// UploadAsset attaches a file to the release record through its upload endpoint
	UploadAsset(ctx context.Context, record *model.ReleaseRecord, upload *model.AssetUpload) (*model.ReleaseAsset, error)
}
