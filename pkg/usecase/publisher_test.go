package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/tagship/pkg/domain/model"
	"github.com/m-mizutani/tagship/pkg/usecase"
)

func testArtifact() *model.BuildArtifact {
	return &model.BuildArtifact{
		ArchivePath: "/tmp/dist/product-mac.tar.gz",
		ArchiveName: "product-mac.tar.gz",
		Checksum:    "abc123",
		Size:        42,
	}
}

func TestPublisher_Publish_Success(t *testing.T) {
	client := &mockReleaseClient{}
	publisher := usecase.NewPublisher(client)

	record, err := publisher.Publish(context.Background(), "v1.2.3", testArtifact())
	gt.NoError(t, err)

	gt.A(t, client.getCalls).Length(1)
	gt.A(t, client.createCalls).Length(1)
	req := client.createCalls[0]
	gt.Value(t, req.Tag).Equal(model.ReleaseTag("v1.2.3"))
	gt.String(t, req.Name).Equal("v1.2.3")
	gt.False(t, req.Draft)
	gt.True(t, req.Prerelease)

	gt.A(t, client.uploadCalls).Length(1)
	upload := client.uploadCalls[0]
	gt.String(t, upload.Name).Equal("product-mac.tar.gz")
	gt.String(t, upload.Path).Equal("/tmp/dist/product-mac.tar.gz")
	gt.String(t, upload.ContentType).Equal("application/gzip")

	gt.False(t, record.Reused)
	gt.Value(t, record.Asset).NotNil()
	gt.String(t, record.Asset.Name).Equal("product-mac.tar.gz")
	gt.Number(t, client.listCalls).Equal(0)
}

func TestPublisher_Publish_CreateFailed(t *testing.T) {
	client := &mockReleaseClient{
		createFunc: func(req *model.ReleaseRequest) (*model.ReleaseRecord, error) {
			return nil, errors.New("service unavailable")
		},
	}
	publisher := usecase.NewPublisher(client)

	record, err := publisher.Publish(context.Background(), "v1.2.3", testArtifact())
	gt.Error(t, err)
	gt.Value(t, record).Nil()
	gt.True(t, goerr.HasTag(err, model.ErrTagReleaseCreateFailed))
	gt.A(t, client.uploadCalls).Length(0)
}

func TestPublisher_Publish_LookupFailed(t *testing.T) {
	client := &mockReleaseClient{
		getFunc: func(tag model.ReleaseTag) (*model.ReleaseRecord, error) {
			return nil, errors.New("unauthorized")
		},
	}
	publisher := usecase.NewPublisher(client)

	_, err := publisher.Publish(context.Background(), "v1.2.3", testArtifact())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagReleaseCreateFailed))
	gt.A(t, client.createCalls).Length(0)
	gt.A(t, client.uploadCalls).Length(0)
}

func TestPublisher_Publish_UploadFailed(t *testing.T) {
	client := &mockReleaseClient{
		uploadFunc: func(record *model.ReleaseRecord, upload *model.AssetUpload) (*model.ReleaseAsset, error) {
			return nil, errors.New("connection reset")
		},
	}
	publisher := usecase.NewPublisher(client)

	record, err := publisher.Publish(context.Background(), "v1.2.3", testArtifact())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagAssetUploadFailed))
	gt.False(t, goerr.HasTag(err, model.ErrTagReleaseCreateFailed))

	// the created release is reported even though it has no asset
	gt.Value(t, record).NotNil()
	gt.Number(t, record.ID).Equal(int64(1))
	gt.Value(t, record.Asset).Nil()
}

func TestPublisher_Publish_ReuseExisting(t *testing.T) {
	existing := &model.ReleaseRecord{ID: 5, TagName: "v1.2.3"}
	client := &mockReleaseClient{
		getFunc: func(tag model.ReleaseTag) (*model.ReleaseRecord, error) {
			return existing, nil
		},
		listFunc: func(record *model.ReleaseRecord) ([]*model.ReleaseAsset, error) {
			return []*model.ReleaseAsset{
				{ID: 20, Name: "product-mac.tar.gz"},
				{ID: 21, Name: "checksums.txt"},
			}, nil
		},
	}
	publisher := usecase.NewPublisher(client)

	record, err := publisher.Publish(context.Background(), "v1.2.3", testArtifact())
	gt.NoError(t, err)
	gt.True(t, record.Reused)
	gt.Number(t, record.ID).Equal(int64(5))

	gt.A(t, client.createCalls).Length(0)
	gt.A(t, client.deleteCalls).Length(1)
	gt.Number(t, client.deleteCalls[0]).Equal(int64(20))
	gt.A(t, client.uploadCalls).Length(1)
}

func TestPublisher_Publish_WithoutReuse(t *testing.T) {
	client := &mockReleaseClient{}
	publisher := usecase.NewPublisher(client,
		usecase.WithReuseExisting(false),
		usecase.WithPrerelease(false),
		usecase.WithContentType("application/x-gtar"),
	)

	_, err := publisher.Publish(context.Background(), "v1.2.3", testArtifact())
	gt.NoError(t, err)
	gt.A(t, client.getCalls).Length(0)
	gt.A(t, client.createCalls).Length(1)
	gt.False(t, client.createCalls[0].Prerelease)
	gt.String(t, client.uploadCalls[0].ContentType).Equal("application/x-gtar")
}
