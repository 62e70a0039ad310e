package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

// mockRunner records every command and answers with runFunc
type mockRunner struct {
	mu      sync.Mutex
	runFunc func(cmd model.Command) (*model.CommandResult, error)
	calls   []model.Command
}

func (m *mockRunner) Run(ctx context.Context, cmd model.Command) (*model.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	m.mu.Unlock()

	if m.runFunc != nil {
		return m.runFunc(cmd)
	}
	return &model.CommandResult{}, nil
}

func (m *mockRunner) commandsNamed(name string) []model.Command {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found []model.Command
	for _, cmd := range m.calls {
		if cmd.Name == name {
			found = append(found, cmd)
		}
	}
	return found
}

// failWith returns a failed command result like a real runner does
func failWith(exitCode int, output string) (*model.CommandResult, error) {
	return &model.CommandResult{ExitCode: exitCode, Output: []byte(output)}, errors.New("command exited with non-zero status")
}

// mockReleaseClient is a release client recording calls
type mockReleaseClient struct {
	createFunc  func(req *model.ReleaseRequest) (*model.ReleaseRecord, error)
	getFunc     func(tag model.ReleaseTag) (*model.ReleaseRecord, error)
	listFunc    func(record *model.ReleaseRecord) ([]*model.ReleaseAsset, error)
	uploadFunc  func(record *model.ReleaseRecord, upload *model.AssetUpload) (*model.ReleaseAsset, error)
	createCalls []*model.ReleaseRequest
	getCalls    []model.ReleaseTag
	listCalls   int
	deleteCalls []int64
	uploadCalls []*model.AssetUpload
}

func (m *mockReleaseClient) CreateRelease(ctx context.Context, req *model.ReleaseRequest) (*model.ReleaseRecord, error) {
	m.createCalls = append(m.createCalls, req)
	if m.createFunc != nil {
		return m.createFunc(req)
	}
	return &model.ReleaseRecord{
		ID:        1,
		TagName:   req.Tag.String(),
		UploadURL: "https://uploads.example.com/repos/owner/repo/releases/1/assets{?name,label}",
	}, nil
}

func (m *mockReleaseClient) GetReleaseByTag(ctx context.Context, tag model.ReleaseTag) (*model.ReleaseRecord, error) {
	m.getCalls = append(m.getCalls, tag)
	if m.getFunc != nil {
		return m.getFunc(tag)
	}
	return nil, nil
}

func (m *mockReleaseClient) ListAssets(ctx context.Context, record *model.ReleaseRecord) ([]*model.ReleaseAsset, error) {
	m.listCalls++
	if m.listFunc != nil {
		return m.listFunc(record)
	}
	return nil, nil
}

func (m *mockReleaseClient) DeleteAsset(ctx context.Context, assetID int64) error {
	m.deleteCalls = append(m.deleteCalls, assetID)
	return nil
}

func (m *mockReleaseClient) UploadAsset(ctx context.Context, record *model.ReleaseRecord, upload *model.AssetUpload) (*model.ReleaseAsset, error) {
	m.uploadCalls = append(m.uploadCalls, upload)
	if m.uploadFunc != nil {
		return m.uploadFunc(record, upload)
	}
	return &model.ReleaseAsset{
		ID:          10,
		Name:        upload.Name,
		ContentType: upload.ContentType,
		DownloadURL: "https://example.com/download/" + upload.Name,
	}, nil
}

// mockNotifier records reports it receives
type mockNotifier struct {
	reports []*model.RunReport
	err     error
}

func (m *mockNotifier) Notify(ctx context.Context, report *model.RunReport) error {
	m.reports = append(m.reports, report)
	return m.err
}

// mockPipeline records refs passed to Run
type mockPipeline struct {
	mu   sync.Mutex
	refs []string
	err  error
}

func (m *mockPipeline) Run(ctx context.Context, ref string) (*model.RunReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs = append(m.refs, ref)
	return model.NewRunReport("test", ref), m.err
}

// funcPipeline delegates Run to a test function
type funcPipeline struct {
	run func(ctx context.Context, ref string) (*model.RunReport, error)
}

func (m *funcPipeline) Run(ctx context.Context, ref string) (*model.RunReport, error) {
	return m.run(ctx, ref)
}
