package model

// ReleaseRequest is the input of a release record creation
type ReleaseRequest struct {
	Tag        ReleaseTag
	Name       string
	Draft      bool
	Prerelease bool
}

// ReleaseRecord is a hosted release keyed by its tag
type ReleaseRecord struct {
	ID        int64
	TagName   string
	Name      string
	UploadURL string // Upload endpoint for attaching assets, may be a URI template
	HTMLURL   string
	Reused    bool          // True if the record existed before this run
	Asset     *ReleaseAsset // Set once the archive is attached
}

// ReleaseAsset is a file attached to a release record
type ReleaseAsset struct {
	ID          int64
	Name        string
	ContentType string
	Size        int64
	DownloadURL string
}

// AssetUpload describes an archive to attach to a release record
type AssetUpload struct {
	Path        string
	Name        string
	ContentType string
}
