package model

// FormulaUpdateRequest is what the package manager receives to bump a formula.
// It is derived from the release and never persisted.
type FormulaUpdateRequest struct {
	Formula  string // Fully qualified formula reference, e.g. "owner/tap/name"
	Version  ReleaseTag
	Checksum string
	URL      string
}

// DownloadURLParams are the values available to the download URL template
type DownloadURLParams struct {
	Owner   string
	Repo    string
	Version string
	Archive string
}
