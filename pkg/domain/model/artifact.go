package model

// ArchiveContentType is the media type declared for uploaded archives
const ArchiveContentType = "application/gzip"

// BuildArtifact is the packaged archive handed from the packager to the publisher
type BuildArtifact struct {
	ArchivePath string // Absolute or working-directory relative path
	ArchiveName string // Fixed file name, also used as asset name
	Checksum    string // SHA-256 of the archive bytes, lowercase hex
	Size        int64
}
