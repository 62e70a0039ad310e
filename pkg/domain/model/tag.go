package model

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// TagRefPrefix is the prefix of a git reference pointing at a tag
const TagRefPrefix = "refs/tags/"

// ReleaseTag is the version identifier of a release, taken verbatim from the tag name
type ReleaseTag string

func (t ReleaseTag) String() string { return string(t) }

// ParseReleaseTag extracts the release tag from a trigger reference such as
// "refs/tags/v1.2.3". The value after the prefix is returned without any
// transformation. If pattern is not nil, the tag must also match it.
func ParseReleaseTag(ref string, pattern *regexp.Regexp) (ReleaseTag, error) {
	if !strings.HasPrefix(ref, TagRefPrefix) {
		return "", goerr.New("reference is not a tag",
			goerr.T(ErrTagMalformedReference),
			goerr.V("ref", ref),
		)
	}

	value := strings.TrimPrefix(ref, TagRefPrefix)
	if value == "" {
		return "", goerr.New("tag name is empty",
			goerr.T(ErrTagMalformedReference),
			goerr.V("ref", ref),
		)
	}

	if pattern != nil && !pattern.MatchString(value) {
		return "", goerr.New("tag name does not match tag pattern",
			goerr.T(ErrTagMalformedReference),
			goerr.V("ref", ref),
			goerr.V("pattern", pattern.String()),
		)
	}

	return ReleaseTag(value), nil
}

// IsTagRef reports whether ref points at a tag
func IsTagRef(ref string) bool {
	return strings.HasPrefix(ref, TagRefPrefix) && len(ref) > len(TagRefPrefix)
}
