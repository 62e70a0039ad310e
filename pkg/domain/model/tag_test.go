package model_test

import (
	"regexp"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/tagship/pkg/domain/model"
)

func TestParseReleaseTag(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    model.ReleaseTag
		wantErr bool
	}{
		{
			name: "semantic version tag",
			ref:  "refs/tags/v1.2.3",
			want: "v1.2.3",
		},
		{
			name: "tag without v prefix",
			ref:  "refs/tags/0.9.0",
			want: "0.9.0",
		},
		{
			name: "tag value is kept verbatim",
			ref:  "refs/tags/Release_2024-01/rc.1",
			want: "Release_2024-01/rc.1",
		},
		{
			name:    "branch reference",
			ref:     "refs/heads/main",
			wantErr: true,
		},
		{
			name:    "bare tag name",
			ref:     "v1.2.3",
			wantErr: true,
		},
		{
			name:    "empty tag name",
			ref:     "refs/tags/",
			wantErr: true,
		},
		{
			name:    "empty reference",
			ref:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := model.ParseReleaseTag(tt.ref, nil)
			if tt.wantErr {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, model.ErrTagMalformedReference))
				gt.Value(t, tag).Equal(model.ReleaseTag(""))
				return
			}

			gt.NoError(t, err)
			gt.Value(t, tag).Equal(tt.want)
		})
	}
}

func TestParseReleaseTag_Pattern(t *testing.T) {
	pattern := regexp.MustCompile(`^v[0-9]+\.[0-9]+\.[0-9]+$`)

	t.Run("matching tag", func(t *testing.T) {
		tag, err := model.ParseReleaseTag("refs/tags/v1.2.3", pattern)
		gt.NoError(t, err)
		gt.Value(t, tag).Equal(model.ReleaseTag("v1.2.3"))
	})

	t.Run("non matching tag", func(t *testing.T) {
		_, err := model.ParseReleaseTag("refs/tags/nightly", pattern)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrTagMalformedReference))
	})
}

func TestIsTagRef(t *testing.T) {
	gt.True(t, model.IsTagRef("refs/tags/v1.0.0"))
	gt.False(t, model.IsTagRef("refs/tags/"))
	gt.False(t, model.IsTagRef("refs/heads/v1.0.0"))
}
