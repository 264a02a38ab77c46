package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	valid := func() Options {
		return Options{
			AccessToken:    "my-token",
			GlobalJSONPath: "global.json",
			Repo:           "octocat/hello-world",
		}
	}

	tests := []struct {
		name          string
		mutate        func(*Options)
		expectedError string
	}{
		{
			name:   "PASS: Minimal options",
			mutate: func(*Options) {},
		},
		{
			name:   "PASS: Daily quality with label",
			mutate: func(o *Options) { o.Quality = QualityDaily; o.PrereleaseLabel = "preview" },
		},
		{
			name:          "FAIL: Missing token",
			mutate:        func(o *Options) { o.AccessToken = "" },
			expectedError: "no GitHub access token specified",
		},
		{
			name:          "FAIL: Missing global.json",
			mutate:        func(o *Options) { o.GlobalJSONPath = "" },
			expectedError: "no path to global.json file specified",
		},
		{
			name:          "FAIL: Invalid quality",
			mutate:        func(o *Options) { o.Quality = "GA" },
			expectedError: `invalid quality "GA" specified`,
		},
		{
			name:          "FAIL: Prerelease label without quality",
			mutate:        func(o *Options) { o.PrereleaseLabel = "rc" },
			expectedError: "a prerelease label can only be used with a quality",
		},
		{
			name:          "FAIL: Malformed repository",
			mutate:        func(o *Options) { o.Repo = "octocat" },
			expectedError: `invalid repository "octocat"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid()
			tt.mutate(&opts)

			err := opts.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestOptionsValidateReportsAllErrors(t *testing.T) {
	opts := Options{Quality: "GA"}

	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 errors occurred")
	assert.True(t, errors.Is(err, ErrInvalidQuality))
}

func TestOptionsRepoParts(t *testing.T) {
	opts := Options{Repo: "octocat/hello-world"}
	assert.Equal(t, "octocat", opts.Owner())
	assert.Equal(t, "hello-world", opts.RepoName())
}

func TestIsGitHubDotCom(t *testing.T) {
	assert.True(t, (&Options{}).IsGitHubDotCom())
	assert.True(t, (&Options{ServerURL: "https://github.com/"}).IsGitHubDotCom())
	assert.False(t, (&Options{ServerURL: "https://github.local"}).IsGitHubDotCom())
}

func TestParseLabels(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, ParseLabels("foo, bar,,"))
	assert.Nil(t, ParseLabels(""))
}
