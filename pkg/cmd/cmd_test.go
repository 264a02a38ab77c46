package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

var errCaptured = errors.New("options captured")

func executeUpdate(t *testing.T, args ...string) (*types.Options, error) {
	t.Helper()

	var captured *types.Options
	original := runUpdate
	runUpdate = func(_ context.Context, opts *types.Options) error {
		captured = opts
		return errCaptured
	}
	t.Cleanup(func() { runUpdate = original })

	cmd := NewUpdateCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errors.Is(err, errCaptured) {
		return captured, nil
	}
	return nil, err
}

func TestNewUpdateCmdFromActionInputs(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("INPUT_REPO-TOKEN", "secret")
	t.Setenv("INPUT_GLOBAL-JSON-FILE", filepath.Join(dir, "src", "..", "global.json"))
	t.Setenv("INPUT_CHANNEL", "8.0")
	t.Setenv("INPUT_QUALITY", "daily")
	t.Setenv("INPUT_PRERELEASE-LABEL", "rc")
	t.Setenv("INPUT_LABELS", "dependencies, .NET ,")
	t.Setenv("INPUT_DRY-RUN", "true")
	t.Setenv("INPUT_SECURITY-ONLY", "true")
	t.Setenv("INPUT_CLOSE-SUPERSEDED", "false")
	t.Setenv("INPUT_COMMIT-MESSAGE-PREFIX", "chore: ")
	t.Setenv("INPUT_USER-NAME", "octocat")
	t.Setenv("INPUT_USER-EMAIL", "octocat@example.local")
	t.Setenv("GITHUB_REPOSITORY", "octo/repo")
	t.Setenv("GITHUB_RUN_ID", "1234")
	t.Setenv("GITHUB_SERVER_URL", "https://github.example.local")
	t.Setenv("GITHUB_API_URL", "https://github.example.local/api/v3")

	opts, err := executeUpdate(t)
	require.NoError(t, err)

	assert.Equal(t, &types.Options{
		AccessToken:         "secret",
		Repo:                "octo/repo",
		RunID:               "1234",
		ServerURL:           "https://github.example.local",
		APIURL:              "https://github.example.local/api/v3",
		GlobalJSONPath:      filepath.Join(dir, "global.json"),
		Channel:             "8.0",
		Quality:             "daily",
		PrereleaseLabel:     "rc",
		SecurityOnly:        true,
		CommitMessagePrefix: "chore: ",
		Labels:              []string{"dependencies", ".NET"},
		UserName:            "octocat",
		UserEmail:           "octocat@example.local",
		CloseSuperseded:     false,
		DryRun:              true,
		GenerateStepSummary: true,
	}, opts)
}

func TestNewUpdateCmdDefaults(t *testing.T) {
	for _, env := range contextEnv {
		t.Setenv(env, "")
	}

	opts, err := executeUpdate(t, "--repo-token", "token")
	require.NoError(t, err)

	abs, err := filepath.Abs("global.json")
	require.NoError(t, err)

	assert.Equal(t, abs, opts.GlobalJSONPath)
	assert.Equal(t, types.DefaultServerURL, opts.ServerURL)
	assert.Equal(t, types.DefaultAPIURL, opts.APIURL)
	assert.True(t, opts.CloseSuperseded)
	assert.True(t, opts.GenerateStepSummary)
	assert.False(t, opts.DryRun)
	assert.Empty(t, opts.Labels)
}

func TestNewUpdateCmdFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("INPUT_REPO-TOKEN", "from-input")
	t.Setenv("UPDATE_DOTNET_SDK_CHANNEL", "7.0")

	opts, err := executeUpdate(t, "--repo-token", "from-flag", "--labels", "a,b")
	require.NoError(t, err)

	assert.Equal(t, "from-flag", opts.AccessToken)
	assert.Equal(t, "7.0", opts.Channel)
	assert.Equal(t, []string{"a", "b"}, opts.Labels)
}

func TestNewUpdateCmdValidation(t *testing.T) {
	tests := []struct {
		name                  string
		args                  []string
		expectedErrorContains []string
	}{
		{
			name:                  "No token",
			args:                  []string{},
			expectedErrorContains: []string{"no GitHub access token specified"},
		},
		{
			name:                  "Invalid quality",
			args:                  []string{"--repo-token", "token", "--quality", "GA"},
			expectedErrorContains: []string{`invalid quality "GA" specified`},
		},
		{
			name: "Multiple errors",
			args: []string{"--prerelease-label", "rc", "--repository", "octo"},
			expectedErrorContains: []string{
				"no GitHub access token specified",
				"a prerelease label can only be used with a quality",
				`invalid repository "octo"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeUpdate(t, tt.args...)
			require.Error(t, err)

			var merr *multierror.Error
			assert.True(t, errors.As(err, &merr))
			for _, expected := range tt.expectedErrorContains {
				assert.Contains(t, err.Error(), expected)
			}
		})
	}
}
