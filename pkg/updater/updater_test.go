package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/publish"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/releases"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

type fakePublisher struct {
	requests []*publish.Request
	result   *publish.Result
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, req *publish.Request) (*publish.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func writeGlobalJSON(t *testing.T, version string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "global.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"sdk\": {\n    \"version\": \""+version+"\"\n  }\n}\n"), 0o600))
	return path
}

func readGlobalJSON(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newOfficialSource(t *testing.T) *fakeSource {
	return &fakeSource{
		channels: map[string]*releases.ReleaseChannel{
			"3.1": loadChannel(t, "3.1"),
			"5.0": loadChannel(t, "5.0"),
			"7.0": loadChannel(t, "7.0"),
		},
	}
}

func TestRun(t *testing.T) {
	path := writeGlobalJSON(t, "7.0.100")
	publisher := &fakePublisher{
		result: &publish.Result{
			Updated:     true,
			Branch:      "update-dotnet-sdk-7.0.202",
			PullRequest: &types.PullRequest{Number: 42, URL: "https://github.com/octo/repo/pull/42"},
			Superseded:  []int{41},
		},
	}
	opts := &types.Options{
		GlobalJSONPath:      path,
		Repo:                "octo/repo",
		RunID:               "99",
		CommitMessagePrefix: "chore: ",
		GenerateStepSummary: true,
	}

	u := New(opts, newOfficialSource(t), publisher)
	u.Now = func() time.Time { return time.Date(2023, time.March, 24, 12, 0, 0, 0, time.UTC) }

	outcome, err := u.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &types.UpdateResult{
		Updated:                true,
		Version:                "7.0.202",
		BranchName:             "update-dotnet-sdk-7.0.202",
		PullRequestNumber:      "42",
		PullRequestURL:         "https://github.com/octo/repo/pull/42",
		Security:               true,
		SupersededPullRequests: []int{41},
		RuntimeVersion:         "7.0.4",
		AspNetCoreVersion:      "7.0.4",
		WindowsDesktopVersion:  "7.0.4",
	}, outcome.Result)

	assert.Contains(t, readGlobalJSON(t, path), `"version": "7.0.202"`)

	require.Len(t, publisher.requests, 1)
	req := publisher.requests[0]
	assert.Equal(t, "7.0.202", req.Version)
	assert.Equal(t, path, req.ManifestPath)
	assert.Equal(t, "chore: Update .NET SDK to 7.0.202", req.Title)
	assert.Equal(t, "chore: Update .NET SDK to ", req.SupersedesTitlePrefix)
	assert.Contains(t, req.CommitMessage, "chore: Update .NET SDK\n\nUpdate .NET SDK to version 7.0.202.")
	assert.Contains(t, req.CommitMessage, "update-type: version-update:semver-patch")
	assert.Contains(t, req.Body, "from version [``7.0.0``]")
	assert.Contains(t, req.Body, "  * CVE-2022-41089\n  * CVE-2023-21808")

	assert.Contains(t, outcome.Summary, "was released 10 days ago")
	assert.Contains(t, outcome.Summary, "CVE-2023-21808")
}

func TestRunUpToDate(t *testing.T) {
	path := writeGlobalJSON(t, "7.0.202")
	publisher := &fakePublisher{}

	outcome, err := New(&types.Options{GlobalJSONPath: path, GenerateStepSummary: true}, newOfficialSource(t), publisher).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, outcome.Result.Updated)
	assert.Equal(t, "7.0.202", outcome.Result.Version)
	assert.Equal(t, []int{}, outcome.Result.SupersededPullRequests)
	assert.Empty(t, outcome.Summary)
	assert.Empty(t, publisher.requests)
	assert.Contains(t, readGlobalJSON(t, path), `"version": "7.0.202"`)
}

func TestRunSecurityOnly(t *testing.T) {
	t.Run("Skips updates without security fixes", func(t *testing.T) {
		path := writeGlobalJSON(t, "3.1.100")
		publisher := &fakePublisher{}

		outcome, err := New(&types.Options{GlobalJSONPath: path, SecurityOnly: true}, newOfficialSource(t), publisher).Run(context.Background())
		require.NoError(t, err)

		assert.False(t, outcome.Result.Updated)
		assert.False(t, outcome.Result.Security)
		assert.Equal(t, "3.1.100", outcome.Result.Version)
		assert.Equal(t, "3.1.0", outcome.Result.RuntimeVersion)
		assert.Empty(t, publisher.requests)
		assert.Contains(t, readGlobalJSON(t, path), `"version": "3.1.100"`)
	})

	t.Run("Applies updates with security fixes", func(t *testing.T) {
		path := writeGlobalJSON(t, "5.0.103")
		publisher := &fakePublisher{result: &publish.Result{Updated: true, Branch: "update-dotnet-sdk-5.0.200"}}

		outcome, err := New(&types.Options{GlobalJSONPath: path, SecurityOnly: true, DryRun: true}, newOfficialSource(t), publisher).Run(context.Background())
		require.NoError(t, err)

		assert.True(t, outcome.Result.Updated)
		assert.True(t, outcome.Result.Security)
		assert.Equal(t, "5.0.200", outcome.Result.Version)
		assert.Empty(t, outcome.Result.PullRequestNumber)
		require.Len(t, publisher.requests, 1)
	})
}

func TestRunCustomCommitMessage(t *testing.T) {
	path := writeGlobalJSON(t, "3.1.100")
	publisher := &fakePublisher{result: &publish.Result{Updated: true}}

	_, err := New(&types.Options{GlobalJSONPath: path, CommitMessage: "Bump the SDK"}, newOfficialSource(t), publisher).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, publisher.requests, 1)
	assert.Equal(t, "Bump the SDK", publisher.requests[0].CommitMessage)
}

func TestRunDaily(t *testing.T) {
	path := writeGlobalJSON(t, "8.0.100-preview.7.23376.3")
	publisher := &fakePublisher{result: &publish.Result{Updated: true, Branch: "update-dotnet-sdk-8.0.100-rc.1.23415.11"}}

	opts := &types.Options{GlobalJSONPath: path, Quality: types.QualityDaily}
	outcome, err := New(opts, newDailySource(), publisher).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, outcome.Result.Updated)
	assert.Equal(t, "8.0.100-rc.1.23415.11", outcome.Result.Version)
	assert.False(t, outcome.Result.Security)
	assert.Contains(t, readGlobalJSON(t, path), `"version": "8.0.100-rc.1.23415.11"`)
}

func TestRunErrors(t *testing.T) {
	t.Run("Missing channel feed", func(t *testing.T) {
		path := writeGlobalJSON(t, "9.0.100")
		_, err := New(&types.Options{GlobalJSONPath: path}, newOfficialSource(t), &fakePublisher{}).Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrUnexpectedStatus))
	})

	t.Run("Unknown SDK", func(t *testing.T) {
		path := writeGlobalJSON(t, "7.0.999")
		_, err := New(&types.Options{GlobalJSONPath: path}, newOfficialSource(t), &fakePublisher{}).Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrReleaseNotFound))
	})

	t.Run("Invalid quality", func(t *testing.T) {
		path := writeGlobalJSON(t, "8.0.100-preview.7.23376.3")
		source := newDailySource()
		publisher := &fakePublisher{}

		_, err := New(&types.Options{GlobalJSONPath: path, Quality: "GA"}, source, publisher).Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidQuality))
		assert.Contains(t, err.Error(), `invalid quality "GA" specified`)
		assert.Empty(t, source.channelCalls)
		assert.Empty(t, source.dailyCalls)
		assert.Empty(t, publisher.requests)
		assert.Contains(t, readGlobalJSON(t, path), `"version": "8.0.100-preview.7.23376.3"`)
	})

	t.Run("Publish failure", func(t *testing.T) {
		path := writeGlobalJSON(t, "3.1.100")
		_, err := New(&types.Options{GlobalJSONPath: path}, newOfficialSource(t), &fakePublisher{err: errors.New("git push failed")}).Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "git push failed")
	})
}
