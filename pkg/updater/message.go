package updater

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/sdkversion"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	// DependencyName identifies the SDK in the dependency metadata of a commit.
	DependencyName = "Microsoft.NET.Sdk"

	commitTitle      = "Update .NET SDK"
	pullRequestTitle = "Update .NET SDK to "

	UpdateTypeMajor = "major"
	UpdateTypeMinor = "minor"
	UpdateTypePatch = "patch"
)

type updatedDependency struct {
	Name       string `yaml:"dependency-name"`
	Version    string `yaml:"dependency-version"`
	Type       string `yaml:"dependency-type"`
	UpdateType string `yaml:"update-type"`
}

type dependencyMetadata struct {
	UpdatedDependencies []updatedDependency `yaml:"updated-dependencies"`
}

// ClassifyUpdate reports whether moving from current to latest is a major, minor or patch update.
func ClassifyUpdate(current, latest string) string {
	currentMajor, currentMinor, ok := majorMinor(current)
	if !ok {
		return UpdateTypePatch
	}
	latestMajor, latestMinor, ok := majorMinor(latest)
	if !ok {
		return UpdateTypePatch
	}

	switch {
	case currentMajor != latestMajor:
		return UpdateTypeMajor
	case currentMinor != latestMinor:
		return UpdateTypeMinor
	default:
		return UpdateTypePatch
	}
}

func majorMinor(version string) (uint64, uint64, bool) {
	if v, err := semver.NewVersion(version); err == nil {
		return v.Major(), v.Minor(), true
	}
	// Four part versions are not valid semver.
	if v, ok := sdkversion.TryParse(version); ok && v.Minor >= 0 {
		return uint64(v.Major), uint64(v.Minor), true
	}
	return 0, 0, false
}

// GenerateCommitMessage returns the commit message for an update from current
// to latest, including machine-readable dependency metadata.
func GenerateCommitMessage(prefix, current, latest string) (string, error) {
	metadata := dependencyMetadata{
		UpdatedDependencies: []updatedDependency{
			{
				Name:       DependencyName,
				Version:    latest,
				Type:       "direct:production",
				UpdateType: "version-update:semver-" + ClassifyUpdate(current, latest),
			},
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&metadata); err != nil {
		return "", fmt.Errorf("failed to encode dependency metadata: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode dependency metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString(prefix + commitTitle + "\n\n")
	b.WriteString(fmt.Sprintf("Update .NET SDK to version %s.\n\n", latest))
	b.WriteString("---\n")
	b.WriteString(buf.String())
	b.WriteString("...\n")
	return b.String(), nil
}

// PullRequestTitlePrefix is the title prefix shared by every pull request opened by this tool.
func PullRequestTitlePrefix(prefix string) string {
	return prefix + pullRequestTitle
}

// GeneratePullRequestTitle returns the title of the pull request for version.
func GeneratePullRequestTitle(prefix, version string) string {
	return PullRequestTitlePrefix(prefix) + version
}

// GeneratePullRequestBody describes the update for the pull request.
func GeneratePullRequestBody(update *types.SdkVersions, opts *types.Options) string {
	current, latest := update.Current, update.Latest

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Updates the .NET SDK to version `%s`, ", latest.SdkVersion))

	if current.RuntimeVersion == latest.RuntimeVersion {
		b.WriteString(fmt.Sprintf("which includes version [``%s``](%s) of the .NET runtime.",
			latest.RuntimeVersion, latest.ReleaseNotes))
	} else {
		b.WriteString(fmt.Sprintf("which also updates the .NET runtime from version [``%s``](%s) to version [``%s``](%s).",
			current.RuntimeVersion, current.ReleaseNotes, latest.RuntimeVersion, latest.ReleaseNotes))
	}

	if update.Security && len(update.SecurityIssues) > 0 {
		b.WriteString("\n\nThis release includes fixes for the following security issue(s):")
		for _, issue := range update.SecurityIssues {
			if opts.IsGitHubDotCom() {
				b.WriteString(fmt.Sprintf("\n  * %s", issue.ID))
			} else {
				b.WriteString(fmt.Sprintf("\n  * [%s](%s)", issue.ID, issue.URL))
			}
		}
	}

	b.WriteString(fmt.Sprintf("\n\nThis pull request was auto-generated by [GitHub Actions](%s/%s/actions/runs/%s).",
		strings.TrimSuffix(serverURL(opts), "/"), opts.Repo, opts.RunID))

	return b.String()
}

func serverURL(opts *types.Options) string {
	if opts.ServerURL == "" {
		return types.DefaultServerURL
	}
	return opts.ServerURL
}
