package releases

import (
	"fmt"
	"time"

	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const releaseDateLayout = "2006-01-02"

// ReleaseChannel is the releases.json document of a .NET channel.
type ReleaseChannel struct {
	ChannelVersion string    `json:"channel-version"`
	LatestRelease  string    `json:"latest-release"`
	LatestRuntime  string    `json:"latest-runtime"`
	LatestSdk      string    `json:"latest-sdk"`
	SupportPhase   string    `json:"support-phase"`
	Releases       []Release `json:"releases"`
}

// Release is a single entry of a channel's release feed.
type Release struct {
	ReleaseDate       string      `json:"release-date"`
	ReleaseVersion    string      `json:"release-version"`
	ReleaseNotes      string      `json:"release-notes"`
	Security          bool        `json:"security"`
	CVEList           []CVE       `json:"cve-list"`
	Runtime           *Component  `json:"runtime"`
	SDK               *Component  `json:"sdk"`
	SDKs              []Component `json:"sdks"`
	AspNetCoreRuntime *Component  `json:"aspnetcore-runtime"`
	WindowsDesktop    *Component  `json:"windowsdesktop"`
}

// Component is a versioned part of a release.
type Component struct {
	Version string `json:"version"`
}

// CVE is a security advisory listed by a release.
type CVE struct {
	ID  string `json:"cve-id"`
	URL string `json:"cve-url"`
}

func (c *ReleaseChannel) validate() error {
	if c.LatestSdk == "" {
		return fmt.Errorf("missing required field latest-sdk")
	}
	if c.Releases == nil {
		return fmt.Errorf("missing required field releases")
	}
	return nil
}

// FindRelease resolves the release containing sdkVersion. The primary SDK of
// every release is checked before any release's alternate SDKs.
func (c *ReleaseChannel) FindRelease(sdkVersion string) (*types.ReleaseInfo, error) {
	for i := range c.Releases {
		release := &c.Releases[i]
		if release.SDK != nil && release.SDK.Version == sdkVersion {
			return release.toReleaseInfo(sdkVersion)
		}
	}

	for i := range c.Releases {
		release := &c.Releases[i]
		for _, sdk := range release.SDKs {
			if sdk.Version == sdkVersion {
				return release.toReleaseInfo(sdkVersion)
			}
		}
	}

	return nil, fmt.Errorf("%w: failed to find release for .NET SDK version %s", types.ErrReleaseNotFound, sdkVersion)
}

// FindRuntimeRelease returns the release with the given runtime version, if any.
func (c *ReleaseChannel) FindRuntimeRelease(runtimeVersion string) (*Release, bool) {
	for i := range c.Releases {
		release := &c.Releases[i]
		if release.Runtime != nil && release.Runtime.Version == runtimeVersion {
			return release, true
		}
	}
	return nil, false
}

// SecurityIssues converts the release's CVE list.
func (r *Release) SecurityIssues() []types.SecurityIssue {
	issues := make([]types.SecurityIssue, 0, len(r.CVEList))
	for _, cve := range r.CVEList {
		issues = append(issues, types.SecurityIssue{ID: cve.ID, URL: cve.URL})
	}
	return issues
}

func (r *Release) toReleaseInfo(sdkVersion string) (*types.ReleaseInfo, error) {
	if r.Runtime == nil || r.Runtime.Version == "" {
		return nil, fmt.Errorf("release for .NET SDK version %s is missing runtime.version", sdkVersion)
	}

	info := &types.ReleaseInfo{
		SdkVersion:     sdkVersion,
		RuntimeVersion: r.Runtime.Version,
		ReleaseNotes:   r.ReleaseNotes,
		Security:       r.Security,
		SecurityIssues: r.SecurityIssues(),
	}

	if r.AspNetCoreRuntime != nil {
		info.AspNetCoreVersion = r.AspNetCoreRuntime.Version
	}
	if r.WindowsDesktop != nil {
		info.WindowsDesktopVersion = r.WindowsDesktop.Version
	}

	if r.ReleaseDate != "" {
		date, err := time.Parse(releaseDateLayout, r.ReleaseDate)
		if err != nil {
			return nil, fmt.Errorf("release for .NET SDK version %s has invalid release-date %q: %w", sdkVersion, r.ReleaseDate, err)
		}
		info.ReleaseDate = date
	}

	return info, nil
}
