package types

import "time"

// SecurityIssue is a security advisory fixed by a release.
type SecurityIssue struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ReleaseInfo describes one resolved release of the .NET SDK.
type ReleaseInfo struct {
	SdkVersion            string
	RuntimeVersion        string
	AspNetCoreVersion     string
	WindowsDesktopVersion string
	ReleaseDate           time.Time
	ReleaseNotes          string
	Security              bool
	SecurityIssues        []SecurityIssue
}

// SdkVersions pairs the current and latest releases of a channel.
type SdkVersions struct {
	Current *ReleaseInfo
	Latest  *ReleaseInfo

	// Security is set if Latest, or any release skipped between Current and Latest, is a security release.
	Security bool

	// SecurityIssues is sorted by ID and does not contain issues already fixed by Current.
	SecurityIssues []SecurityIssue
}

// HasUpdate reports whether Latest is a different SDK from Current.
func (v *SdkVersions) HasUpdate() bool {
	return v.Current.SdkVersion != v.Latest.SdkVersion
}

// PullRequest is a pull request opened for an update.
type PullRequest struct {
	Number int
	Title  string
	URL    string
	Branch string
	Base   string
	Author string
}

// UpdateResult is the outcome of a single update run.
type UpdateResult struct {
	Updated                bool
	Version                string
	BranchName             string
	PullRequestNumber      string
	PullRequestURL         string
	Security               bool
	SupersededPullRequests []int
	RuntimeVersion         string
	AspNetCoreVersion      string
	WindowsDesktopVersion  string
}
