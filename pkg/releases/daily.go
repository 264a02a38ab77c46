package releases

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const (
	dotnetCommitsURL    = "https://github.com/dotnet/dotnet/commits/"
	installerCommitsURL = "https://github.com/dotnet/installer/commits/"
	sdkCommitsURL       = "https://github.com/dotnet/sdk/commits/"

	// buildNumberSegment is the index of the SHORT_DATE build number among
	// the numeric segments of a version such as 8.0.100-preview.6.23330.14.
	buildNumberSegment = 4
)

// CommitVersion identifies the build of one repository.
type CommitVersion struct {
	Commit  string `json:"commit"`
	Version string `json:"version"`
}

// ProductCommit is the canonical form of a daily build's product commit record.
type ProductCommit struct {
	Dotnet         CommitVersion
	Installer      CommitVersion
	Sdk            CommitVersion
	Runtime        CommitVersion
	AspNetCore     CommitVersion
	WindowsDesktop CommitVersion
}

// ProductCommitRecord is one of the upstream shapes of a product commit record.
type ProductCommitRecord interface {
	ToProductCommit() (*ProductCommit, error)
}

// ProductCommitJSON is the productCommit-*.json shape.
type ProductCommitJSON struct {
	Dotnet         *CommitVersion `json:"dotnet"`
	Installer      *CommitVersion `json:"installer"`
	Sdk            *CommitVersion `json:"sdk"`
	Runtime        *CommitVersion `json:"runtime"`
	AspNetCore     *CommitVersion `json:"aspnetcore"`
	WindowsDesktop *CommitVersion `json:"windowsdesktop"`
}

// ProductCommitText is the legacy productCommit-*.txt shape, a list of
// component_commit="..." and component_version="..." pairs.
type ProductCommitText map[string]string

// ParseProductCommitText parses the legacy text record.
func ParseProductCommitText(text string) ProductCommitText {
	record := ProductCommitText{}
	for _, field := range strings.Fields(text) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		record[strings.ToLower(key)] = strings.Trim(value, `"'`)
	}
	return record
}

func (p *ProductCommitJSON) ToProductCommit() (*ProductCommit, error) {
	deref := func(c *CommitVersion) CommitVersion {
		if c == nil {
			return CommitVersion{}
		}
		return *c
	}

	commit := &ProductCommit{
		Dotnet:         deref(p.Dotnet),
		Installer:      deref(p.Installer),
		Sdk:            deref(p.Sdk),
		Runtime:        deref(p.Runtime),
		AspNetCore:     deref(p.AspNetCore),
		WindowsDesktop: deref(p.WindowsDesktop),
	}
	return commit, commit.validate()
}

func (p ProductCommitText) ToProductCommit() (*ProductCommit, error) {
	get := func(component string) CommitVersion {
		return CommitVersion{
			Commit:  p[component+"_commit"],
			Version: p[component+"_version"],
		}
	}

	commit := &ProductCommit{
		Dotnet:         get("dotnet"),
		Installer:      get("installer"),
		Sdk:            get("sdk"),
		Runtime:        get("runtime"),
		AspNetCore:     get("aspnetcore"),
		WindowsDesktop: get("windowsdesktop"),
	}
	return commit, commit.validate()
}

func (p *ProductCommit) validate() error {
	if p.SdkVersion() == "" {
		return fmt.Errorf("product commit record is missing sdk.version and installer.version")
	}
	if p.Runtime.Version == "" {
		return fmt.Errorf("product commit record is missing runtime.version")
	}
	return nil
}

// SdkVersion returns the SDK version of the build.
func (p *ProductCommit) SdkVersion() string {
	if p.Sdk.Version != "" {
		return p.Sdk.Version
	}
	return p.Installer.Version
}

// ReleaseNotesURL returns the commit history of the repository the SDK was built from.
func (p *ProductCommit) ReleaseNotesURL() string {
	switch {
	case p.Dotnet.Commit != "":
		return dotnetCommitsURL + p.Dotnet.Commit
	case p.Installer.Commit != "":
		return installerCommitsURL + p.Installer.Commit
	case p.Sdk.Commit != "":
		return sdkCommitsURL + p.Sdk.Commit
	default:
		return ""
	}
}

// ToReleaseInfo converts the record. Daily builds are never security releases.
func (p *ProductCommit) ToReleaseInfo() *types.ReleaseInfo {
	sdkVersion := p.SdkVersion()

	info := &types.ReleaseInfo{
		SdkVersion:            sdkVersion,
		RuntimeVersion:        p.Runtime.Version,
		AspNetCoreVersion:     p.AspNetCore.Version,
		WindowsDesktopVersion: p.WindowsDesktop.Version,
		ReleaseNotes:          p.ReleaseNotesURL(),
		SecurityIssues:        []types.SecurityIssue{},
	}

	date, err := DecodeBuildDate(sdkVersion)
	if err != nil {
		log.Warnf("Unable to determine the release date of .NET SDK %s: %v", sdkVersion, err)
	} else {
		info.ReleaseDate = date
	}

	return info
}

// DecodeBuildDate derives the build date encoded in the build number of a
// daily version, e.g. 23330 in 8.0.100-preview.6.23330.14 is 2023-06-30.
func DecodeBuildDate(version string) (time.Time, error) {
	var numbers []int
	for _, segment := range strings.FieldsFunc(version, func(r rune) bool { return r == '.' || r == '-' }) {
		if n, err := strconv.Atoi(segment); err == nil && n >= 0 {
			numbers = append(numbers, n)
		}
	}

	if len(numbers) <= buildNumberSegment {
		return time.Time{}, fmt.Errorf("version %s has no build number", version)
	}

	build := numbers[buildNumberSegment]
	year := 2000 + build/1000
	rest := build % 1000
	month := rest / 50
	day := rest - month*50

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("build number %d of version %s is not a date", build, version)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
