package updater

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/releases"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/sdkversion"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/util/sets"
)

// ReleaseSource fetches release metadata. It is satisfied by *releases.Client.
type ReleaseSource interface {
	GetReleaseChannel(ctx context.Context, channel string) (*releases.ReleaseChannel, error)
	GetLatestDaily(ctx context.Context, channel, quality string) (*types.ReleaseInfo, error)
	GetDailyRelease(ctx context.Context, sdkVersion string) (*types.ReleaseInfo, error)
}

// ResolveChannel returns the configured channel, or the major.minor of the current SDK version.
func ResolveChannel(configured, currentVersion string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	version, err := sdkversion.Parse(currentVersion)
	if err != nil {
		return "", fmt.Errorf("unable to infer the .NET release channel: %w", err)
	}

	channel, err := version.MajorMinor()
	if err != nil {
		return "", fmt.Errorf("unable to infer the .NET release channel from version %s: %w", currentVersion, err)
	}
	return channel, nil
}

// ResolveLatestOfficial resolves the current and latest SDK releases of an official channel feed.
func ResolveLatestOfficial(currentVersion string, channel *releases.ReleaseChannel) (*types.SdkVersions, error) {
	current, err := channel.FindRelease(currentVersion)
	if err != nil {
		return nil, err
	}

	latest, err := channel.FindRelease(channel.LatestSdk)
	if err != nil {
		return nil, err
	}

	latest = preventDowngrade(current, latest)

	security := latest.Security
	var skipped []types.SecurityIssue

	for _, release := range skippedReleases(current, latest, channel) {
		if release.Security {
			security = true
		}
		skipped = append(skipped, release.SecurityIssues()...)
	}

	return &types.SdkVersions{
		Current:        current,
		Latest:         latest,
		Security:       security,
		SecurityIssues: mergeSecurityIssues(latest.SecurityIssues, skipped, current.SecurityIssues),
	}, nil
}

// ResolveLatestDaily resolves the latest daily build of a channel for the given quality.
// official may be nil if the channel has no official feed yet.
func ResolveLatestDaily(
	ctx context.Context,
	source ReleaseSource,
	currentVersion, channel, quality, prereleaseLabel string,
	official *releases.ReleaseChannel,
) (*types.SdkVersions, error) {
	latest, err := source.GetLatestDaily(ctx, channel, quality)
	if err != nil {
		return nil, err
	}

	var current *types.ReleaseInfo
	if official != nil {
		if current, err = official.FindRelease(currentVersion); err != nil {
			log.Debugf("Release %s not found in the official feed for channel %s: %v", currentVersion, channel, err)
			current = nil
		}
	}
	if current == nil {
		if current, err = source.GetDailyRelease(ctx, currentVersion); err != nil {
			return nil, err
		}
	}

	if prereleaseLabel != "" && !hasPrereleaseLabel(latest.SdkVersion, prereleaseLabel) {
		log.Infof("Ignoring .NET SDK %s as its prerelease label does not match %q", latest.SdkVersion, prereleaseLabel)
		latest = current
	}

	latest = preventDowngrade(current, latest)

	return &types.SdkVersions{
		Current:        current,
		Latest:         latest,
		SecurityIssues: []types.SecurityIssue{},
	}, nil
}

func hasPrereleaseLabel(sdkVersion, label string) bool {
	version, ok := sdkversion.TryParse(sdkVersion)
	if !ok {
		_, prerelease, _ := strings.Cut(sdkVersion, "-")
		return strings.HasPrefix(prerelease, label)
	}
	return strings.HasPrefix(version.Prerelease, label)
}

func preventDowngrade(current, latest *types.ReleaseInfo) *types.ReleaseInfo {
	cmp, err := sdkversion.Compare(current.SdkVersion, latest.SdkVersion)
	if err != nil {
		log.Debugf("Unable to compare .NET SDK versions %s and %s: %v", current.SdkVersion, latest.SdkVersion, err)
		return latest
	}
	if cmp > 0 {
		log.Infof("The current .NET SDK version %s is newer than the latest version %s, so it will not be changed", current.SdkVersion, latest.SdkVersion)
		return current
	}
	return latest
}

// skippedReleases returns the releases of the runtime patch versions strictly
// between current and latest, when both share the same major.minor.
func skippedReleases(current, latest *types.ReleaseInfo, channel *releases.ReleaseChannel) []*releases.Release {
	currentRuntime, ok := sdkversion.TryParse(current.RuntimeVersion)
	if !ok || currentRuntime.IsPrerelease() || currentRuntime.Patch < 0 {
		return nil
	}
	latestRuntime, ok := sdkversion.TryParse(latest.RuntimeVersion)
	if !ok || latestRuntime.IsPrerelease() || latestRuntime.Patch < 0 {
		return nil
	}
	if currentRuntime.Major != latestRuntime.Major || currentRuntime.Minor != latestRuntime.Minor {
		return nil
	}
	if latestRuntime.Patch-currentRuntime.Patch <= 1 {
		return nil
	}

	prefix := strconv.Itoa(currentRuntime.Major) + "." + strconv.Itoa(currentRuntime.Minor) + "."

	var skipped []*releases.Release
	for patch := currentRuntime.Patch + 1; patch < latestRuntime.Patch; patch++ {
		runtimeVersion := prefix + strconv.Itoa(patch)
		if release, found := channel.FindRuntimeRelease(runtimeVersion); found {
			log.Debugf("Found skipped .NET runtime release %s (security: %t)", runtimeVersion, release.Security)
			skipped = append(skipped, release)
		}
	}
	return skipped
}

// mergeSecurityIssues unions latest's advisories with those of skipped releases
// not already fixed by current, de-duplicated by ID and sorted ordinally.
func mergeSecurityIssues(latest, skipped, current []types.SecurityIssue) []types.SecurityIssue {
	fixed := sets.New[string]()
	for _, issue := range current {
		fixed.Insert(issue.ID)
	}

	seen := sets.New[string]()
	merged := []types.SecurityIssue{}

	add := func(issue types.SecurityIssue) {
		if seen.Has(issue.ID) {
			return
		}
		seen.Insert(issue.ID)
		merged = append(merged, issue)
	}

	for _, issue := range latest {
		add(issue)
	}
	for _, issue := range skipped {
		if !fixed.Has(issue.ID) {
			add(issue)
		}
	}

	slices.SortFunc(merged, func(a, b types.SecurityIssue) int {
		return strings.Compare(a.ID, b.ID)
	})
	return merged
}
