// Package updater decides whether a repository's .NET SDK can be updated and applies the update.
package updater

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/manifest"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/publish"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/releases"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

// Publisher publishes an update to source control. It is satisfied by *publish.Publisher.
type Publisher interface {
	Publish(ctx context.Context, req *publish.Request) (*publish.Result, error)
}

// Outcome is the result of a run together with the versions it was based on.
type Outcome struct {
	Result   *types.UpdateResult
	Versions *types.SdkVersions

	// Summary is the markdown step summary, if one was requested.
	Summary string
}

// Updater checks for and applies .NET SDK updates.
type Updater struct {
	opts      *types.Options
	source    ReleaseSource
	publisher Publisher

	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time
}

// New returns an Updater for opts.
func New(opts *types.Options, source ReleaseSource, publisher Publisher) *Updater {
	return &Updater{
		opts:      opts,
		source:    source,
		publisher: publisher,
		Now:       time.Now,
	}
}

// Run checks for an update to the SDK pinned by the configured global.json and applies it.
func (u *Updater) Run(ctx context.Context) (*Outcome, error) {
	m, err := manifest.Load(u.opts.GlobalJSONPath)
	if err != nil {
		return nil, err
	}

	channel, err := ResolveChannel(u.opts.Channel, m.Version)
	if err != nil {
		return nil, err
	}

	versions, err := u.resolve(ctx, m.Version, channel)
	if err != nil {
		return nil, err
	}

	current, latest := versions.Current, versions.Latest
	log.Infof("Current .NET SDK version is %s", current.SdkVersion)
	log.Infof("Current .NET runtime version is %s", current.RuntimeVersion)
	log.Infof("Latest .NET SDK version for channel '%s' is %s (runtime version %s)", channel, latest.SdkVersion, latest.RuntimeVersion)

	result := &types.UpdateResult{
		Version:                latest.SdkVersion,
		Security:               versions.Security,
		SupersededPullRequests: []int{},
		RuntimeVersion:         latest.RuntimeVersion,
		AspNetCoreVersion:      latest.AspNetCoreVersion,
		WindowsDesktopVersion:  latest.WindowsDesktopVersion,
	}
	outcome := &Outcome{Result: result, Versions: versions}

	if !versions.HasUpdate() {
		log.Info("The current .NET SDK version is up-to-date")
		return outcome, nil
	}

	if u.opts.SecurityOnly && !versions.Security {
		log.Infof("Skipping update to .NET SDK %s as it does not contain security fixes", latest.SdkVersion)
		result.Version = current.SdkVersion
		result.RuntimeVersion = current.RuntimeVersion
		result.AspNetCoreVersion = current.AspNetCoreVersion
		result.WindowsDesktopVersion = current.WindowsDesktopVersion
		return outcome, nil
	}

	if err := m.Update(latest.SdkVersion); err != nil {
		return nil, err
	}

	req, err := u.newRequest(versions, m.Path)
	if err != nil {
		return nil, err
	}

	published, err := u.publisher.Publish(ctx, req)
	if err != nil {
		return nil, err
	}

	result.Updated = published.Updated
	result.BranchName = published.Branch
	if published.PullRequest != nil {
		result.PullRequestNumber = strconv.Itoa(published.PullRequest.Number)
		result.PullRequestURL = published.PullRequest.URL
	}
	if published.Superseded != nil {
		result.SupersededPullRequests = published.Superseded
	}

	if u.opts.GenerateStepSummary && result.Updated {
		outcome.Summary = GenerateSummary(versions, result, u.Now())
	}

	return outcome, nil
}

func (u *Updater) resolve(ctx context.Context, currentVersion, channel string) (*types.SdkVersions, error) {
	if u.opts.Quality != "" && !types.IsValidQuality(u.opts.Quality) {
		return nil, fmt.Errorf("%w %q specified, must be one of: %s", types.ErrInvalidQuality, u.opts.Quality, strings.Join(types.Qualities, ", "))
	}

	official, err := u.source.GetReleaseChannel(ctx, channel)

	if u.opts.Quality == "" {
		if err != nil {
			return nil, err
		}
		return ResolveLatestOfficial(currentVersion, official)
	}

	if err != nil {
		log.Debugf("No official release feed is available for channel %s: %v", channel, err)
		official = nil
	}
	return ResolveLatestDaily(ctx, u.source, currentVersion, channel, u.opts.Quality, u.opts.PrereleaseLabel, official)
}

func (u *Updater) newRequest(versions *types.SdkVersions, manifestPath string) (*publish.Request, error) {
	prefix := u.opts.CommitMessagePrefix

	message := u.opts.CommitMessage
	if message == "" {
		var err error
		message, err = GenerateCommitMessage(prefix, versions.Current.SdkVersion, versions.Latest.SdkVersion)
		if err != nil {
			return nil, err
		}
	}

	return &publish.Request{
		Version:               versions.Latest.SdkVersion,
		ManifestPath:          manifestPath,
		CommitMessage:         message,
		Title:                 GeneratePullRequestTitle(prefix, versions.Latest.SdkVersion),
		Body:                  GeneratePullRequestBody(versions, u.opts),
		SupersedesTitlePrefix: PullRequestTitlePrefix(prefix),
	}, nil
}

var _ ReleaseSource = (*releases.Client)(nil)
