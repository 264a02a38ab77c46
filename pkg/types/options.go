package types

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	DefaultServerURL = "https://github.com"
	DefaultAPIURL    = "https://api.github.com"

	QualityDaily     = "daily"
	QualitySigned    = "signed"
	QualityValidated = "validated"
	QualityPreview   = "preview"
)

// Qualities lists the accepted daily build qualities.
var Qualities = []string{QualityDaily, QualitySigned, QualityValidated, QualityPreview}

// IsValidQuality reports whether quality is one of Qualities.
func IsValidQuality(quality string) bool {
	for _, q := range Qualities {
		if q == quality {
			return true
		}
	}
	return false
}

// Options contains the settings for a single update run. It is built once
// from the command line and environment and is not modified afterwards.
type Options struct {
	// Authentication and repository context
	AccessToken string
	Repo        string
	RunID       string
	ServerURL   string
	APIURL      string

	// Manifest and release selection
	GlobalJSONPath  string
	Channel         string
	Quality         string
	PrereleaseLabel string
	SecurityOnly    bool

	// Commit and pull request
	Branch              string
	CommitMessage       string
	CommitMessagePrefix string
	Labels              []string
	UserName            string
	UserEmail           string
	CloseSuperseded     bool

	// Behaviour
	DryRun              bool
	GenerateStepSummary bool
}

// Validate checks the options for configuration errors and reports all of them at once.
func (o *Options) Validate() error {
	var allErrors *multierror.Error

	if o.AccessToken == "" {
		allErrors = multierror.Append(allErrors, fmt.Errorf("no GitHub access token specified"))
	}
	if o.GlobalJSONPath == "" {
		allErrors = multierror.Append(allErrors, fmt.Errorf("no path to global.json file specified"))
	}
	if o.Quality != "" && !IsValidQuality(o.Quality) {
		allErrors = multierror.Append(allErrors, fmt.Errorf("%w %q specified, must be one of: %s", ErrInvalidQuality, o.Quality, strings.Join(Qualities, ", ")))
	}
	if o.PrereleaseLabel != "" && o.Quality == "" {
		allErrors = multierror.Append(allErrors, fmt.Errorf("a prerelease label can only be used with a quality"))
	}
	if o.Repo != "" {
		if owner, name, ok := strings.Cut(o.Repo, "/"); !ok || owner == "" || name == "" {
			allErrors = multierror.Append(allErrors, fmt.Errorf("invalid repository %q, expected owner/name", o.Repo))
		}
	}

	return allErrors.ErrorOrNil()
}

// Owner returns the owner part of Repo.
func (o *Options) Owner() string {
	owner, _, _ := strings.Cut(o.Repo, "/")
	return owner
}

// RepoName returns the name part of Repo.
func (o *Options) RepoName() string {
	_, name, _ := strings.Cut(o.Repo, "/")
	return name
}

// IsGitHubDotCom reports whether the options target the public GitHub instance.
func (o *Options) IsGitHubDotCom() bool {
	server := strings.TrimSuffix(o.ServerURL, "/")
	return server == "" || strings.EqualFold(server, DefaultServerURL)
}

// ParseLabels splits a comma-separated label list, dropping blank entries.
func ParseLabels(value string) []string {
	var labels []string
	for _, label := range strings.Split(value, ",") {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
