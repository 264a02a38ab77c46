package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/actions"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/git"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/publish"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/releases"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/tui"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/updater"
)

// EnvPrefix is the prefix of environment variables that configure the command outside of Actions.
const EnvPrefix = "UPDATE_DOTNET_SDK"

const (
	inputRepoToken           = "repo-token"
	inputGlobalJSONFile      = "global-json-file"
	inputBranchName          = "branch-name"
	inputChannel             = "channel"
	inputQuality             = "quality"
	inputPrereleaseLabel     = "prerelease-label"
	inputCommitMessage       = "commit-message"
	inputCommitMessagePrefix = "commit-message-prefix"
	inputLabels              = "labels"
	inputUserName            = "user-name"
	inputUserEmail           = "user-email"
	inputDryRun              = "dry-run"
	inputSecurityOnly        = "security-only"
	inputCloseSuperseded     = "close-superseded"
	inputGenerateStepSummary = "generate-step-summary"

	contextServerURL  = "server-url"
	contextAPIURL     = "api-url"
	contextRunID      = "run-id"
	contextRepository = "repository"
)

// contextEnv maps runner context values to the variables the runner sets.
var contextEnv = map[string]string{
	contextServerURL:  "GITHUB_SERVER_URL",
	contextAPIURL:     "GITHUB_API_URL",
	contextRunID:      "GITHUB_RUN_ID",
	contextRepository: "GITHUB_REPOSITORY",
}

var runUpdate = run

// NewUpdateCmd returns the command that checks for and applies .NET SDK updates.
func NewUpdateCmd() *cobra.Command {
	v := viper.New()

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update the .NET SDK pinned by a global.json file and open a pull request",
		Example: `  update-dotnet-sdk update --repo-token $GITHUB_TOKEN --global-json-file ./global.json
  update-dotnet-sdk update --global-json-file ./global.json --channel 8.0 --quality daily --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := newOptions(v)
			if err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return runUpdate(cmd.Context(), opts)
		},
	}

	flags := updateCmd.Flags()
	flags.String(inputRepoToken, "", "GitHub access token used to push the branch and open the pull request")
	flags.String(inputGlobalJSONFile, "./global.json", "Path to the global.json file to update")
	flags.String(inputBranchName, "", "Name of the branch to commit to, defaults to update-dotnet-sdk-<version>")
	flags.String(inputChannel, "", "Release channel to update within, defaults to the major.minor of the current SDK")
	flags.String(inputQuality, "", "Update to daily builds of this quality: "+strings.Join(types.Qualities, ", "))
	flags.String(inputPrereleaseLabel, "", "Only update to daily builds whose prerelease label starts with this value")
	flags.String(inputCommitMessage, "", "Commit message to use instead of the generated one")
	flags.String(inputCommitMessagePrefix, "", "Prefix for the generated commit message and pull request title")
	flags.String(inputLabels, "", "Comma-separated labels to apply to the pull request")
	flags.String(inputUserName, "", "git user name for the commit")
	flags.String(inputUserEmail, "", "git user email for the commit")
	flags.Bool(inputDryRun, false, "Commit locally without pushing or opening a pull request")
	flags.Bool(inputSecurityOnly, false, "Only update if the new SDK contains security fixes")
	flags.Bool(inputCloseSuperseded, true, "Close open pull requests superseded by the new one")
	flags.Bool(inputGenerateStepSummary, true, "Write a summary of the update to the job summary")
	flags.String(contextServerURL, types.DefaultServerURL, "GitHub server URL")
	flags.String(contextAPIURL, types.DefaultAPIURL, "GitHub API URL")
	flags.String(contextRunID, "", "Workflow run ID linked from the pull request")
	flags.String(contextRepository, "", "Repository to open the pull request in, as owner/name")

	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			log.Fatalf("failed to bind flag %s: %v", f.Name, err)
		}

		envs := []string{actions.InputEnv(f.Name)}
		if env, ok := contextEnv[f.Name]; ok {
			envs = []string{env}
		}
		envs = append(envs, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")))

		if err := v.BindEnv(append([]string{f.Name}, envs...)...); err != nil {
			log.Fatalf("failed to bind environment for %s: %v", f.Name, err)
		}
	})

	return updateCmd
}

func newOptions(v *viper.Viper) (*types.Options, error) {
	opts := &types.Options{
		AccessToken:         v.GetString(inputRepoToken),
		Repo:                v.GetString(contextRepository),
		RunID:               v.GetString(contextRunID),
		ServerURL:           v.GetString(contextServerURL),
		APIURL:              v.GetString(contextAPIURL),
		Channel:             v.GetString(inputChannel),
		Quality:             v.GetString(inputQuality),
		PrereleaseLabel:     v.GetString(inputPrereleaseLabel),
		SecurityOnly:        v.GetBool(inputSecurityOnly),
		Branch:              v.GetString(inputBranchName),
		CommitMessage:       v.GetString(inputCommitMessage),
		CommitMessagePrefix: v.GetString(inputCommitMessagePrefix),
		Labels:              types.ParseLabels(v.GetString(inputLabels)),
		UserName:            v.GetString(inputUserName),
		UserEmail:           v.GetString(inputUserEmail),
		CloseSuperseded:     v.GetBool(inputCloseSuperseded),
		DryRun:              v.GetBool(inputDryRun),
		GenerateStepSummary: v.GetBool(inputGenerateStepSummary),
	}

	if path := v.GetString(inputGlobalJSONFile); path != "" {
		abs, err := filepath.Abs(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("invalid global.json path %q: %w", path, err)
		}
		opts.GlobalJSONPath = abs
	}

	return opts, nil
}

func run(ctx context.Context, opts *types.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var pulls publish.PullRequests
	if opts.Repo != "" {
		gh, err := publish.NewGitHub(opts)
		if err != nil {
			return err
		}
		pulls = gh
	}

	runner := git.NewCLI(filepath.Dir(opts.GlobalJSONPath))
	u := updater.New(opts, releases.NewClient(), publish.New(opts, runner, pulls))

	outcome, err := u.Run(ctx)
	if err != nil {
		return err
	}

	render(outcome)

	platform := actions.FromEnvironment()
	if err := platform.SetOutputs(outcome.Result); err != nil {
		return err
	}
	if outcome.Summary != "" {
		if err := platform.AppendSummary(outcome.Summary); err != nil {
			return err
		}
	}
	return nil
}

func render(outcome *updater.Outcome) {
	versions, result := outcome.Versions, outcome.Result

	summary := tui.ResultSummary{
		Version:        result.Version,
		PullRequestURL: result.PullRequestURL,
		Superseded:     result.SupersededPullRequests,
	}

	switch {
	case result.Updated:
		summary.Status = tui.StatusUpdated
		fmt.Fprint(os.Stderr, tui.RenderUpdatePlan(tui.UpdatePlan{
			Channel:        channelOf(versions.Latest.SdkVersion),
			CurrentVersion: versions.Current.SdkVersion,
			LatestVersion:  versions.Latest.SdkVersion,
			CurrentRuntime: versions.Current.RuntimeVersion,
			LatestRuntime:  versions.Latest.RuntimeVersion,
			SecurityIssues: issueIDs(versions.SecurityIssues),
		}))
	case !versions.HasUpdate():
		summary.Status = tui.StatusUpToDate
	case result.Version == versions.Current.SdkVersion:
		summary.Status = tui.StatusSkipped
	default:
		summary.Status = tui.StatusExists
	}

	fmt.Fprint(os.Stderr, tui.RenderResult(summary))
	if outcome.Summary != "" {
		log.Debug(tui.RenderMarkdown(outcome.Summary))
	}
}

func channelOf(version string) string {
	channel, err := updater.ResolveChannel("", version)
	if err != nil {
		return version
	}
	return channel
}

func issueIDs(issues []types.SecurityIssue) []string {
	ids := make([]string, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
	}
	return ids
}
