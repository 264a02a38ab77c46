// Package publish commits an SDK update to a branch and opens a pull request for it.
package publish

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/git"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const shortSHALength = 7

// PullRequests is the subset of the code-hosting API used to publish an update.
type PullRequests interface {
	CreatePullRequest(ctx context.Context, base, head, title, body string) (*types.PullRequest, error)
	AddLabels(ctx context.Context, number int, labels []string) error
	ListOpenPullRequests(ctx context.Context, base string) ([]*types.PullRequest, error)
	CommentOnPullRequest(ctx context.Context, number int, body string) error
	ClosePullRequest(ctx context.Context, number int) error
	DeleteBranch(ctx context.Context, branch string) error
}

// Request is the content of a single update to publish.
type Request struct {
	// Version is the SDK version being updated to.
	Version string

	// ManifestPath is the file to commit.
	ManifestPath string

	CommitMessage string
	Title         string
	Body          string

	// SupersedesTitlePrefix matches the titles of earlier pull requests this one replaces.
	SupersedesTitlePrefix string
}

// Result describes what was published.
type Result struct {
	// Updated is false if the branch for the update already existed.
	Updated bool

	Branch      string
	SHA         string
	PullRequest *types.PullRequest
	Superseded  []int
}

// Publisher commits, pushes and opens pull requests for SDK updates.
type Publisher struct {
	opts  *types.Options
	git   git.Runner
	pulls PullRequests
}

// New returns a Publisher. pulls may be nil when no pull request will be created.
func New(opts *types.Options, runner git.Runner, pulls PullRequests) *Publisher {
	return &Publisher{
		opts:  opts,
		git:   runner,
		pulls: pulls,
	}
}

// BranchName returns the default branch name for an update to version.
func BranchName(version string) string {
	return strings.ToLower("update-dotnet-sdk-" + version)
}

// Publish commits req to a new branch and opens a pull request for it.
func (p *Publisher) Publish(ctx context.Context, req *Request) (*Result, error) {
	base, err := p.git.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}

	branch := p.opts.Branch
	if branch == "" {
		branch = BranchName(req.Version)
	}

	result := &Result{
		Branch:     branch,
		Superseded: []int{},
	}

	if !p.opts.DryRun && p.pulls == nil {
		return nil, fmt.Errorf("unable to create a pull request for branch %s: no repository configured", branch)
	}

	if p.opts.UserName != "" {
		if _, err := p.git.Run(ctx, "config", "user.name", p.opts.UserName); err != nil {
			return nil, err
		}
		log.Infof("Updated git user name to '%s'", p.opts.UserName)
	}

	if p.opts.UserEmail != "" {
		if _, err := p.git.Run(ctx, "config", "user.email", p.opts.UserEmail); err != nil {
			return nil, err
		}
		log.Infof("Updated git user email to '%s'", p.opts.UserEmail)
	}

	if p.opts.Repo != "" {
		remote := fmt.Sprintf("%s/%s.git", strings.TrimSuffix(p.serverURL(), "/"), p.opts.Repo)
		if _, err := p.git.Run(ctx, "remote", "set-url", "origin", remote); err != nil {
			return nil, err
		}
		if _, err := p.git.Run(ctx, "fetch", "origin"); err != nil {
			return nil, err
		}
	}

	if exists := p.git.RunIgnoreErrors(ctx, "rev-parse", "--verify", "--quiet", "remotes/origin/"+branch); exists != "" {
		log.Infof("The %s branch already exists", branch)
		return result, nil
	}

	if _, err := p.git.Run(ctx, "checkout", "-b", branch); err != nil {
		return nil, err
	}
	log.Infof("Created git branch %s", branch)

	if _, err := p.git.Run(ctx, "add", req.ManifestPath); err != nil {
		return nil, err
	}
	log.Infof("Staged git commit for '%s'", req.ManifestPath)

	log.Debugf("Commit message: %s", req.CommitMessage)
	if _, err := p.git.Run(ctx, "commit", "-s", "-m", req.CommitMessage); err != nil {
		return nil, err
	}

	sha, err := p.git.Run(ctx, "log", "--format=%H", "-n", "1")
	if err != nil {
		return nil, err
	}
	result.SHA = sha
	result.Updated = true
	log.Infof("Committed .NET SDK update to git (%s)", shortSHA(sha))

	if !p.opts.DryRun && p.opts.Repo != "" {
		if _, err := p.git.Run(ctx, "push", "-u", "origin", branch); err != nil {
			return nil, err
		}
		log.Infof("Pushed changes to repository (%s)", p.opts.Repo)
	}

	if p.opts.DryRun {
		log.Infof("Skipped creating a pull request for branch %s because this is a dry run", branch)
		return result, nil
	}

	pr, err := p.pulls.CreatePullRequest(ctx, base, branch, req.Title, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request for branch %s: %w", branch, err)
	}
	result.PullRequest = pr
	log.Infof("Created pull request #%d: %s", pr.Number, req.Title)
	log.Infof("View the pull request at %s", pr.URL)

	if len(p.opts.Labels) > 0 {
		if err := p.pulls.AddLabels(ctx, pr.Number, p.opts.Labels); err != nil {
			log.Errorf("Failed to apply label(s) to pull request #%d: %v", pr.Number, err)
		} else {
			log.Infof("Applied label(s) to pull request #%d: %s", pr.Number, strings.Join(p.opts.Labels, ", "))
		}
	}

	if p.opts.CloseSuperseded && req.SupersedesTitlePrefix != "" {
		superseded, err := p.closeSuperseded(ctx, base, pr, req.SupersedesTitlePrefix)
		if err != nil {
			return nil, err
		}
		result.Superseded = superseded
	}

	return result, nil
}

func (p *Publisher) closeSuperseded(ctx context.Context, base string, pr *types.PullRequest, titlePrefix string) ([]int, error) {
	open, err := p.pulls.ListOpenPullRequests(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to list open pull requests: %w", err)
	}

	closed := []int{}
	for _, candidate := range open {
		if candidate.Number == pr.Number ||
			candidate.Author != pr.Author ||
			!strings.HasPrefix(candidate.Title, titlePrefix) {
			continue
		}

		log.Infof("Closing pull request #%d as it is superseded by #%d", candidate.Number, pr.Number)

		if err := p.pulls.CommentOnPullRequest(ctx, candidate.Number, fmt.Sprintf("Superseded by #%d.", pr.Number)); err != nil {
			return nil, fmt.Errorf("failed to comment on pull request #%d: %w", candidate.Number, err)
		}
		if err := p.pulls.ClosePullRequest(ctx, candidate.Number); err != nil {
			return nil, fmt.Errorf("failed to close pull request #%d: %w", candidate.Number, err)
		}
		if err := p.pulls.DeleteBranch(ctx, candidate.Branch); err != nil {
			return nil, fmt.Errorf("failed to delete branch %s: %w", candidate.Branch, err)
		}

		closed = append(closed, candidate.Number)
	}
	return closed, nil
}

func (p *Publisher) serverURL() string {
	if p.opts.ServerURL == "" {
		return types.DefaultServerURL
	}
	return p.opts.ServerURL
}

func shortSHA(sha string) string {
	if len(sha) > shortSHALength {
		return sha[:shortSHALength]
	}
	return sha
}
