package publish

import (
	"context"
	"fmt"
	"strings"

	ghapi "github.com/google/go-github/v72/github"
	log "github.com/sirupsen/logrus"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const listPageSize = 100

// GitHub implements PullRequests with the GitHub REST API.
type GitHub struct {
	client       *ghapi.Client
	organization string
	repository   string
}

// NewGitHub returns a GitHub client for the repository in opts.
func NewGitHub(opts *types.Options) (*GitHub, error) {
	client := ghapi.NewClient(nil).WithAuthToken(opts.AccessToken)

	apiURL := strings.TrimSuffix(opts.APIURL, "/")
	if apiURL != "" && apiURL != types.DefaultAPIURL {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL+"/", apiURL+"/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.APIURL, err)
		}
	}

	return &GitHub{
		client:       client,
		organization: opts.Owner(),
		repository:   opts.RepoName(),
	}, nil
}

func (g *GitHub) CreatePullRequest(ctx context.Context, base, head, title, body string) (*types.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Create(ctx, g.organization, g.repository, &ghapi.NewPullRequest{
		Title:               ghapi.Ptr(title),
		Head:                ghapi.Ptr(head),
		Base:                ghapi.Ptr(base),
		Body:                ghapi.Ptr(body),
		MaintainerCanModify: ghapi.Ptr(true),
		Draft:               ghapi.Ptr(false),
	})
	if err != nil {
		return nil, err
	}
	return toPullRequest(pr), nil
}

func (g *GitHub) AddLabels(ctx context.Context, number int, labels []string) error {
	_, _, err := g.client.Issues.AddLabelsToIssue(ctx, g.organization, g.repository, number, labels)
	return err
}

func (g *GitHub) ListOpenPullRequests(ctx context.Context, base string) ([]*types.PullRequest, error) {
	opts := &ghapi.PullRequestListOptions{
		State:       "open",
		Base:        base,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: ghapi.ListOptions{PerPage: listPageSize},
	}

	var all []*types.PullRequest
	for {
		prs, resp, err := g.client.PullRequests.List(ctx, g.organization, g.repository, opts)
		if err != nil {
			return nil, err
		}
		for _, pr := range prs {
			all = append(all, toPullRequest(pr))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debugf("Found %d open pull request(s) targeting %s", len(all), base)
	return all, nil
}

func (g *GitHub) CommentOnPullRequest(ctx context.Context, number int, body string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, g.organization, g.repository, number, &ghapi.IssueComment{
		Body: ghapi.Ptr(body),
	})
	return err
}

func (g *GitHub) ClosePullRequest(ctx context.Context, number int) error {
	_, _, err := g.client.PullRequests.Edit(ctx, g.organization, g.repository, number, &ghapi.PullRequest{
		State: ghapi.Ptr("closed"),
	})
	return err
}

func (g *GitHub) DeleteBranch(ctx context.Context, branch string) error {
	_, err := g.client.Git.DeleteRef(ctx, g.organization, g.repository, "heads/"+branch)
	return err
}

func toPullRequest(pr *ghapi.PullRequest) *types.PullRequest {
	return &types.PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Branch: pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
		Author: pr.GetUser().GetLogin(),
	}
}
