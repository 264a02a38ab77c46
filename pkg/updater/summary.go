package updater

import (
	"fmt"
	"strings"
	"time"

	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const millisecondsPerDay = int64(24 * time.Hour / time.Millisecond)

// DaysSince returns the whole number of days between date and now, rounded down.
func DaysSince(date, now time.Time) int64 {
	delta := now.Sub(date).Milliseconds()
	days := delta / millisecondsPerDay
	if delta%millisecondsPerDay != 0 && delta < 0 {
		days--
	}
	return days
}

// GenerateSummary renders a markdown report of an update for the workflow step summary.
func GenerateSummary(update *types.SdkVersions, result *types.UpdateResult, now time.Time) string {
	latest := update.Latest

	var b strings.Builder
	b.WriteString("## .NET SDK update\n\n")

	if update.HasUpdate() {
		b.WriteString(fmt.Sprintf(":rocket: The .NET SDK was updated from `%s` to `%s`.\n\n",
			update.Current.SdkVersion, latest.SdkVersion))
	} else {
		b.WriteString(fmt.Sprintf(":white_check_mark: The .NET SDK `%s` is up-to-date.\n\n", latest.SdkVersion))
	}

	if !latest.ReleaseDate.IsZero() {
		days := DaysSince(latest.ReleaseDate, now)
		unit := "days"
		if days == 1 {
			unit = "day"
		}
		b.WriteString(fmt.Sprintf(":calendar: Version `%s` was released %d %s ago on %s.\n\n",
			latest.SdkVersion, days, unit, latest.ReleaseDate.Format("2006-01-02")))
	}

	if latest.ReleaseNotes != "" {
		b.WriteString(fmt.Sprintf(":memo: [Release notes](%s)\n\n", latest.ReleaseNotes))
	}

	if result != nil && result.PullRequestURL != "" {
		b.WriteString(fmt.Sprintf(":twisted_rightwards_arrows: Pull request [#%s](%s)\n\n", result.PullRequestNumber, result.PullRequestURL))
	}

	if update.Security && len(update.SecurityIssues) > 0 {
		b.WriteString(":closed_lock_with_key: This release includes fixes for the following security issue(s):\n\n")
		for _, issue := range update.SecurityIssues {
			if issue.URL != "" {
				b.WriteString(fmt.Sprintf("- [%s](%s)\n", issue.ID, issue.URL))
			} else {
				b.WriteString(fmt.Sprintf("- %s\n", issue.ID))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
