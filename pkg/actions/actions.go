// Package actions reads inputs from and writes outputs to a GitHub Actions runner.
package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const (
	outputEnv  = "GITHUB_OUTPUT"
	summaryEnv = "GITHUB_STEP_SUMMARY"

	OutputSdkVersion            = "sdk-version"
	OutputSdkUpdated            = "sdk-updated"
	OutputBranchName            = "branch-name"
	OutputPullRequestNumber     = "pull-request-number"
	OutputPullRequestURL        = "pull-request-html-url"
	OutputSecurity              = "security"
	OutputPullRequestsClosed    = "pull-requests-closed"
	OutputRuntimeVersion        = "runtime-version"
	OutputAspNetCoreVersion     = "aspnetcore-version"
	OutputWindowsDesktopVersion = "windows-desktop-version"
)

// InputEnv returns the environment variable the runner sets for the input name.
func InputEnv(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// Runner is the file-based command interface of the Actions runner.
type Runner struct {
	OutputPath  string
	SummaryPath string

	// Stdout receives workflow commands when OutputPath is not set.
	Stdout io.Writer
}

// FromEnvironment returns a Runner configured from the runner's environment variables.
func FromEnvironment() *Runner {
	return &Runner{
		OutputPath:  os.Getenv(outputEnv),
		SummaryPath: os.Getenv(summaryEnv),
		Stdout:      os.Stdout,
	}
}

// SetOutput sets a step output.
func (r *Runner) SetOutput(name, value string) error {
	log.Debugf("Setting output %s=%s", name, value)

	if r.OutputPath == "" {
		_, err := fmt.Fprintf(r.Stdout, "::set-output name=%s::%s\n", name, escapeData(value))
		return err
	}

	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("unexpected input: output %s contains the delimiter %s", name, delimiter)
	}

	return appendFile(r.OutputPath, fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter))
}

// AppendSummary appends markdown to the job summary. It does nothing outside of a runner.
func (r *Runner) AppendSummary(markdown string) error {
	if r.SummaryPath == "" {
		log.Debug("No step summary file is available")
		return nil
	}
	return appendFile(r.SummaryPath, markdown)
}

// SetOutputs publishes every output of an update run.
func (r *Runner) SetOutputs(result *types.UpdateResult) error {
	superseded := result.SupersededPullRequests
	if superseded == nil {
		superseded = []int{}
	}
	closed, err := json.Marshal(superseded)
	if err != nil {
		return err
	}

	outputs := []struct {
		name  string
		value string
	}{
		{OutputPullRequestNumber, result.PullRequestNumber},
		{OutputPullRequestURL, result.PullRequestURL},
		{OutputSdkUpdated, strconv.FormatBool(result.Updated)},
		{OutputSdkVersion, result.Version},
		{OutputBranchName, result.BranchName},
		{OutputSecurity, strconv.FormatBool(result.Security)},
		{OutputPullRequestsClosed, string(closed)},
		{OutputRuntimeVersion, result.RuntimeVersion},
		{OutputAspNetCoreVersion, result.AspNetCoreVersion},
		{OutputWindowsDesktopVersion, result.WindowsDesktopVersion},
	}

	for _, output := range outputs {
		if err := r.SetOutput(output.name, output.value); err != nil {
			return err
		}
	}
	return nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return errors.Wrapf(err, "failed to write to %s", path)
	}
	return nil
}

func escapeData(value string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(value)
}
