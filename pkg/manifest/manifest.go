// Package manifest reads and patches the SDK version pinned by a global.json file.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/types"
)

const sdkVersionKey = "sdk.version"

// Manifest is a global.json file loaded from disk.
type Manifest struct {
	Path    string
	Version string

	content string
	mode    os.FileMode
}

// Load reads the global.json file at path and extracts its SDK version.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("the global.json file '%s' cannot be found: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}

	version := v.GetString(sdkVersionKey)
	if version == "" {
		return nil, fmt.Errorf("%w in '%s'", types.ErrSdkVersionNotFound, path)
	}

	return &Manifest{
		Path:    path,
		Version: version,
		content: string(data),
		mode:    info.Mode().Perm(),
	}, nil
}

// Patch replaces every quoted occurrence of current in text with latest.
// Formatting and line endings are preserved.
func Patch(text, current, latest string) string {
	pattern := regexp.MustCompile(regexp.QuoteMeta(`"` + current + `"`))
	return pattern.ReplaceAllLiteralString(text, `"`+latest+`"`)
}

// Update rewrites the manifest on disk to pin latest.
func (m *Manifest) Update(latest string) error {
	log.Infof("Updating .NET SDK version in '%s' to %s...", m.Path, latest)

	patched := Patch(m.content, m.Version, latest)
	if err := os.WriteFile(m.Path, []byte(patched), m.mode); err != nil {
		return fmt.Errorf("failed to write '%s': %w", m.Path, err)
	}

	m.content = patched
	m.Version = latest

	log.Infof("Updated .NET SDK version in '%s' to %s", m.Path, latest)
	return nil
}
