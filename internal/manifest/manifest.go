// Package manifest defines the gallery configuration documents and
// their wire formats: the YAML gallery config, the YAML batch config
// used by repositories hosting several galleries side by side, and the
// JSON parameters document listing the image/code entries per chapter.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the well-known name of a gallery config at a remote root
const DefaultFilename = "gallery_config.yaml"

// BatchFilename is the well-known name of a batch config at a remote root
const BatchFilename = "batch_gallery_config.yaml"

// ErrInvalidConfig indicates a parsed config was structurally unusable
var ErrInvalidConfig = errors.New("invalid gallery configuration")

// requiredFields are checked in this order so diagnostics are deterministic
var requiredFields = []string{
	"project_name",
	"repository_url",
	"user_content_version",
	"description",
	"gallery_parameters_path",
}

// Config is the top-level gallery configuration document.
// Field names on the wire are snake_case; the mapping is explicit (no
// runtime key reformatting).
type Config struct {
	ProjectName    string `yaml:"project_name" json:"project_name"`
	RepositoryURL  string `yaml:"repository_url" json:"repository_url"`
	ContentVersion string `yaml:"user_content_version" json:"user_content_version"`
	Description    string `yaml:"description" json:"description"`
	Favicon        string `yaml:"favicon,omitempty" json:"favicon,omitempty"`
	ParametersPath string `yaml:"gallery_parameters_path" json:"gallery_parameters_path"`
	Footer         string `yaml:"footer,omitempty" json:"footer,omitempty"`
}

// BatchConfig lists gallery configs hosted side by side in one
// repository, as path fragments relative to the same remote root.
type BatchConfig struct {
	ProjectName string `yaml:"projectName"`
	// nil means the galleryConfigs key was absent, which is invalid;
	// an empty list is present-but-empty
	GalleryConfigs []string `yaml:"galleryConfigs"`
	Favicon        string   `yaml:"favicon,omitempty"`
}

// Validate checks that every required field is present and non-empty
func (c Config) Validate() error {

	values := map[string]string{
		"project_name":            c.ProjectName,
		"repository_url":          c.RepositoryURL,
		"user_content_version":    c.ContentVersion,
		"description":             c.Description,
		"gallery_parameters_path": c.ParametersPath,
	}

	missing := []string{}

	for _, key := range requiredFields {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required field(s) %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}

	return nil
}

// ParseConfig parses and validates a YAML gallery configuration
func ParseConfig(data []byte) (Config, error) {

	var c Config

	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// ParseBatch parses and validates a YAML batch gallery configuration
func ParseBatch(data []byte) (BatchConfig, error) {

	var b BatchConfig

	if err := yaml.Unmarshal(data, &b); err != nil {
		return BatchConfig{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	if b.GalleryConfigs == nil {
		return BatchConfig{}, fmt.Errorf("%w: missing required key galleryConfigs", ErrInvalidConfig)
	}

	return b, nil
}

// Marshal renders the config back to YAML, e.g. for the staging cache
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
