package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ActiveState/termchain"
)

// ErrConfig is returned when a scenario is given incomplete or invalid input
var ErrConfig = errors.New("invalid scenario configuration")

// ConfigError names every mandatory field that is missing and every other problem found in a scenario's input.
// It is always returned before any process is launched.
type ConfigError struct {
	Missing  []string
	Problems []string
}

func (e *ConfigError) Error() string {
	var msgs []string
	if len(e.Missing) > 0 {
		msgs = append(msgs, fmt.Sprintf("mandatory params %s are missing", strings.Join(e.Missing, " ")))
	}
	msgs = append(msgs, e.Problems...)
	return strings.Join(msgs, "; ")
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

func (e *ConfigError) empty() bool {
	return len(e.Missing) == 0 && len(e.Problems) == 0
}

type field struct {
	name  string
	value string
}

// missingFields returns the names of the fields whose value is empty, in the order given
func missingFields(fields ...field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ConfigureSettings is the input of the configure scenario
type ConfigureSettings struct {
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	ProfileName     string `yaml:"profileName"`
	Region          string `yaml:"region"`
}

// DefaultConfigureSettings fills in the optional fields of ConfigureSettings
var DefaultConfigureSettings = ConfigureSettings{
	ProfileName: "amplify-integ-test-user",
	Region:      "us-east-2",
}

// RegionOptions lists the regions in the order the region prompt offers them
var RegionOptions = []string{
	"us-east-1",
	"us-east-2",
	"us-west-2",
	"eu-west-1",
	"eu-west-2",
	"eu-central-1",
	"ap-northeast-1",
	"ap-northeast-2",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-south-1",
}

// WithDefaults returns a copy of s with the empty optional fields taken from DefaultConfigureSettings
func (s ConfigureSettings) WithDefaults() ConfigureSettings {
	if s.ProfileName == "" {
		s.ProfileName = DefaultConfigureSettings.ProfileName
	}
	if s.Region == "" {
		s.Region = DefaultConfigureSettings.Region
	}
	return s
}

// Validate reports the missing mandatory fields, and a region the prompt does not offer
func (s ConfigureSettings) Validate() error {
	cerr := &ConfigError{
		Missing: missingFields(
			field{"accessKeyId", s.AccessKeyID},
			field{"secretAccessKey", s.SecretAccessKey},
			field{"region", s.Region},
		),
	}
	if s.Region != "" {
		if _, err := termchain.SelectionKeys(s.Region, RegionOptions); err != nil {
			cerr.Problems = append(cerr.Problems, err.Error())
		}
	}
	if cerr.empty() {
		return nil
	}
	return cerr
}

// ProjectSettings is the input of the configure project scenario
type ProjectSettings struct {
	Dir              string `yaml:"dir"`
	EnableContainers bool   `yaml:"enableContainers"`
}

func (s ProjectSettings) Validate() error {
	if missing := missingFields(field{"dir", s.Dir}); len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}
