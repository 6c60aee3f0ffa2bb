package bundle

import (
	"errors"
	"fmt"
)

// ManifestName is the name the manifest carries inside a bundle.
const ManifestName = "specification.json"

// ErrManifestMissing is returned when a bundle does not contain a manifest.
var ErrManifestMissing = errors.New("bundle manifest missing")

// Manifest describes a plugin bundle.
type Manifest struct {
	Platform            string   `json:"platform"`
	ID                  string   `json:"id"`
	Version             string   `json:"version"`
	SubPlatforms        []string `json:"sub_platforms,omitempty"`
	Name                string   `json:"name,omitempty"`
	ShortName           string   `json:"short_name,omitempty"`
	Description         string   `json:"description,omitempty"`
	Author              string   `json:"author,omitempty"`
	Capabilities        []string `json:"capabilities,omitempty"`
	CapabilitiesAllowed []string `json:"capabilities_allowed,omitempty"`
	Dependencies        []string `json:"dependencies,omitempty"`
	MainFile            string   `json:"main_file,omitempty"`
	Resources           []string `json:"resources,omitempty"`
}

// Validate checks that the mandatory manifest values are present.
func (m Manifest) Validate() error {
	for _, required := range []struct {
		name  string
		value string
	}{
		{"platform", m.Platform},
		{"id", m.ID},
		{"version", m.Version},
	} {
		if required.value == "" {
			return fmt.Errorf("manifest missing required value %q", required.name)
		}
	}

	return nil
}
