// Package bundleconfigs provides the Configuration type for warden: bundle
// identity, rule sources, local overlays, drift policy, and exporters.
package bundleconfigs

import (
	"fmt"
	"path/filepath"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/wardenhq/warden/api"
	"github.com/wardenhq/warden/api/v1beta1"
	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/export"
	"github.com/wardenhq/warden/pkg/overlay"
	"github.com/wardenhq/warden/pkg/policy"
	"github.com/wardenhq/warden/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/bundleconfig/main.go -o bundleconfigs.v1beta1.json

// DefaultNames are the config file names looked up from the working
// directory towards the root.
var DefaultNames = []string{"warden.yaml", ".warden.yaml"}

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed bundleconfigs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for warden configurations.
	ValidKinds = []string{"Configuration"}

	// DefaultValidator validates warden configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/bundleconfigs.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the warden configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// Bundle identifies the canonical bundle this project maintains.
	Bundle *BundleSpec `json:"bundle,omitempty" jsonschema:"title=Bundle"`
	// Overlays holds author-local customizations applied after merging.
	Overlays *OverlaySpec `json:"overlays,omitempty" jsonschema:"title=Overlays"`
	// Drift configures drift detection policy.
	Drift *DriftSpec `json:"drift,omitempty" jsonschema:"title=Drift"`
	// Sources lists rule sources in priority order; earlier sources win
	// fingerprint and heading collisions.
	Sources []SourceSpec `json:"sources,omitempty" jsonschema:"title=Sources"`
	// Exporters configure external destinations for the finalized bundle.
	Exporters        []ExporterSpec `json:"exporters,omitempty" jsonschema:"title=Exporters"`
	v1beta1.TypeMeta `json:",inline"`
}

// BundleSpec names and versions the bundle.
type BundleSpec struct {
	// ID names the bundle.
	ID string `json:"id" jsonschema:"title=ID"`
	// Version is the bundle's own version.
	Version string `json:"version,omitempty" jsonschema:"title=Version"`
	// SpecVersion is the version of the bundle layout.
	SpecVersion string `json:"specVersion,omitempty" jsonschema:"title=Spec Version"`
	// Props holds top-level properties addressable by dot-path selectors.
	Props map[string]any `json:"props,omitempty" jsonschema:"title=Props"`
}

// SourceSpec is one rule source: a markdown file or a directory of them.
type SourceSpec struct {
	// Path is the file or directory to read, relative to the config file.
	Path string `json:"path" jsonschema:"title=Path"`
	// Required aborts the merge when the source cannot be read. Optional
	// sources that cannot be read are warnings.
	Required bool `json:"required,omitempty" jsonschema:"title=Required"`
}

// OverlaySpec carries the author-local overlay list.
type OverlaySpec struct {
	// Overrides are applied in order after the merge.
	Overrides []overlay.Overlay `json:"overrides,omitempty" jsonschema:"title=Overrides"`
}

// DriftSpec configures drift detection.
type DriftSpec struct {
	// RemapPolicy decides which local severity overrides are acceptable.
	RemapPolicy *RemapPolicySpec `json:"remapPolicy,omitempty" jsonschema:"title=Remap Policy"`
}

// RemapPolicySpec holds the severity remap policy expression.
type RemapPolicySpec struct {
	// Allow is a CEL expression over `rule`, `from`, and `to`. It must
	// evaluate to a boolean.
	Allow string `json:"allow" jsonschema:"title=Allow"`
}

// ExporterSpec configures one named exporter.
type ExporterSpec struct {
	// Name identifies the exporter in CLI arguments and results.
	Name string `json:"name" jsonschema:"title=Name"`
	// Command is the argv to run, with shell-style quoting. The finalized
	// section list arrives as YAML on stdin.
	Command string `json:"command" jsonschema:"title=Command"`
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "Configuration",
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.TypeMeta.APIVersion == "" {
		c.TypeMeta.APIVersion = v1beta1.APIVersion
	}

	if c.TypeMeta.Kind == "" {
		c.TypeMeta.Kind = "Configuration"
	}

	if c.Bundle == nil {
		c.Bundle = &BundleSpec{ID: "rules"}
	}

	if c.Overlays == nil {
		c.Overlays = &OverlaySpec{}
	}
}

// Validate checks everything that can fail before touching the filesystem:
// selector syntax, the remap policy expression, and exporter commands.
func (c *Config) Validate() error {
	if c.Bundle == nil || c.Bundle.ID == "" {
		return fmt.Errorf("validate config: bundle.id is required")
	}

	if c.Overlays != nil {
		for _, o := range c.Overlays.Overrides {
			if _, err := overlay.ParseSelector(o.Selector); err != nil {
				return fmt.Errorf("validate overlay: %w", err)
			}
		}
	}

	if _, err := c.RemapPolicy(); err != nil {
		return fmt.Errorf("validate drift config: %w", err)
	}

	if _, err := c.ExporterRegistry(); err != nil {
		return fmt.Errorf("validate exporters: %w", err)
	}

	return nil
}

// RemapPolicy compiles the configured severity remap policy, or returns nil
// when none is configured.
func (c *Config) RemapPolicy() (*policy.RemapPolicy, error) {
	if c.Drift == nil || c.Drift.RemapPolicy == nil || c.Drift.RemapPolicy.Allow == "" {
		return nil, nil //nolint:nilnil // No policy configured.
	}

	return policy.CompileRemap(c.Drift.RemapPolicy.Allow)
}

// BundleMeta converts the bundle spec into loader metadata.
func (c *Config) BundleMeta() bundle.Meta {
	meta := bundle.Meta{}

	if c.Bundle != nil {
		meta.ID = c.Bundle.ID
		meta.Version = c.Bundle.Version
		meta.SpecVersion = c.Bundle.SpecVersion
		meta.Props = c.Bundle.Props
	}

	return meta
}

// BundleSources builds loader sources for the configured paths, resolved
// against baseDir.
func (c *Config) BundleSources(baseDir string) []bundle.Source {
	sources := make([]bundle.Source, 0, len(c.Sources))

	for _, s := range c.Sources {
		path := s.Path
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		sources = append(sources, bundle.NewDirSource(path, s.Required))
	}

	return sources
}

// Overrides returns the configured overlay list.
func (c *Config) Overrides() []overlay.Overlay {
	if c.Overlays == nil {
		return nil
	}

	return c.Overlays.Overrides
}

// ExporterRegistry builds a registry from the configured exporters.
func (c *Config) ExporterRegistry() (*export.Registry, error) {
	exporters := make([]export.Exporter, 0, len(c.Exporters))

	for _, spec := range c.Exporters {
		e, err := export.NewCommandExporter(spec.Name, spec.Command)
		if err != nil {
			return nil, err
		}

		exporters = append(exporters, e)
	}

	return export.NewRegistry(exporters...), nil
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Write writes the config to the specified path if it doesn't already exist.
func (c Config) Write(path string) error {
	b, err := c.MarshalYAML()
	if err != nil {
		return err
	}

	err = api.WriteIfNotExists(path, b)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// WriteDefault writes the embedded default config.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// Find locates the nearest config file at or above targetPath.
func Find(targetPath string) (string, error) {
	path, err := api.FindConfigFile(targetPath, DefaultNames)
	if err != nil {
		return "", fmt.Errorf("find config: %w", err)
	}

	return path, nil
}
