// Package allowlists provides the AllowList governance artifact: the record
// of which bundle hashes a team has accepted, with approver identity and
// timestamp.
package allowlists

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/wardenhq/warden/api"
	"github.com/wardenhq/warden/api/v1beta1"
	"github.com/wardenhq/warden/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/allowlist/main.go -o allowlists.v1beta1.json

const (
	// Version is the current allow-list format version.
	Version = "1"

	// DefaultName is the allow-list name within a project directory.
	DefaultName = "warden-allowlist.yaml"
)

var (
	//go:embed allowlists.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for allow-lists.
	ValidKinds = []string{"AllowList"}

	// DefaultValidator validates allow-lists against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/allowlists.v1beta1.json", schemaJSON)

	ErrInvalidAllowList = errors.New("invalid allow-list")

	// Compile-time interface checks.
	_ v1beta1.Object = (*AllowList)(nil)
)

// ApprovedSource is one governance approval.
type ApprovedSource struct {
	// Value is the approved bundle hash or source identifier.
	Value string `json:"value" jsonschema:"title=Value"`
	// ApprovedBy identifies who approved the value.
	ApprovedBy string `json:"approved_by" jsonschema:"title=Approved By"`
	// ApprovedAt is the RFC 3339 approval timestamp.
	ApprovedAt string `json:"approved_at" jsonschema:"title=Approved At"`
}

// AllowList is the governance record of accepted bundle hashes.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type AllowList struct {
	// Version of the allow-list format.
	Version string `json:"version" jsonschema:"title=Version"`
	// Sources are the approved entries, in approval order.
	Sources          []*ApprovedSource `json:"sources" jsonschema:"title=Sources"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new empty [AllowList].
func New() *AllowList {
	al := &AllowList{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "AllowList",
		},
	}
	al.EnsureDefaults()

	return al
}

// EnsureDefaults initializes nil fields to their default values.
func (al *AllowList) EnsureDefaults() {
	if al.Version == "" {
		al.Version = Version
	}

	if al.Sources == nil {
		al.Sources = []*ApprovedSource{}
	}
}

// Validate checks structural invariants of a loaded allow-list.
func (al *AllowList) Validate() error {
	if al.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidAllowList)
	}

	for i, s := range al.Sources {
		if s == nil || s.Value == "" || s.ApprovedBy == "" || s.ApprovedAt == "" {
			return fmt.Errorf("%w: source %d is incomplete", ErrInvalidAllowList, i)
		}
	}

	return nil
}

func (al AllowList) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// Approve appends a new approval. It is one of the two mutating entry points
// into persisted governance state.
func (al *AllowList) Approve(value, by string) *ApprovedSource {
	entry := &ApprovedSource{
		Value:      value,
		ApprovedBy: by,
		ApprovedAt: time.Now().UTC().Format(time.RFC3339),
	}

	al.Sources = append(al.Sources, entry)

	return entry
}

// IsApproved reports whether a value has an approval entry.
func (al *AllowList) IsApproved(value string) bool {
	for _, s := range al.Sources {
		if s.Value == value {
			return true
		}
	}

	return false
}

// MarshalYAML serializes the allow-list to YAML.
func (al AllowList) MarshalYAML() ([]byte, error) {
	type alias AllowList

	b, err := api.MarshalYAML(alias(al))
	if err != nil {
		return nil, fmt.Errorf("marshal allow-list: %w", err)
	}

	return b, nil
}

// Write persists the allow-list atomically. When the file already exists its
// comments and layout are preserved by merging at the root.
func (al AllowList) Write(path string) error {
	existing, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.

	var data []byte

	switch {
	case err == nil:
		type alias AllowList

		data, err = yaml.MergeRootFromValue(existing, alias(al))
		if err != nil {
			return fmt.Errorf("merge allow-list: %w", err)
		}

	case os.IsNotExist(err):
		data, err = al.MarshalYAML()
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("read allow-list: %w", err)
	}

	err = api.WriteFileAtomic(path, data)
	if err != nil {
		return fmt.Errorf("write allow-list: %w", err)
	}

	return nil
}

// Load reads, schema-validates, and decodes an allow-list.
func Load(path string) (*AllowList, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	ew := yaml.NewErrorWrapper(yaml.WithSource(data))

	var anyDoc any

	dec := yaml.NewDecoder(bytes.NewReader(data))

	err = dec.Decode(&anyDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAllowList, ew.Wrap(err))
	}

	err = DefaultValidator.Validate(anyDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAllowList, ew.Wrap(err))
	}

	al := New()

	dec = yaml.NewDecoder(bytes.NewReader(data))

	err = dec.Decode(al)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAllowList, ew.Wrap(err))
	}

	al.EnsureDefaults()

	err = al.Validate()
	if err != nil {
		return nil, err
	}

	return al, nil
}

// Path returns the allow-list path for a project directory.
func Path(cwd string) string {
	return filepath.Join(cwd, DefaultName)
}
