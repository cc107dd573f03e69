package media

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

// VariantDefinition is the YAML form of a VariantSpec.
type VariantDefinition struct {
	Name           string                    `yaml:"name"`
	Format         string                    `yaml:"format"`
	Transformation mediacloud.Transformation `yaml:"transformation"`
}

// MountDefinition declares a mount point owners can attach files to.
type MountDefinition struct {
	Name         string              `yaml:"name"`
	DeleteRemote *bool               `yaml:"delete_remote"`
	DefaultURL   string              `yaml:"default_url"`
	Variants     []VariantDefinition `yaml:"variants"`
}

type mountsFile struct {
	Mounts []MountDefinition `yaml:"mounts"`
}

// DefaultDeleteRemote reports the definition's delete policy (true unless
// explicitly disabled).
func (d MountDefinition) DefaultDeleteRemote() bool {
	return d.DeleteRemote == nil || *d.DeleteRemote
}

// NewMount builds a mount for one owner record. publicID overrides the
// upload public id when non-blank; deleteRemote is the record's policy.
func (d MountDefinition) NewMount(remote Remote, publicID string, deleteRemote bool) *Mount {
	specs := make([]VariantSpec, 0, len(d.Variants))
	for _, v := range d.Variants {
		specs = append(specs, VariantSpec{Name: v.Name, Format: v.Format, Transformation: v.Transformation})
	}
	return NewMount(remote, MountOptions{
		Name:         d.Name,
		PublicID:     func() string { return publicID },
		DeleteRemote: func() bool { return deleteRemote },
		DefaultURL:   d.DefaultURL,
		Variants:     specs,
	})
}

// Registry indexes mount definitions by name.
type Registry struct {
	mounts map[string]MountDefinition
}

func NewRegistry(defs []MountDefinition) (*Registry, error) {
	r := &Registry{mounts: make(map[string]MountDefinition, len(defs))}
	for _, d := range defs {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			return nil, fmt.Errorf("mount definition without a name")
		}
		if _, dup := r.mounts[d.Name]; dup {
			return nil, fmt.Errorf("duplicate mount definition %q", d.Name)
		}
		seen := map[string]bool{}
		for _, v := range d.Variants {
			if v.Name == "" {
				continue
			}
			if seen[v.Name] {
				return nil, fmt.Errorf("mount %q: duplicate variant %q", d.Name, v.Name)
			}
			seen[v.Name] = true
		}
		r.mounts[d.Name] = d
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (MountDefinition, bool) {
	if r == nil {
		return MountDefinition{}, false
	}
	d, ok := r.mounts[strings.TrimSpace(name)]
	return d, ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.mounts))
	for name := range r.mounts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseDefinitions reads a YAML document of the form
//
//	mounts:
//	  - name: avatar
//	    variants:
//	      - name: thumb
//	        transformation: {width: 100, height: 100, crop: thumb}
func ParseDefinitions(raw []byte) ([]MountDefinition, error) {
	var f mountsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse mount definitions: %w", err)
	}
	return f.Mounts, nil
}

// LoadRegistry reads definitions from path, or returns the built-in set when
// path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return NewRegistry(DefaultDefinitions())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mount definitions: %w", err)
	}
	defs, err := ParseDefinitions(raw)
	if err != nil {
		return nil, err
	}
	return NewRegistry(defs)
}

func DefaultDefinitions() []MountDefinition {
	return []MountDefinition{
		{
			Name: "avatar",
			Variants: []VariantDefinition{
				{Name: "thumb", Transformation: mediacloud.Transformation{Width: 100, Height: 100, Crop: "thumb", Gravity: "face"}},
				{Name: "small", Format: "webp", Transformation: mediacloud.Transformation{Width: 256, Crop: "limit", Quality: "auto"}},
			},
		},
		{
			Name: "material",
			Variants: []VariantDefinition{
				{Name: "preview", Format: "jpg", Transformation: mediacloud.Transformation{Width: 800, Crop: "limit"}},
			},
		},
	}
}
