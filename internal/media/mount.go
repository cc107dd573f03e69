package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
)

// Remote is the media service a mount stores into.
type Remote interface {
	Destroyer
	Upload(ctx context.Context, r io.Reader, params mediacloud.UploadParams) (*mediacloud.UploadResult, error)
	RandomPublicID() string
	URL(source string, opts mediacloud.URLOptions) string
}

// Uploader is the identity surface shared by a mount and its variants.
type Uploader interface {
	IsBlank() bool
	FullPublicID() string
}

var (
	_ Uploader = (*Mount)(nil)
	_ Uploader = (*Variant)(nil)
)

type VariantSpec struct {
	Name           string
	Format         string
	Transformation mediacloud.Transformation
}

type MountOptions struct {
	// Name is the attribute the mount is attached as, e.g. "avatar".
	Name string
	// PublicID overrides the public id used for uploads when it returns a
	// non-blank value.
	PublicID func() string
	// DeleteRemote reports whether removing the file destroys the remote
	// asset. Nil means true.
	DeleteRemote func() bool
	// DefaultURL is returned by URL while the mount is blank.
	DefaultURL string
	Variants   []VariantSpec
}

// Mount binds one stored asset to an owner record. It is not safe for
// concurrent use.
type Mount struct {
	remote Remote
	opts   MountOptions

	file             *File
	storedVersion    string
	storedPublicID   string
	originalFilename string

	publicID         string
	publicIDResolved bool

	Metadata map[string]any

	variants []*Variant
	byName   map[string]*Variant
}

func NewMount(remote Remote, opts MountOptions) *Mount {
	m := &Mount{remote: remote, opts: opts, byName: map[string]*Variant{}}
	for _, spec := range opts.Variants {
		v := newVariant(m, spec)
		m.variants = append(m.variants, v)
		if spec.Name != "" {
			m.byName[spec.Name] = v
		}
	}
	return m
}

func (m *Mount) Name() string { return m.opts.Name }

// Retrieve loads a persisted identifier. A blank identifier leaves the mount
// empty. Either way the cached public id is discarded.
func (m *Mount) Retrieve(identifier string) {
	m.publicID, m.publicIDResolved = "", false
	if strings.TrimSpace(identifier) == "" {
		m.file = nil
		m.storedVersion = ""
		m.storedPublicID = ""
		m.originalFilename = ""
	} else {
		m.file = newFile(identifier, m.remote, m.DeleteRemote)
		m.storedPublicID = m.file.PublicID()
		m.storedVersion = m.file.Version()
		m.originalFilename = m.file.Filename()
	}
	for _, v := range m.variants {
		v.local.Retrieve(identifier)
	}
}

// Clear re-assigns the mount to no file.
func (m *Mount) Clear() { m.Retrieve("") }

// Store uploads r under MyPublicID and loads the resulting identifier, which
// is returned for persistence. The format is taken from filename's extension
// unless the remote reports one.
func (m *Mount) Store(ctx context.Context, r io.Reader, filename string) (string, error) {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	_, format := SplitFormat(base)
	format = strings.ToLower(format)

	res, err := m.remote.Upload(ctx, r, mediacloud.UploadParams{
		PublicID:         m.MyPublicID(),
		Format:           format,
		OriginalFilename: base,
		Metadata:         m.uploadMetadata(),
	})
	if err != nil {
		return "", err
	}
	if res.Format != "" {
		format = res.Format
	}
	identifier := Encode(res.PublicID, format, mediacloud.FormatVersion(res.Version))
	m.Retrieve(identifier)
	if base != "" {
		m.originalFilename = base
	}
	return identifier, nil
}

func (m *Mount) uploadMetadata() map[string]string {
	if len(m.Metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(m.Metadata))
	for k, v := range m.Metadata {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Remove deletes the stored file (remotely, if the policy allows) and
// leaves the mount empty. On error the mount keeps its file.
func (m *Mount) Remove(ctx context.Context) error {
	if m.IsBlank() {
		return nil
	}
	if err := m.file.Delete(ctx); err != nil {
		return err
	}
	m.Clear()
	return nil
}

// Remote transformations replace local processing, so these lifecycle
// hooks do nothing.
func (m *Mount) Process(ctx context.Context) error          { return nil }
func (m *Mount) CacheVersions(ctx context.Context) error    { return nil }
func (m *Mount) RecreateVersions(ctx context.Context) error { return nil }

func (m *Mount) DeleteRemote() bool {
	if m.opts.DeleteRemote == nil {
		return true
	}
	return m.opts.DeleteRemote()
}

// MyPublicID is the public id used for uploads: the override if set, else
// the stored public id, else a freshly generated one. It is resolved once
// and cached until the file is re-assigned.
func (m *Mount) MyPublicID() string {
	if m.publicIDResolved {
		return m.publicID
	}
	id := ""
	if m.opts.PublicID != nil {
		id = strings.TrimSpace(m.opts.PublicID())
	}
	if id == "" {
		id = m.storedPublicID
	}
	if id == "" {
		id = m.remote.RandomPublicID()
	}
	m.publicID, m.publicIDResolved = id, true
	return id
}

func (m *Mount) IsBlank() bool { return m.file.IsEmpty() }

func (m *Mount) File() *File { return m.file }

func (m *Mount) Identifier() string { return m.file.Identifier() }

func (m *Mount) StoredVersion() string { return m.storedVersion }

func (m *Mount) StoredPublicID() string { return m.storedPublicID }

func (m *Mount) OriginalFilename() string { return m.originalFilename }

func (m *Mount) Format() string { return m.file.Format() }

// FullPublicID is "" while blank, else the stored public id prefixed with
// "v<version>/" when a version was stored.
func (m *Mount) FullPublicID() string {
	if m.IsBlank() {
		return ""
	}
	return Identifier{PublicID: m.storedPublicID, Version: m.storedVersion}.FullPublicID()
}

// Filename is "" while blank, else FullPublicID with the format appended.
func (m *Mount) Filename() string {
	return joinFormat(m.FullPublicID(), m.Format())
}

func (m *Mount) URL(opts ...mediacloud.URLOptions) string {
	if m.IsBlank() {
		return m.opts.DefaultURL
	}
	return buildURL(m.remote, m.FullPublicID(), m.Format(), nil, opts)
}

// URLFor returns the URL of the named variant, or of the mount itself for
// an empty name. Unknown variants yield "".
func (m *Mount) URLFor(variant string, opts ...mediacloud.URLOptions) string {
	if variant == "" {
		return m.URL(opts...)
	}
	v, ok := m.byName[variant]
	if !ok {
		return ""
	}
	return v.URL(opts...)
}

func (m *Mount) Variant(name string) (*Variant, bool) {
	v, ok := m.byName[name]
	return v, ok
}

func (m *Mount) Variants() []*Variant { return m.variants }

// Variant is a derivative of a mount. A named variant shares the mount's
// identity; an unnamed one resolves identity from its own state.
type Variant struct {
	spec   VariantSpec
	parent *Mount
	local  *Mount
}

func newVariant(parent *Mount, spec VariantSpec) *Variant {
	local := &Mount{
		remote: parent.remote,
		opts: MountOptions{
			Name:         parent.opts.Name,
			PublicID:     parent.opts.PublicID,
			DeleteRemote: parent.opts.DeleteRemote,
			DefaultURL:   parent.opts.DefaultURL,
		},
		byName: map[string]*Variant{},
	}
	return &Variant{spec: spec, parent: parent, local: local}
}

func (v *Variant) Name() string { return v.spec.Name }

func (v *Variant) identity() Uploader {
	if v.spec.Name == "" {
		return v.local
	}
	return v.parent
}

func (v *Variant) IsBlank() bool { return v.identity().IsBlank() }

func (v *Variant) FullPublicID() string { return v.identity().FullPublicID() }

func (v *Variant) Format() string {
	if v.spec.Format != "" {
		return v.spec.Format
	}
	return v.local.Format()
}

func (v *Variant) Filename() string {
	return joinFormat(v.FullPublicID(), v.Format())
}

func (v *Variant) URL(opts ...mediacloud.URLOptions) string {
	if v.IsBlank() {
		return v.local.opts.DefaultURL
	}
	return buildURL(v.local.remote, v.FullPublicID(), v.Format(), &v.spec, opts)
}

// buildURL layers the file's format, then a named variant's transformation,
// then each caller option set; later layers win.
func buildURL(remote Remote, fullPublicID, format string, variant *VariantSpec, opts []mediacloud.URLOptions) string {
	merged := mediacloud.URLOptions{Format: format}
	if variant != nil && variant.Name != "" {
		merged = merged.Merge(mediacloud.URLOptions{
			Format:         variant.Format,
			Transformation: variant.Transformation,
		})
	}
	for _, o := range opts {
		merged = merged.Merge(o)
	}
	return remote.URL(fullPublicID, merged)
}

func joinFormat(fullPublicID, format string) string {
	if fullPublicID == "" || format == "" {
		return fullPublicID
	}
	return fullPublicID + "." + format
}
