package media

import (
	"context"
	"strings"
)

// Destroyer deletes a remote asset by public id.
type Destroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// File is the in-memory handle over a stored identifier. The zero value and
// the result of decoding a blank identifier are the empty handle.
type File struct {
	identifier string
	id         Identifier
	filename   string
	stored     bool

	remote       Destroyer
	deleteRemote func() bool
}

// Decode returns a handle for identifier that is not attached to any mount.
// Its Delete is a no-op.
func Decode(identifier string) *File {
	return newFile(identifier, nil, nil)
}

func newFile(identifier string, remote Destroyer, deleteRemote func() bool) *File {
	f := &File{remote: remote, deleteRemote: deleteRemote}
	id, ok := ParseIdentifier(identifier)
	if !ok {
		return f
	}
	f.identifier = identifier
	f.id = id
	f.stored = true
	f.filename = identifier
	if _, rest, found := strings.Cut(identifier, "/"); found {
		f.filename = rest
	}
	return f
}

func (f *File) IsEmpty() bool { return f == nil || !f.stored }

// Identifier returns the stored identifier string, "" when empty.
func (f *File) Identifier() string {
	if f.IsEmpty() {
		return ""
	}
	return f.identifier
}

func (f *File) PublicID() string {
	if f.IsEmpty() {
		return ""
	}
	return f.id.PublicID
}

func (f *File) Version() string {
	if f.IsEmpty() {
		return ""
	}
	return f.id.Version
}

func (f *File) Format() string {
	if f.IsEmpty() {
		return ""
	}
	return f.id.Format
}

// Filename is the part of the identifier after the version marker,
// i.e. "public_id.format".
func (f *File) Filename() string {
	if f.IsEmpty() {
		return ""
	}
	return f.filename
}

func (f *File) FullPublicID() string {
	if f.IsEmpty() {
		return ""
	}
	return f.id.FullPublicID()
}

// Delete destroys the remote asset when the owning mount allows remote
// deletion. Remote failures are returned as is.
func (f *File) Delete(ctx context.Context) error {
	if f.IsEmpty() || f.remote == nil {
		return nil
	}
	if f.deleteRemote != nil && !f.deleteRemote() {
		return nil
	}
	return f.remote.Destroy(ctx, f.id.PublicID)
}
