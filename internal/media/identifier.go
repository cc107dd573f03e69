// Package media mounts remotely stored assets onto owner records.
//
// A stored asset is persisted as a single identifier string of the form
// "public_id.format" or "vVERSION/public_id.format". Everything else (URLs,
// filenames, the public id used for deletion) is derived from that string
// without touching the network.
package media

import "strings"

// Identifier is the decoded form of a stored identifier. Empty Version and
// Format mean absent.
type Identifier struct {
	PublicID string
	Version  string
	Format   string
}

// Encode builds the stored identifier for a public id, format and version.
func Encode(publicID, format, version string) string {
	filename := publicID
	if format != "" {
		filename += "." + format
	}
	if strings.TrimSpace(version) == "" {
		return filename
	}
	return "v" + version + "/" + filename
}

// ParseIdentifier decodes s. ok is false when s is blank, in which case the
// zero Identifier is returned. Input is not validated: the positional split
// rules are applied to whatever is given.
func ParseIdentifier(s string) (id Identifier, ok bool) {
	if strings.TrimSpace(s) == "" {
		return Identifier{}, false
	}
	filename := s
	if head, rest, found := strings.Cut(s, "/"); found {
		if len(head) > 0 {
			id.Version = head[1:]
		}
		filename = rest
	}
	id.PublicID, id.Format = SplitFormat(filename)
	return id, true
}

// SplitFormat splits filename on its last dot.
func SplitFormat(filename string) (publicID, format string) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return filename, ""
	}
	return filename[:i], filename[i+1:]
}

func (id Identifier) String() string {
	return Encode(id.PublicID, id.Format, id.Version)
}

// Filename is "public_id.format", or the bare public id without a format.
func (id Identifier) Filename() string {
	if id.Format == "" {
		return id.PublicID
	}
	return id.PublicID + "." + id.Format
}

// FullPublicID prefixes the public id with its version marker, if any.
func (id Identifier) FullPublicID() string {
	if id.Version == "" {
		return id.PublicID
	}
	return "v" + id.Version + "/" + id.PublicID
}
