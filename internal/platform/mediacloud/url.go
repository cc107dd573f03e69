package mediacloud

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultResourceType = "image"
	defaultDeliveryType = "upload"
)

// Transformation is the subset of delivery-time transformations the mount
// layer understands. Zero values are omitted from the generated URL.
type Transformation struct {
	Width       int    `yaml:"width" json:"width,omitempty"`
	Height      int    `yaml:"height" json:"height,omitempty"`
	Crop        string `yaml:"crop" json:"crop,omitempty"`
	Gravity     string `yaml:"gravity" json:"gravity,omitempty"`
	Quality     string `yaml:"quality" json:"quality,omitempty"`
	FetchFormat string `yaml:"fetch_format" json:"fetch_format,omitempty"`
	Effect      string `yaml:"effect" json:"effect,omitempty"`
	Radius      string `yaml:"radius" json:"radius,omitempty"`
	Angle       int    `yaml:"angle" json:"angle,omitempty"`
	DPR         string `yaml:"dpr" json:"dpr,omitempty"`
}

// Merge returns t with every non-zero field of over applied on top.
func (t Transformation) Merge(over Transformation) Transformation {
	out := t
	if over.Width != 0 {
		out.Width = over.Width
	}
	if over.Height != 0 {
		out.Height = over.Height
	}
	if over.Crop != "" {
		out.Crop = over.Crop
	}
	if over.Gravity != "" {
		out.Gravity = over.Gravity
	}
	if over.Quality != "" {
		out.Quality = over.Quality
	}
	if over.FetchFormat != "" {
		out.FetchFormat = over.FetchFormat
	}
	if over.Effect != "" {
		out.Effect = over.Effect
	}
	if over.Radius != "" {
		out.Radius = over.Radius
	}
	if over.Angle != 0 {
		out.Angle = over.Angle
	}
	if over.DPR != "" {
		out.DPR = over.DPR
	}
	return out
}

// String renders the transformation as a comma-separated component with
// parameters sorted by their short key, e.g. "c_fill,h_100,w_100".
func (t Transformation) String() string {
	params := make([]string, 0, 10)
	add := func(key, val string) {
		if val != "" {
			params = append(params, key+"_"+val)
		}
	}
	add("a", intParam(t.Angle))
	add("c", t.Crop)
	add("dpr", t.DPR)
	add("e", t.Effect)
	add("f", t.FetchFormat)
	add("g", t.Gravity)
	add("h", intParam(t.Height))
	add("q", t.Quality)
	add("r", t.Radius)
	add("w", intParam(t.Width))
	return strings.Join(params, ",")
}

func intParam(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// URLOptions are the per-request knobs for building a delivery URL.
type URLOptions struct {
	Format       string
	ResourceType string
	DeliveryType string
	Transformation
}

// Merge applies the non-zero fields of over on top of o.
func (o URLOptions) Merge(over URLOptions) URLOptions {
	out := o
	if over.Format != "" {
		out.Format = over.Format
	}
	if over.ResourceType != "" {
		out.ResourceType = over.ResourceType
	}
	if over.DeliveryType != "" {
		out.DeliveryType = over.DeliveryType
	}
	out.Transformation = o.Transformation.Merge(over.Transformation)
	return out
}

// URLBuilder turns a source ("public_id" or "v123/public_id") into a URL.
// With a DeliveryBaseURL it emits transformation-aware delivery URLs;
// otherwise it links straight to the origin object and ignores transforms.
type URLBuilder struct {
	DeliveryBaseURL string
	ObjectBaseURL   string
	Bucket          string
	Folder          string
	EmulatorMedia   bool
}

func NewURLBuilder(cfg Config) URLBuilder {
	b := URLBuilder{
		DeliveryBaseURL: strings.TrimRight(cfg.DeliveryBaseURL, "/"),
		Bucket:          cfg.Bucket,
		Folder:          strings.Trim(cfg.Folder, "/"),
	}
	switch {
	case cfg.PublicBaseURL != "":
		b.ObjectBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
		b.EmulatorMedia = cfg.IsEmulatorMode()
	case cfg.IsEmulatorMode():
		b.ObjectBaseURL = strings.TrimRight(cfg.EmulatorHost, "/")
		b.EmulatorMedia = true
	default:
		b.ObjectBaseURL = "https://storage.googleapis.com"
	}
	return b
}

func (b URLBuilder) URL(source string, opts URLOptions) string {
	source = strings.Trim(strings.TrimSpace(source), "/")
	if source == "" {
		return ""
	}
	if b.DeliveryBaseURL == "" {
		return b.objectURL(stripVersion(source))
	}

	resourceType := opts.ResourceType
	if resourceType == "" {
		resourceType = defaultResourceType
	}
	deliveryType := opts.DeliveryType
	if deliveryType == "" {
		deliveryType = defaultDeliveryType
	}

	parts := []string{b.DeliveryBaseURL, resourceType, deliveryType}
	if tr := opts.Transformation.String(); tr != "" {
		parts = append(parts, tr)
	}
	tail := escapePath(source)
	if opts.Format != "" {
		tail += "." + url.PathEscape(opts.Format)
	}
	parts = append(parts, tail)
	return strings.Join(parts, "/")
}

func (b URLBuilder) objectURL(publicID string) string {
	key := ObjectKey(b.Folder, publicID)
	if b.EmulatorMedia {
		return fmt.Sprintf(
			"%s/storage/v1/b/%s/o/%s?alt=media",
			b.ObjectBaseURL,
			url.PathEscape(b.Bucket),
			url.PathEscape(key),
		)
	}
	return fmt.Sprintf("%s/%s/%s", b.ObjectBaseURL, b.Bucket, escapePath(key))
}

// ObjectKey is the origin object name for a public id.
func ObjectKey(folder, publicID string) string {
	publicID = strings.Trim(publicID, "/")
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return publicID
	}
	return folder + "/" + publicID
}

// stripVersion drops a leading "v<digits>/" segment.
func stripVersion(source string) string {
	head, rest, ok := strings.Cut(source, "/")
	if !ok || len(head) < 2 || head[0] != 'v' {
		return source
	}
	if _, err := strconv.ParseInt(head[1:], 10, 64); err != nil {
		return source
	}
	return rest
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
