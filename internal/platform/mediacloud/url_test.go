package mediacloud

import "testing"

func TestTransformationStringSortsParams(t *testing.T) {
	tr := Transformation{Width: 192, Height: 100, Crop: "fill", Quality: "auto", FetchFormat: "auto"}
	want := "c_fill,f_auto,h_100,q_auto,w_192"
	if got := tr.String(); got != want {
		t.Fatalf("String: want=%q got=%q", want, got)
	}
	if got := (Transformation{}).String(); got != "" {
		t.Fatalf("String: zero transformation should render empty, got=%q", got)
	}
}

func TestURLOptionsMergeOverridesOnlySetFields(t *testing.T) {
	base := URLOptions{
		Format:         "png",
		Transformation: Transformation{Width: 100, Height: 100, Crop: "thumb"},
	}
	got := base.Merge(URLOptions{Format: "jpg", Transformation: Transformation{Width: 50}})
	if got.Format != "jpg" {
		t.Fatalf("format: want=%q got=%q", "jpg", got.Format)
	}
	if got.Width != 50 || got.Height != 100 || got.Crop != "thumb" {
		t.Fatalf("transformation: got=%+v", got.Transformation)
	}
}

func TestDeliveryURLIncludesTransformAndVersion(t *testing.T) {
	b := URLBuilder{DeliveryBaseURL: "https://res.cloudinary.com/neurobridge"}
	got := b.URL("v1371995958/avatars/abc", URLOptions{
		Format:         "png",
		Transformation: Transformation{Width: 192, Crop: "limit"},
	})
	want := "https://res.cloudinary.com/neurobridge/image/upload/c_limit,w_192/v1371995958/avatars/abc.png"
	if got != want {
		t.Fatalf("URL: want=%q got=%q", want, got)
	}
}

func TestDeliveryURLWithoutFormatOrTransform(t *testing.T) {
	b := URLBuilder{DeliveryBaseURL: "https://media.example.com"}
	got := b.URL("abc", URLOptions{ResourceType: "raw"})
	want := "https://media.example.com/raw/upload/abc"
	if got != want {
		t.Fatalf("URL: want=%q got=%q", want, got)
	}
}

func TestFlatObjectURLIgnoresTransformsAndVersion(t *testing.T) {
	b := NewURLBuilder(Config{Mode: StorageModeGCS, Bucket: "media-bucket", Folder: "uploads"})
	got := b.URL("v42/abc", URLOptions{Format: "png", Transformation: Transformation{Width: 10}})
	want := "https://storage.googleapis.com/media-bucket/uploads/abc"
	if got != want {
		t.Fatalf("URL: want=%q got=%q", want, got)
	}
}

func TestFlatObjectURLUsesEmulatorMediaEndpoint(t *testing.T) {
	b := NewURLBuilder(Config{
		Mode:         StorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443/",
		Bucket:       "media-bucket",
	})
	got := b.URL("avatars/abc", URLOptions{})
	want := "http://fake-gcs:4443/storage/v1/b/media-bucket/o/avatars%2Fabc?alt=media"
	if got != want {
		t.Fatalf("URL: want=%q got=%q", want, got)
	}
}

func TestURLBlankSource(t *testing.T) {
	b := URLBuilder{DeliveryBaseURL: "https://media.example.com"}
	if got := b.URL("  ", URLOptions{Format: "png"}); got != "" {
		t.Fatalf("URL: want empty got=%q", got)
	}
}

func TestStripVersion(t *testing.T) {
	cases := map[string]string{
		"v42/abc":      "abc",
		"abc":          "abc",
		"videos/abc":   "videos/abc",
		"v/abc":        "v/abc",
		"v12x/abc":     "v12x/abc",
		"v7/nested/id": "nested/id",
	}
	for in, want := range cases {
		if got := stripVersion(in); got != want {
			t.Fatalf("stripVersion(%q): want=%q got=%q", in, want, got)
		}
	}
}
