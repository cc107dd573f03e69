package mediacloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

func TestServiceEmulatorLifecycle(t *testing.T) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("MEDIA_RUN_GCS_EMULATOR_INTEGRATION")), "true") {
		t.Skip("set MEDIA_RUN_GCS_EMULATOR_INTEGRATION=true to run emulator integration tests")
	}

	emulatorHost := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST"))
	if emulatorHost == "" {
		emulatorHost = "http://127.0.0.1:4443"
	}
	emulatorHost = strings.TrimRight(emulatorHost, "/")
	if !isEmulatorReachable(emulatorHost) {
		t.Skipf("storage emulator not reachable at %s", emulatorHost)
	}

	suffix := time.Now().UnixNano()
	bucket := fmt.Sprintf("media-it-%d", suffix)
	createBucketIfMissing(t, emulatorHost, bucket)

	svc, err := NewService(context.Background(), logger.Nop(), Config{
		Mode:         StorageModeGCSEmulator,
		EmulatorHost: emulatorHost,
		Bucket:       bucket,
		Folder:       "it",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	publicID := fmt.Sprintf("users/%d/avatar", suffix)

	res, err := svc.Upload(ctx, strings.NewReader("original"), UploadParams{PublicID: publicID, Format: "png"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Version <= 0 || res.Bytes != int64(len("original")) {
		t.Fatalf("Upload result: got=%+v", res)
	}

	// A failed overwrite must leave the stored object untouched.
	if _, err := svc.Upload(ctx, &failingReader{}, UploadParams{PublicID: publicID, Format: "png"}); err == nil {
		t.Fatalf("Upload: expected error from failing reader")
	}
	if body := readObject(t, svc, publicID); body != "original" {
		t.Fatalf("object after failed overwrite: want=%q got=%q", "original", body)
	}

	ids, err := svc.ListPublicIDs(ctx, fmt.Sprintf("users/%d", suffix))
	if err != nil {
		t.Fatalf("ListPublicIDs: %v", err)
	}
	if !slices.Contains(ids, publicID) {
		t.Fatalf("ListPublicIDs: missing %q in %v", publicID, ids)
	}

	if err := svc.Destroy(ctx, publicID); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := svc.Destroy(ctx, publicID); err != nil {
		t.Fatalf("Destroy of a missing object should succeed: %v", err)
	}
	ids, err = svc.ListPublicIDs(ctx, fmt.Sprintf("users/%d", suffix))
	if err != nil {
		t.Fatalf("ListPublicIDs after destroy: %v", err)
	}
	if slices.Contains(ids, publicID) {
		t.Fatalf("expected %q to be destroyed; ids=%v", publicID, ids)
	}
}

func readObject(t *testing.T, svc *Service, publicID string) string {
	t.Helper()
	rc, err := svc.object(publicID).NewReader(context.Background())
	if err != nil {
		t.Fatalf("NewReader(%s): %v", publicID, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", publicID, err)
	}
	return string(body)
}

func isEmulatorReachable(emulatorHost string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(emulatorHost + "/storage/v1/b?project=local-dev")
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 500
}

func createBucketIfMissing(t *testing.T, emulatorHost string, bucket string) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"name": bucket})
	if err != nil {
		t.Fatalf("json.Marshal(bucket): %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(emulatorHost+"/storage/v1/b?project=local-dev", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("create bucket %q: %v", bucket, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict {
		return
	}
	b, _ := io.ReadAll(resp.Body)
	t.Fatalf("create bucket %q failed: status=%d body=%s", bucket, resp.StatusCode, strings.TrimSpace(string(b)))
}
