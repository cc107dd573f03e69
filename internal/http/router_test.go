package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-media/internal/data/repos"
	"github.com/yungbote/neurobridge-media/internal/data/repos/testutil"
	httpH "github.com/yungbote/neurobridge-media/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-media/internal/http/middleware"
	"github.com/yungbote/neurobridge-media/internal/media"
	"github.com/yungbote/neurobridge-media/internal/media/mediatest"
	"github.com/yungbote/neurobridge-media/internal/services"
)

type testAPI struct {
	router *gin.Engine
	remote *mediatest.Remote
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	reg, err := media.LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	remote := mediatest.NewRemote()
	r := repos.New(db, log)
	svc := services.NewAttachmentService(db, log, r.Attachment, remote, reg, 2)
	tokens, err := services.NewTokenService(log, "test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	tok, err := tokens.Issue("tester", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	router := NewRouter(RouterConfig{
		Log:               log,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, tokens),
		AttachmentHandler: httpH.NewAttachmentHandler(log, svc),
		HealthHandler:     httpH.NewHealthHandler(nil),
	})
	return &testAPI{router: router, remote: remote, token: tok}
}

func (a *testAPI) do(t *testing.T, req *http.Request, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	if auth {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, fields map[string]string, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write([]byte(body))
	}
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/attachments", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type attachmentEnvelope struct {
	Attachment services.AttachmentView `json:"attachment"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthcheck(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, httptest.NewRequest(http.MethodGet, "/healthcheck", nil), false)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: code=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestUploadRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, uploadRequest(t, map[string]string{"owner_type": "user", "owner_id": "1", "mount": "avatar"}, "a.png", "x"), false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
	if api.remote.UploadCount() != 0 {
		t.Fatalf("no upload expected")
	}
}

func TestAttachmentLifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, uploadRequest(t, map[string]string{
		"owner_type": "user",
		"owner_id":   "1",
		"mount":      "avatar",
		"public_id":  "users/1/avatar",
		"metadata":   `{"alt":"me"}`,
	}, "me.png", "pixels"), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var created attachmentEnvelope
	decode(t, rec, &created)
	if created.Attachment.Identifier != "v1700000001/users/1/avatar.png" {
		t.Fatalf("identifier: got=%q", created.Attachment.Identifier)
	}
	if created.Attachment.Variants["thumb"] == "" {
		t.Fatalf("expected thumb variant URL")
	}

	id := created.Attachment.ID.String()
	rec = api.do(t, httptest.NewRequest(http.MethodGet, "/api/attachments/"+id+"?variant=small&width=64", nil), false)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var got attachmentEnvelope
	decode(t, rec, &got)
	if want := "https://media.test/image/upload/c_limit,q_auto,w_64/v1700000001/users/1/avatar.webp"; got.Attachment.URL != want {
		t.Fatalf("url: want=%q got=%q", want, got.Attachment.URL)
	}

	rec = api.do(t, httptest.NewRequest(http.MethodGet, "/api/owners/user/1/attachments", nil), false)
	var list struct {
		Attachments []services.AttachmentView `json:"attachments"`
	}
	decode(t, rec, &list)
	if rec.Code != http.StatusOK || len(list.Attachments) != 1 {
		t.Fatalf("list: code=%d len=%d", rec.Code, len(list.Attachments))
	}

	rec = api.do(t, httptest.NewRequest(http.MethodDelete, "/api/attachments/"+id, nil), true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if api.remote.DestroyCount() != 1 {
		t.Fatalf("destroy: want=1 got=%d", api.remote.DestroyCount())
	}

	rec = api.do(t, httptest.NewRequest(http.MethodGet, "/api/attachments/"+id, nil), false)
	var notFound errorEnvelope
	decode(t, rec, &notFound)
	if rec.Code != http.StatusNotFound || notFound.Error.Code != "attachment_not_found" {
		t.Fatalf("get after delete: code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUploadKeepRemoteAndPurge(t *testing.T) {
	api := newTestAPI(t)
	for _, mount := range []string{"avatar", "material"} {
		rec := api.do(t, uploadRequest(t, map[string]string{
			"owner_type":  "course",
			"owner_id":    "c1",
			"mount":       mount,
			"keep_remote": "true",
		}, mount+".jpg", "x"), true)
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %s: code=%d body=%s", mount, rec.Code, rec.Body.String())
		}
	}

	rec := api.do(t, httptest.NewRequest(http.MethodDelete, "/api/owners/course/c1/attachments", nil), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("purge: code=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Removed int `json:"removed"`
	}
	decode(t, rec, &out)
	if out.Removed != 2 {
		t.Fatalf("removed: want=2 got=%d", out.Removed)
	}
	if api.remote.DestroyCount() != 0 {
		t.Fatalf("keep_remote should skip remote deletes, got=%d", api.remote.DestroyCount())
	}
}

func TestBadRequests(t *testing.T) {
	api := newTestAPI(t)
	cases := []struct {
		name string
		req  *http.Request
		auth bool
		code string
	}{
		{"bad id", httptest.NewRequest(http.MethodGet, "/api/attachments/nope", nil), false, "invalid_id"},
		{"bad width", httptest.NewRequest(http.MethodGet, "/api/attachments/00000000-0000-0000-0000-000000000001?width=-3", nil), false, "invalid_query"},
		{"missing file", uploadRequest(t, map[string]string{"owner_type": "user", "owner_id": "1", "mount": "avatar"}, "", ""), true, "missing_file"},
		{"unknown mount", uploadRequest(t, map[string]string{"owner_type": "user", "owner_id": "1", "mount": "banner"}, "a.png", "x"), true, "unknown_mount"},
		{"bad keep_remote", uploadRequest(t, map[string]string{"owner_type": "user", "owner_id": "1", "mount": "avatar", "keep_remote": "maybe"}, "a.png", "x"), true, "invalid_keep_remote"},
	}
	for _, tc := range cases {
		rec := api.do(t, tc.req, tc.auth)
		var env errorEnvelope
		decode(t, rec, &env)
		if rec.Code != http.StatusBadRequest || env.Error.Code != tc.code {
			t.Fatalf("%s: want=400/%s got=%d/%s", tc.name, tc.code, rec.Code, env.Error.Code)
		}
	}
}
