package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-media/internal/http/response"
	"github.com/yungbote/neurobridge-media/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
	"github.com/yungbote/neurobridge-media/internal/platform/mediacloud"
	"github.com/yungbote/neurobridge-media/internal/services"
)

const maxUploadMemory = 32 << 20

type AttachmentHandler struct {
	log         *logger.Logger
	attachments services.AttachmentService
}

func NewAttachmentHandler(log *logger.Logger, attachments services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		log:         log.With("handler", "AttachmentHandler"),
		attachments: attachments,
	}
}

// GET /api/attachments/:id?variant=&width=&height=&crop=&gravity=&quality=&format=
func (h *AttachmentHandler) GetAttachment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	opts, err := urlOptionsFromQuery(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	view, err := h.attachments.Get(c.Request.Context(), id, c.Query("variant"), opts)
	if err != nil {
		h.respondServiceError(c, "GetAttachment", err)
		return
	}
	response.RespondOK(c, gin.H{"attachment": view})
}

// GET /api/owners/:owner_type/:owner_id/attachments
func (h *AttachmentHandler) ListOwnerAttachments(c *gin.Context) {
	views, err := h.attachments.List(c.Request.Context(), c.Param("owner_type"), c.Param("owner_id"))
	if err != nil {
		h.respondServiceError(c, "ListOwnerAttachments", err)
		return
	}
	response.RespondOK(c, gin.H{"attachments": views})
}

// POST /api/attachments (multipart)
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd == nil || rd.Subject == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}

	in := services.AttachInput{
		OwnerType: c.PostForm("owner_type"),
		OwnerID:   c.PostForm("owner_id"),
		MountedAs: c.PostForm("mount"),
		PublicID:  c.PostForm("public_id"),
		Filename:  fh.Filename,
	}
	if raw := strings.TrimSpace(c.PostForm("keep_remote")); raw != "" {
		keep, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_keep_remote", err)
			return
		}
		deleteRemote := !keep
		in.DeleteRemote = &deleteRemote
	}
	if raw := strings.TrimSpace(c.PostForm("metadata")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Metadata); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_metadata", err)
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	in.Reader = f

	view, err := h.attachments.Attach(c.Request.Context(), in)
	if err != nil {
		h.respondServiceError(c, "UploadAttachment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attachment": view})
}

// DELETE /api/attachments/:id
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.attachments.Detach(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, "DeleteAttachment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/owners/:owner_type/:owner_id/attachments
func (h *AttachmentHandler) PurgeOwnerAttachments(c *gin.Context) {
	n, err := h.attachments.PurgeOwner(c.Request.Context(), c.Param("owner_type"), c.Param("owner_id"))
	if err != nil {
		h.respondServiceError(c, "PurgeOwnerAttachments", err)
		return
	}
	response.RespondOK(c, gin.H{"removed": n})
}

func (h *AttachmentHandler) respondServiceError(c *gin.Context, op string, err error) {
	h.log.Warn("Attachment request failed", "op", op, "error", err)
	response.RespondAPIError(c, err)
}

func urlOptionsFromQuery(c *gin.Context) (mediacloud.URLOptions, error) {
	var opts mediacloud.URLOptions
	var err error
	if opts.Width, err = intQuery(c, "width"); err != nil {
		return opts, err
	}
	if opts.Height, err = intQuery(c, "height"); err != nil {
		return opts, err
	}
	opts.Crop = strings.TrimSpace(c.Query("crop"))
	opts.Gravity = strings.TrimSpace(c.Query("gravity"))
	opts.Quality = strings.TrimSpace(c.Query("quality"))
	opts.Format = strings.TrimSpace(c.Query("format"))
	return opts, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
