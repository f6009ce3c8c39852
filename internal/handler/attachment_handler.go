package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"carecircle/internal/middleware"
	"carecircle/internal/progress"
	"carecircle/internal/services"
	"carecircle/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AttachmentHandler struct {
	uploads     *services.UploadService
	attachments *services.AttachmentService
	feed        *progress.RedisFeed
}

func NewAttachmentHandler(uploads *services.UploadService, attachments *services.AttachmentService, feed *progress.RedisFeed) *AttachmentHandler {
	return &AttachmentHandler{uploads: uploads, attachments: attachments, feed: feed}
}

// UploadPhoto accepts a multipart form with the compressed image under
// "file" and an optional "thumbnail" part. Clients that want a live
// progress feed pass "upload_id" and subscribe to the websocket endpoint
// before posting.
func (h *AttachmentHandler) UploadPhoto(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid visit id", "INVALID_REQUEST"))
		return
	}
	circleID, err := uuid.Parse(c.PostForm("circle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid circle_id", "INVALID_REQUEST"))
		return
	}
	uploaderID, ok := middleware.MemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file part is required", "INVALID_REQUEST"))
		return
	}
	data, err := readPart(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("failed to read file", "INVALID_REQUEST"))
		return
	}

	var thumbnail []byte
	if thumbHeader, err := c.FormFile("thumbnail"); err == nil {
		// A broken thumbnail part degrades the upload, never fails it.
		thumbnail, _ = readPart(thumbHeader)
	}

	width, _ := strconv.Atoi(c.PostForm("width"))
	height, _ := strconv.Atoi(c.PostForm("height"))
	originalSize, _ := strconv.ParseInt(c.PostForm("original_size_bytes"), 10, 64)
	isPrivate := c.PostForm("is_private") == "true"

	in := services.PhotoUpload{
		VisitID:           visitID,
		CircleID:          circleID,
		UploaderID:        uploaderID,
		FileName:          fileHeader.Filename,
		MimeType:          partContentType(fileHeader),
		Data:              data,
		Thumbnail:         thumbnail,
		Width:             width,
		Height:            height,
		OriginalSizeBytes: originalSize,
		Caption:           c.PostForm("caption"),
		IsPrivate:         isPrivate,
	}

	got, err := h.uploads.UploadPhoto(c.Request.Context(), in, h.progressSink(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewAttachmentDTO(got)))
}

// UploadVoice accepts a multipart form with the recorded clip under "file"
// plus its measured "duration_seconds".
func (h *AttachmentHandler) UploadVoice(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid visit id", "INVALID_REQUEST"))
		return
	}
	circleID, err := uuid.Parse(c.PostForm("circle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid circle_id", "INVALID_REQUEST"))
		return
	}
	uploaderID, ok := middleware.MemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file part is required", "INVALID_REQUEST"))
		return
	}
	data, err := readPart(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("failed to read file", "INVALID_REQUEST"))
		return
	}

	duration, _ := strconv.Atoi(c.PostForm("duration_seconds"))

	in := services.VoiceUpload{
		VisitID:         visitID,
		CircleID:        circleID,
		UploaderID:      uploaderID,
		FileName:        fileHeader.Filename,
		MimeType:        partContentType(fileHeader),
		Data:            data,
		DurationSeconds: duration,
		Caption:         c.PostForm("caption"),
		IsPrivate:       c.PostForm("is_private") == "true",
	}

	got, err := h.uploads.UploadVoice(c.Request.Context(), in, h.progressSink(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewAttachmentDTO(got)))
}

func (h *AttachmentHandler) ListForVisit(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid visit id", "INVALID_REQUEST"))
		return
	}
	includeArchived := c.Query("include_archived") == "true"

	items, err := h.attachments.ListForVisit(c.Request.Context(), visitID, includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"attachments": httpdto.NewAttachmentDTOs(items)}))
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid attachment id", "INVALID_REQUEST"))
		return
	}
	if err := h.attachments.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *AttachmentHandler) UpdateCaption(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid attachment id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.UpdateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if err := h.attachments.UpdateCaption(c.Request.Context(), id, req.Caption); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *AttachmentHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *AttachmentHandler) Restore(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *AttachmentHandler) setArchived(c *gin.Context, archived bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid attachment id", "INVALID_REQUEST"))
		return
	}
	if archived {
		err = h.attachments.Archive(c.Request.Context(), id)
	} else {
		err = h.attachments.Restore(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// ResolveURL returns a time-limited access URL. An empty URL means the
// blob store could not sign one right now; clients retry.
func (h *AttachmentHandler) ResolveURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid attachment id", "INVALID_REQUEST"))
		return
	}
	a, err := h.attachments.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	ttl := time.Duration(0)
	if sec, err := strconv.Atoi(c.Query("ttl_sec")); err == nil && sec > 0 {
		ttl = time.Duration(sec) * time.Second
	}

	var url string
	if c.Query("thumbnail") == "true" {
		url = h.attachments.ResolveThumbnailURL(c.Request.Context(), a, ttl)
	} else {
		url = h.attachments.ResolveURL(c.Request.Context(), a, ttl)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ResolveURLResponse{URL: url}))
}

func (h *AttachmentHandler) StorageStats(c *gin.Context) {
	circleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid circle id", "INVALID_REQUEST"))
		return
	}
	stats, err := h.attachments.StorageStats(c.Request.Context(), circleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.StorageStatsResponse{
		PhotoCount:      stats.PhotoCount,
		CompressedBytes: stats.CompressedBytes,
		OriginalBytes:   stats.OriginalBytes,
	}))
}

// progressSink bridges orchestrator progress onto the redis feed when the
// client supplied an upload_id to watch.
func (h *AttachmentHandler) progressSink(c *gin.Context) progress.Sink {
	if h.feed == nil {
		return nil
	}
	uploadID, err := uuid.Parse(c.PostForm("upload_id"))
	if err != nil {
		return nil
	}
	return h.feed.Sink(c.Request.Context(), uploadID)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func partContentType(fh *multipart.FileHeader) string {
	return fh.Header.Get("Content-Type")
}
