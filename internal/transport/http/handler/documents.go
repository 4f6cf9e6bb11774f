package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/catalog"
	"infosec-dashboard/internal/gateway"
	"infosec-dashboard/internal/transport/http/response"
)

type DocumentHandler struct {
	catalog       *catalog.Catalog
	maxUploadSize int64
}

func NewDocumentHandler(c *catalog.Catalog, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{catalog: c, maxUploadSize: maxUploadSize}
}

// List applies the search and status query parameters and returns the
// current view. Omitted parameters keep their previous value.
func (h *DocumentHandler) List(c *gin.Context) {
	if search, ok := c.GetQuery("search"); ok {
		h.catalog.SetSearch(search)
	}
	if status, ok := c.GetQuery("status"); ok {
		h.catalog.SetStatus(status)
	}
	response.OK(c, h.catalog.Snapshot())
}

func (h *DocumentHandler) Refresh(c *gin.Context) {
	if err := h.catalog.Refresh(c.Request.Context()); err != nil {
		writeErrorWithData(c, err, "failed to load documents", h.catalog.Snapshot())
		return
	}
	response.OK(c, h.catalog.Snapshot())
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	uploader := strings.TrimSpace(c.PostForm("uploader_name"))
	fileHeader, err := c.FormFile("file")
	if err != nil || uploader == "" {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidUpload, "please select a file and enter the uploader name")
		return
	}
	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidUpload,
			fmt.Sprintf("file exceeds %d bytes", h.maxUploadSize))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, fmt.Errorf("open uploaded file failed: %w", err), "upload failed")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, fmt.Errorf("read uploaded file failed: %w", err), "upload failed")
		return
	}

	fileName := c.PostForm("file_name")
	if strings.TrimSpace(fileName) == "" {
		fileName = fileHeader.Filename
	}
	receipt, err := h.catalog.Upload(c.Request.Context(), gateway.Upload{
		FileName:     fileName,
		Data:         data,
		UploaderName: uploader,
	})
	if err != nil {
		writeError(c, err, "failed to upload the document")
		return
	}
	response.OK(c, gin.H{
		"receipt": receipt,
		"catalog": h.catalog.Snapshot(),
	})
}
