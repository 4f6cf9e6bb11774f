package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"infosec-dashboard/internal/model"
)

const defaultUploaderName = "User"

// Upload is one file submitted to the upload workflow.
type Upload struct {
	FileName     string
	Data         []byte
	UploaderName string
}

// UploadReceipt acknowledges an accepted upload. Document is only set when the
// workflow answered with a document-shaped record.
type UploadReceipt struct {
	FileName     string          `json:"file_name"`
	UploaderName string          `json:"uploader_name"`
	Pages        int             `json:"pages"`
	Document     *model.Document `json:"document,omitempty"`
}

func (c *Client) UploadDocument(ctx context.Context, upload Upload) (*UploadReceipt, error) {
	const op = "upload document"

	fileName := filepath.Base(strings.TrimSpace(upload.FileName))
	if fileName == "." || fileName == "/" || fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	}
	if c.maxUpload > 0 && int64(len(upload.Data)) > c.maxUpload {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, c.maxUpload)
	}
	info, err := c.inspectPDF(upload.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	uploader := strings.TrimSpace(upload.UploaderName)
	if uploader == "" {
		uploader = defaultUploaderName
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%s: create file part failed: %w", op, err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("%s: write file part failed: %w", op, err)
	}
	if err := writer.WriteField("uploader_name", uploader); err != nil {
		return nil, fmt.Errorf("%s: write uploader field failed: %w", op, err)
	}
	if err := writer.WriteField("file_name", fileName); err != nil {
		return nil, fmt.Errorf("%s: write file name field failed: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%s: close multipart failed: %w", op, err)
	}

	raw, err := c.post(ctx, op, c.endpoints.UploadWebhook, writer.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}

	receipt := &UploadReceipt{FileName: fileName, UploaderName: uploader, Pages: info.Pages}
	doc, err := decodeUploadedDocument(raw)
	if err != nil {
		c.logger.Debug("upload response is not a document record", zap.Error(err))
		return receipt, nil
	}
	receipt.Document = doc
	return receipt, nil
}

func decodeUploadedDocument(raw []byte) (*model.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty body")
	}
	var w wireDocument
	if raw[0] == '[' {
		var list []wireDocument
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, errors.New("empty list")
		}
		w = list[0]
	} else if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	doc, err := w.toModel()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
