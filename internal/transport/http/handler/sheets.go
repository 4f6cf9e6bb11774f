package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/app"
	"infosec-dashboard/internal/transport/http/response"
)

type SheetHandler struct {
	sheets *app.SheetService
}

type AnalyzeSheetRequest struct {
	SheetURL string `json:"sheet_url" binding:"required"`
}

func NewSheetHandler(sheets *app.SheetService) *SheetHandler {
	return &SheetHandler{sheets: sheets}
}

func (h *SheetHandler) Analyze(c *gin.Context) {
	var req AnalyzeSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.sheets.Analyze(c.Request.Context(), req.SheetURL)
	if err != nil {
		writeError(c, err, "failed to analyze the sheet, please try again")
		return
	}
	response.OK(c, result)
}

func (h *SheetHandler) Current(c *gin.Context) {
	response.OK(c, gin.H{"sheet": h.sheets.Current()})
}

func (h *SheetHandler) Clear(c *gin.Context) {
	h.sheets.Clear()
	response.OK(c, gin.H{"sheet": nil})
}
