package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/assessment"
	"infosec-dashboard/internal/model"
	"infosec-dashboard/internal/transport/http/response"
)

type AssessmentHandler struct {
	history *assessment.History
	now     func() time.Time
}

type assessmentList struct {
	Items    []model.Assessment    `json:"items"`
	Date     assessment.DateFilter `json:"date"`
	Status   string                `json:"status"`
	Statuses []string              `json:"statuses"`
}

var assessmentStatuses = []string{
	assessment.StatusAll,
	string(model.AssessmentCompleted),
	string(model.AssessmentInProgress),
	string(model.AssessmentOverdue),
}

func NewAssessmentHandler(history *assessment.History, now func() time.Time) *AssessmentHandler {
	if now == nil {
		now = time.Now
	}
	return &AssessmentHandler{history: history, now: now}
}

func (h *AssessmentHandler) List(c *gin.Context) {
	if raw, ok := c.GetQuery("date"); ok {
		date, err := assessment.ParseDateFilter(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		h.history.SetDateFilter(date)
	}
	if status, ok := c.GetQuery("status"); ok {
		h.history.SetStatusFilter(status)
	}

	date, status := h.history.Filters()
	response.OK(c, assessmentList{
		Items:    h.history.Visible(h.now()),
		Date:     date,
		Status:   status,
		Statuses: assessmentStatuses,
	})
}

func (h *AssessmentHandler) Refresh(c *gin.Context) {
	if err := h.history.Refresh(c.Request.Context()); err != nil {
		writeError(c, err, "failed to load assessments")
		return
	}
	h.List(c)
}
