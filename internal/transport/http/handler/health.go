package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/bootstrap"
	mysqlClient "infosec-dashboard/internal/platform/mysql"
	redisClient "infosec-dashboard/internal/platform/redis"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports the optional infrastructure that is enabled. Disabled
// dependencies are left out.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	allOK := true
	add := func(name string, status dependencyStatus) {
		deps[name] = status
		allOK = allOK && status.OK
	}
	if h.app.MySQL != nil {
		add("mysql", statusOf(mysqlClient.Ping(ctx, h.app.MySQL)))
	}
	if h.app.Redis != nil {
		add("redis", statusOf(redisClient.Ping(ctx, h.app.Redis)))
	}
	if h.app.Config.RabbitMQ.Enabled {
		add("rabbitmq", h.checkRabbitMQ())
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"app":           h.app.Config.App.Name,
		"env":           h.app.Config.App.Env,
		"uptime_sec":    int(time.Since(h.app.StartedAt).Seconds()),
		"authenticated": h.app.Sessions.CurrentSession().Authenticated,
		"dependencies":  deps,
	})
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}

func statusOf(err error) dependencyStatus {
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}
