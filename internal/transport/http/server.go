package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/bootstrap"
	"infosec-dashboard/internal/logging"
	"infosec-dashboard/internal/transport/http/handler"
	"infosec-dashboard/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(logging.GinMiddleware(app.Logger.Named("http")), gin.Recovery())
	if app.Config.Backend.MaxUploadSizeBytes > 0 {
		router.MaxMultipartMemory = app.Config.Backend.MaxUploadSizeBytes
	}

	dash := app.Dashboard
	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(dash.Auth)
	sheetHandler := handler.NewSheetHandler(dash.Sheets)
	documentHandler := handler.NewDocumentHandler(dash.Documents, app.Config.Backend.MaxUploadSizeBytes)
	assessmentHandler := handler.NewAssessmentHandler(dash.Assessments, time.Now)
	var transcripts handler.TranscriptReader
	if app.Transcripts != nil {
		transcripts = app.Transcripts
	}
	chatHandler := handler.NewChatHandler(dash, transcripts, app.Logger.Named("chat"))

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/signin", authHandler.SignIn)
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/signout", authHandler.SignOut)
	authGroup.GET("/me", authHandler.Me)

	private := v1.Group("")
	private.Use(middleware.RequireSession(app.Sessions))

	private.POST("/sheets/analyze", sheetHandler.Analyze)
	private.GET("/sheets/current", sheetHandler.Current)
	private.DELETE("/sheets/current", sheetHandler.Clear)

	private.GET("/documents", documentHandler.List)
	private.POST("/documents/refresh", documentHandler.Refresh)
	private.POST("/documents", documentHandler.Upload)

	private.GET("/assessments", assessmentHandler.List)
	private.POST("/assessments/refresh", assessmentHandler.Refresh)

	private.GET("/chat/messages", chatHandler.Transcript)
	private.POST("/chat/messages", chatHandler.Send)
	private.GET("/chat/messages/history", chatHandler.History)

	return router
}
