package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/app"
	"infosec-dashboard/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,max=128"`
}

type SignUpRequest struct {
	Email           string `json:"email" binding:"required,email,max=128"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "sign in failed")
		return
	}
	response.OK(c, result)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(c, err, "sign up failed")
		return
	}
	response.OK(c, result)
}

// SignOut always ends the local session; a failed remote revoke is reported
// alongside the success.
func (h *AuthHandler) SignOut(c *gin.Context) {
	data := gin.H{"signed_out": true}
	if err := h.authService.SignOut(c.Request.Context()); err != nil {
		_ = c.Error(err)
		data["warning"] = "the identity provider did not confirm the sign out"
	}
	response.OK(c, data)
}

func (h *AuthHandler) Me(c *gin.Context) {
	response.OK(c, h.authService.Me())
}
