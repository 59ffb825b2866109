package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authhandler "smartgadgets-system/internal/auth/handler"
)

type AuthHTTPHandler struct {
	auth *authhandler.AuthHandler
}

func NewAuthHTTPHandler(auth *authhandler.AuthHandler) *AuthHTTPHandler {
	return &AuthHTTPHandler{auth: auth}
}

func (s *AuthHTTPHandler) Login(c *gin.Context) {
	var req authhandler.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, result)
}
