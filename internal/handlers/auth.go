package handlers

import (
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	authService services.AuthService
}

func NewAuthHandler(db *gorm.DB, authService services.AuthService) *AuthHandler {
	return &AuthHandler{db: db, authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, token, err := h.authService.Register(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{User: newUserResponse(user), Token: token.Key})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, token, err := h.authService.Login(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{User: newUserResponse(user), Token: token.Key})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := middleware.CurrentToken(c)
	if err := h.authService.Logout(h.db.WithContext(c.Request.Context()), token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, newUserResponse(user))
}
