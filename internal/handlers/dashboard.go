package handlers

import (
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	summary, err := services.SummaryFor(h.db.WithContext(c.Request.Context()), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
