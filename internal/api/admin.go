package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tastebook/backend/internal/database"
	"github.com/tastebook/backend/internal/service"
)

// AdminHandler serves the operational endpoints: bulk import and schema
// teardown. These are mounted behind the operator's network boundary, not
// exposed to end users.
type AdminHandler struct {
	db       *gorm.DB
	importer *service.ImportService
}

func NewAdminHandler(db *gorm.DB, importer *service.ImportService) *AdminHandler {
	return &AdminHandler{db: db, importer: importer}
}

type importRequest struct {
	Users   []service.ImportUser   `json:"users"`
	Recipes []service.ImportRecipe `json:"recipes"`
	Reviews []service.ImportReview `json:"reviews"`
}

// Import bulk-loads users, recipes and reviews in one transaction.
func (h *AdminHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.importer.Import(req.Users, req.Recipes, req.Reviews); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":   len(req.Users),
		"recipes": len(req.Recipes),
		"reviews": len(req.Reviews),
	})
}

// Drop tears down every application table.
func (h *AdminHandler) Drop(c *gin.Context) {
	if err := database.DropAll(h.db); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
