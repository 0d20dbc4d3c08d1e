package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tastebook/backend/internal/service"
)

// RecipeHandler serves recipe reads, mutations and analytics.
type RecipeHandler struct {
	recipes *service.RecipeService
}

func NewRecipeHandler(recipes *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

// GetRecipe returns one recipe with author name and ingredients.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.recipes.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SearchRecipes pages recipes by keyword, category and minimum rating.
func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	page, size, ok := pageParams(c)
	if !ok {
		return
	}

	var minRating *float64
	if raw := strings.TrimSpace(c.Query("min_rating")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_rating"})
			return
		}
		minRating = &value
	}

	result, err := h.recipes.Search(c.Request.Context(),
		c.Query("keyword"), c.Query("category"), minRating, c.Query("sort"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createRecipeRequest struct {
	Auth   service.AuthInfo     `json:"auth"`
	Recipe service.ImportRecipe `json:"recipe"`
}

// CreateRecipe inserts a recipe owned by the authenticated caller.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.recipes.Create(c.Request.Context(), &req.Auth, &req.Recipe)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type updateTimesRequest struct {
	Auth     service.AuthInfo `json:"auth"`
	CookTime *string          `json:"cook_time"`
	PrepTime *string          `json:"prep_time"`
}

// UpdateRecipeTimes sets cook/prep durations and re-derives the total.
func (h *RecipeHandler) UpdateRecipeTimes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.recipes.UpdateTimes(c.Request.Context(), &req.Auth, id, req.CookTime, req.PrepTime); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRecipe removes a recipe and everything hanging off it.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var auth service.AuthInfo
	if err := c.ShouldBindJSON(&auth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), &auth, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClosestCaloriePair returns the two recipes closest in calories.
func (h *RecipeHandler) ClosestCaloriePair(c *gin.Context) {
	pair, err := h.recipes.ClosestCaloriePair(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// TopComplexRecipes returns the top 3 recipes by distinct ingredient count.
func (h *RecipeHandler) TopComplexRecipes(c *gin.Context) {
	rows, err := h.recipes.TopComplexByIngredients(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
