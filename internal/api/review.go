package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tastebook/backend/internal/service"
)

// ReviewHandler serves review mutations, listings and like toggles.
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type reviewRequest struct {
	Auth   service.AuthInfo `json:"auth"`
	Rating int              `json:"rating"`
	Body   string           `json:"body"`
}

// AddReview creates the caller's review on a recipe.
func (h *ReviewHandler) AddReview(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.reviews.Add(&req.Auth, recipeID, req.Rating, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListReviews pages a recipe's reviews.
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, size, ok := pageParams(c)
	if !ok {
		return
	}

	result, err := h.reviews.ListByRecipe(recipeID, page, size, c.Query("sort"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// EditReview updates the caller's own review.
func (h *ReviewHandler) EditReview(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "reviewID")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.reviews.Edit(&req.Auth, recipeID, reviewID, req.Rating, req.Body); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteReview removes the caller's own review.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "reviewID")
	if !ok {
		return
	}
	var auth service.AuthInfo
	if err := c.ShouldBindJSON(&auth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.reviews.Delete(&auth, recipeID, reviewID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LikeReview adds the caller's like and returns the new count.
func (h *ReviewHandler) LikeReview(c *gin.Context) {
	h.toggleLike(c, true)
}

// UnlikeReview removes the caller's like and returns the new count.
func (h *ReviewHandler) UnlikeReview(c *gin.Context) {
	h.toggleLike(c, false)
}

func (h *ReviewHandler) toggleLike(c *gin.Context, like bool) {
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var auth service.AuthInfo
	if err := c.ShouldBindJSON(&auth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		count int64
		err   error
	)
	if like {
		count, err = h.reviews.Like(&auth, reviewID)
	} else {
		count, err = h.reviews.Unlike(&auth, reviewID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"like_count": count})
}
