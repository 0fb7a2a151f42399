package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nace129/booktable/internal/middleware"
	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/service"
)

// ReviewHandler exposes customer reviews.
type ReviewHandler struct {
	Svc *service.ReviewService
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Svc: svc}
}

type createReviewReq struct {
	RestaurantID  uint64 `json:"restaurant_id"`
	ReservationID uint64 `json:"reservation_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

type updateReviewReq struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type reviewResp struct {
	ID            uint64    `json:"id"`
	RestaurantID  uint64    `json:"restaurant_id"`
	UserID        uint64    `json:"user_id"`
	ReservationID uint64    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toReviewResp(r *model.Review) reviewResp {
	return reviewResp{
		ID:            r.ID,
		RestaurantID:  r.RestaurantID,
		UserID:        r.UserID,
		ReservationID: r.ReservationID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toReviewList(rr []model.Review) []reviewResp {
	out := make([]reviewResp, len(rr))
	for i := range rr {
		out[i] = toReviewResp(&rr[i])
	}
	return out
}

// Create adds a review for a completed visit.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rev, err := h.Svc.Create(ctx, middleware.CallerFrom(c), service.ReviewInput{
		RestaurantID:  req.RestaurantID,
		ReservationID: req.ReservationID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toReviewResp(rev))
}

// Update edits the caller's review.
func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req updateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rev, err := h.Svc.Update(ctx, middleware.CallerFrom(c), id, service.UpdateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResp(rev))
}

// Delete removes a review.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Delete(ctx, middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForRestaurant returns a restaurant's reviews.
func (h *ReviewHandler) ListForRestaurant(c echo.Context) error {
	restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rr, err := h.Svc.ListForRestaurant(ctx, restaurantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewList(rr))
}

// ListMine returns the caller's reviews.
func (h *ReviewHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rr, err := h.Svc.ListForUser(ctx, middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewList(rr))
}
