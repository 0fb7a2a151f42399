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

// ReservationHandler exposes the booking lifecycle.
type ReservationHandler struct {
	Svc *service.BookingService
}

func NewReservationHandler(svc *service.BookingService) *ReservationHandler {
	return &ReservationHandler{Svc: svc}
}

// ----- DTOs -----

type createReservationReq struct {
	RestaurantID    uint64    `json:"restaurant_id"`
	DateTime        time.Time `json:"date_time"`
	PartySize       int       `json:"party_size"`
	SpecialRequests string    `json:"special_requests"`
}

type updateReservationReq struct {
	DateTime        *time.Time `json:"date_time"`
	PartySize       *int       `json:"party_size"`
	SpecialRequests *string    `json:"special_requests"`
	Status          *string    `json:"status"`
}

type reservationResp struct {
	ID               uint64    `json:"id"`
	RestaurantID     uint64    `json:"restaurant_id"`
	UserID           uint64    `json:"user_id"`
	TableID          uint64    `json:"table_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	DateTime         time.Time `json:"date_time"`
	PartySize        int       `json:"party_size"`
	SpecialRequests  string    `json:"special_requests"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:               r.ID,
		RestaurantID:     r.RestaurantID,
		UserID:           r.UserID,
		TableID:          r.TableID,
		ConfirmationCode: r.ConfirmationCode,
		DateTime:         r.ReservationDateTime,
		PartySize:        r.PartySize,
		SpecialRequests:  r.SpecialRequests,
		Status:           string(r.Status),
		CreatedAt:        r.CreatedAt,
	}
}

func toReservationList(rr []model.Reservation) []reservationResp {
	out := make([]reservationResp, len(rr))
	for i := range rr {
		out[i] = toReservationResp(&rr[i])
	}
	return out
}

// Create books a table.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Create(ctx, middleware.CallerFrom(c), service.CreateInput{
		RestaurantID:    req.RestaurantID,
		DateTime:        req.DateTime,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// Get returns one reservation.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Get(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// ListMine returns the caller's reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rr, err := h.Svc.ListForUser(ctx, middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationList(rr))
}

// ListForRestaurant returns a restaurant's reservations to its manager
// or an admin.
func (h *ReservationHandler) ListForRestaurant(c echo.Context) error {
	restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rr, err := h.Svc.ListForRestaurant(ctx, middleware.CallerFrom(c), restaurantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationList(rr))
}

// Update applies a partial update to a reservation.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in := service.UpdateInput{
		DateTime:        req.DateTime,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	}
	if req.Status != nil {
		status := model.ReservationStatus(*req.Status)
		in.Status = &status
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Update(ctx, middleware.CallerFrom(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Cancel moves a reservation to CANCELLED.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Cancel(ctx, middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
