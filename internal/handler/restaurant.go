package handler

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nace129/booktable/internal/config"
	"github.com/nace129/booktable/internal/middleware"
	"github.com/nace129/booktable/internal/model"
	"github.com/nace129/booktable/internal/service"
)

// RestaurantHandler exposes the restaurant directory: public browse
// and search, manager CRUD and admin moderation. Search responses are
// cached in Redis for a short TTL since search is the hottest read
// path and tolerates slightly stale results.
type RestaurantHandler struct {
	Svc      *service.RestaurantService
	Cache    *redis.Client
	CacheCfg config.SearchCacheConfig
}

func NewRestaurantHandler(svc *service.RestaurantService, cache *redis.Client, cacheCfg config.SearchCacheConfig) *RestaurantHandler {
	return &RestaurantHandler{Svc: svc, Cache: cache, CacheCfg: cacheCfg}
}

// ----- DTOs -----

type addressDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type hoursDTO struct {
	DayOfWeek int    `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	OpenTime  string `json:"open_time"`   // "HH:MM"
	CloseTime string `json:"close_time"`  // "HH:MM"
}

type tableDTO struct {
	ID          uint64 `json:"id,omitempty"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	IsAvailable bool   `json:"is_available"`
}

type restaurantReq struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Address      addressDTO `json:"address"`
	PhoneNumber  string     `json:"phone_number"`
	Email        string     `json:"email"`
	Website      string     `json:"website"`
	CuisineTypes []string   `json:"cuisine_types"`
	PriceRange   int        `json:"price_range"`
	OpeningHours []hoursDTO `json:"opening_hours"`
	Tables       []tableDTO `json:"tables"`
}

type restaurantUpdateReq struct {
	Name         *string     `json:"name"`
	Description  *string     `json:"description"`
	Address      *addressDTO `json:"address"`
	PhoneNumber  *string     `json:"phone_number"`
	Email        *string     `json:"email"`
	Website      *string     `json:"website"`
	CuisineTypes []string    `json:"cuisine_types"`
	PriceRange   *int        `json:"price_range"`
	OpeningHours []hoursDTO  `json:"opening_hours"`
	Tables       []tableDTO  `json:"tables"`
	Active       *bool       `json:"active"`
}

type restaurantResp struct {
	ID                 uint64     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Address            addressDTO `json:"address"`
	PhoneNumber        string     `json:"phone_number"`
	Email              string     `json:"email"`
	Website            string     `json:"website"`
	CuisineTypes       []string   `json:"cuisine_types"`
	PriceRange         int        `json:"price_range"`
	OpeningHours       []hoursDTO `json:"opening_hours"`
	Tables             []tableDTO `json:"tables"`
	ManagerID          uint64     `json:"manager_id"`
	Approved           bool       `json:"approved"`
	Active             bool       `json:"active"`
	AverageRating      float64    `json:"average_rating"`
	TotalReviews       int        `json:"total_reviews"`
	TotalBookingsToday int        `json:"total_bookings_today"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toHours(hh []hoursDTO) []model.OpeningHours {
	if hh == nil {
		return nil
	}
	out := make([]model.OpeningHours, len(hh))
	for i, h := range hh {
		out[i] = model.OpeningHours{
			DayOfWeek: time.Weekday(h.DayOfWeek),
			OpenTime:  h.OpenTime,
			CloseTime: h.CloseTime,
		}
	}
	return out
}

func toTables(tt []tableDTO) []model.Table {
	if tt == nil {
		return nil
	}
	out := make([]model.Table, len(tt))
	for i, t := range tt {
		out[i] = model.Table{Name: t.Name, Capacity: t.Capacity, IsAvailable: t.IsAvailable}
	}
	return out
}

func toRestaurantResp(r *model.Restaurant) restaurantResp {
	resp := restaurantResp{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Address: addressDTO{
			Street: r.Address.Street, City: r.Address.City,
			State: r.Address.State, ZipCode: r.Address.ZipCode,
		},
		PhoneNumber:        r.PhoneNumber,
		Email:              r.Email,
		Website:            r.Website,
		CuisineTypes:       r.CuisineTypes,
		PriceRange:         r.PriceRange,
		ManagerID:          r.ManagerID,
		Approved:           r.Approved,
		Active:             r.Active,
		AverageRating:      r.AverageRating,
		TotalReviews:       r.TotalReviews,
		TotalBookingsToday: r.TotalBookingsToday,
		CreatedAt:          r.CreatedAt,
	}
	for _, h := range r.OpeningHours {
		resp.OpeningHours = append(resp.OpeningHours, hoursDTO{
			DayOfWeek: int(h.DayOfWeek), OpenTime: h.OpenTime, CloseTime: h.CloseTime,
		})
	}
	for _, t := range r.Tables {
		resp.Tables = append(resp.Tables, tableDTO{
			ID: t.ID, Name: t.Name, Capacity: t.Capacity, IsAvailable: t.IsAvailable,
		})
	}
	return resp
}

func toRestaurantList(rests []model.Restaurant) []restaurantResp {
	out := make([]restaurantResp, len(rests))
	for i := range rests {
		out[i] = toRestaurantResp(&rests[i])
	}
	return out
}

// ----- public -----

// List returns approved, active restaurants.
func (h *RestaurantHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rests, err := h.Svc.ListApproved(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRestaurantList(rests))
}

// Get returns one restaurant.
func (h *RestaurantHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Svc.Get(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRestaurantResp(rest))
}

// Search finds restaurants with a free table around the requested
// time. Query parameters: city, state, zip_code, cuisine_type,
// date_time (RFC 3339), party_size.
func (h *RestaurantHandler) Search(c echo.Context) error {
	dt, err := time.Parse(time.RFC3339, c.QueryParam("date_time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_time must be RFC 3339"})
	}
	partySize, err := strconv.Atoi(c.QueryParam("party_size"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be an integer"})
	}
	in := service.SearchInput{
		City:        c.QueryParam("city"),
		State:       c.QueryParam("state"),
		ZipCode:     c.QueryParam("zip_code"),
		CuisineType: c.QueryParam("cuisine_type"),
		DateTime:    dt,
		PartySize:   partySize,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	key := h.searchKey(in)
	if key != "" {
		if cached, err := h.Cache.Get(ctx, key).Bytes(); err == nil {
			c.Response().Header().Set("X-Cache", "HIT")
			return c.JSONBlob(http.StatusOK, cached)
		}
	}

	rests, err := h.Svc.Search(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	resp := toRestaurantList(rests)

	if key != "" {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.Cache.SetEx(ctx, key, payload, h.CacheCfg.TTL).Err(); err != nil {
				logrus.WithError(err).Debug("search cache write failed")
			}
		}
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return c.JSON(http.StatusOK, resp)
}

// searchKey builds a stable cache key from the search parameters, or
// "" when caching is off.
func (h *RestaurantHandler) searchKey(in service.SearchInput) string {
	if !h.CacheCfg.Enabled || h.Cache == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		in.City, in.State, in.ZipCode, in.CuisineType,
		in.DateTime.UTC().Format(time.RFC3339), in.PartySize)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%x", h.CacheCfg.Prefix, sum[:])
}

// ----- manager -----

// Create registers a new restaurant owned by the caller.
func (h *RestaurantHandler) Create(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Svc.Create(ctx, middleware.CallerFrom(c), service.RestaurantInput{
		Name:        req.Name,
		Description: req.Description,
		Address: model.Address{
			Street: req.Address.Street, City: req.Address.City,
			State: req.Address.State, ZipCode: req.Address.ZipCode,
		},
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		Website:      req.Website,
		CuisineTypes: req.CuisineTypes,
		PriceRange:   req.PriceRange,
		OpeningHours: toHours(req.OpeningHours),
		Tables:       toTables(req.Tables),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toRestaurantResp(rest))
}

// Update applies a partial update to a restaurant.
func (h *RestaurantHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req restaurantUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in := service.RestaurantUpdate{
		Name:         req.Name,
		Description:  req.Description,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		Website:      req.Website,
		CuisineTypes: req.CuisineTypes,
		PriceRange:   req.PriceRange,
		OpeningHours: toHours(req.OpeningHours),
		Tables:       toTables(req.Tables),
		Active:       req.Active,
	}
	if req.Address != nil {
		in.Address = &model.Address{
			Street: req.Address.Street, City: req.Address.City,
			State: req.Address.State, ZipCode: req.Address.ZipCode,
		}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Svc.Update(ctx, middleware.CallerFrom(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRestaurantResp(rest))
}

// Delete soft-deletes a restaurant.
func (h *RestaurantHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Delete(ctx, middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMine returns the caller's restaurants.
func (h *RestaurantHandler) ListMine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rests, err := h.Svc.ListMine(ctx, middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRestaurantList(rests))
}

// ----- admin -----

// ListPending returns restaurants awaiting approval.
func (h *RestaurantHandler) ListPending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rests, err := h.Svc.ListPending(ctx, middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRestaurantList(rests))
}

// Approve marks a restaurant approved.
func (h *RestaurantHandler) Approve(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Svc.Approve(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toRestaurantResp(rest))
}
