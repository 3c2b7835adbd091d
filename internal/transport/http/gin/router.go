package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/cineseat/internal/metrics"
	redisrepo "github.com/kirinyoku/cineseat/internal/repository/redis"
	"github.com/kirinyoku/cineseat/internal/service/cinema"
	"github.com/kirinyoku/cineseat/internal/service/purchase"
)

type Deps struct {
	Cinemas     CinemaService
	Purchases   PurchaseService
	Idempotency IdempotencyStore // optional
	Metrics     *metrics.Metrics // optional
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// Health is probed by /healthz when set.
	Health func(ctx context.Context) error
	Logger *slog.Logger
}

func NewRouter(deps Deps, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(LoggingMiddleware(logger), RequestIDMiddleware(), RecoveryMiddleware(), CORS())
	if deps.Metrics != nil {
		r.Use(MetricsMiddleware(deps.Metrics))
	}
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", handleHealth(deps.Health))
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	cinemas := r.Group("/cinemas")
	{
		cinemas.POST("", handleCreateCinema(deps.Cinemas))
		cinemas.GET("/:cinemaId", handleGetCinema(deps.Cinemas))
		cinemas.GET("/:cinemaId/seats", handleListSeats(deps.Cinemas))
		cinemas.GET("/:cinemaId/availability", handleAvailability(deps.Cinemas))

		cinemas.POST("/:cinemaId/seats/:seatNumber/purchase", handlePurchaseSeat(deps.Purchases, deps.Idempotency))
		cinemas.POST("/:cinemaId/consecutive-seats/purchase", handlePurchasePair(deps.Purchases, deps.Idempotency))
	}

	return r
}

// @Summary  Health check
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  ErrorResponse
// @Router   /healthz [get]
func handleHealth(probe func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if probe != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := probe(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, errorBody("store unavailable"))
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// @Summary  Create cinema with its seat map
// @Param    req  body      CreateCinemaRequest  true  "payload"
// @Success  201  {object}  CreateCinemaResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "cinema id already exists"
// @Failure  500  {object}  ErrorResponse
// @Router   /cinemas [post]
func handleCreateCinema(svc CinemaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCinemaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err)
			badRequest(c, "All fields are required")
			return
		}

		created, err := svc.Create(c.Request.Context(), cinema.CreateInput{
			Name:        req.CinemaName,
			ExternalID:  req.CinemaID,
			Address:     req.Address,
			TotalSeats:  req.TotalSeats,
			RowCapacity: req.EachRowCapacity,
		})
		if err != nil {
			respondErr(c, err, "Error creating cinema.")
			return
		}

		c.JSON(http.StatusCreated, CreateCinemaResponse{
			Status:  statusSuccess,
			Message: "Cinema created successfully",
			Cinema: CinemaRef{
				ID:         created.ID,
				CinemaName: created.Name,
			},
		})
	}
}

// @Summary  Get cinema
// @Param    cinemaId  path      string  true  "Cinema ID"
// @Success  200       {object}  CinemaResponse
// @Failure  404       {object}  ErrorResponse
// @Router   /cinemas/{cinemaId} [get]
func handleGetCinema(svc CinemaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := svc.Get(c.Request.Context(), c.Param("cinemaId"))
		if err != nil {
			respondErr(c, err, "Error loading cinema.")
			return
		}

		writeJSONWithETag(c, http.StatusOK, CinemaResponse{
			Status: statusSuccess,
			Cinema: found,
		}, "public, max-age=60")
	}
}

// @Summary  List cinema seats
// @Param    cinemaId  path      string  true   "Cinema ID"
// @Param    only      query     string  false  "available"
// @Success  200       {object}  SeatsResponse
// @Failure  404       {object}  ErrorResponse
// @Router   /cinemas/{cinemaId}/seats [get]
func handleListSeats(svc CinemaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		onlyAvailable := c.Query("only") == "available" ||
			c.Query("onlyAvailable") == "true"

		seats, err := svc.ListSeats(c.Request.Context(), c.Param("cinemaId"), onlyAvailable)
		if err != nil {
			respondErr(c, err, "Error loading seats.")
			return
		}

		writeJSONWithETag(c, http.StatusOK, SeatsResponse{
			Status: statusSuccess,
			Seats:  seats,
		}, "no-cache")
	}
}

// @Summary  Seat availability counters
// @Param    cinemaId  path      string  true  "Cinema ID"
// @Success  200       {object}  AvailabilityResponse
// @Failure  404       {object}  ErrorResponse
// @Router   /cinemas/{cinemaId}/availability [get]
func handleAvailability(svc CinemaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := svc.Availability(c.Request.Context(), c.Param("cinemaId"))
		if err != nil {
			respondErr(c, err, "Error loading availability.")
			return
		}

		writeJSONWithETag(c, http.StatusOK, AvailabilityResponse{
			Status:       statusSuccess,
			Availability: counts,
		}, "public, max-age=5")
	}
}

// @Summary  Purchase a seat
// @Param    cinemaId         path      string  true   "Cinema ID"
// @Param    seatNumber       path      int     true   "Seat number"
// @Param    Idempotency-Key  header    string  false  "replay protection"
// @Success  200              {object}  PurchaseSeatResponse
// @Failure  400              {object}  ErrorResponse
// @Failure  409              {object}  ErrorResponse  "seat unavailable / idempotency key in progress"
// @Failure  429              {object}  ErrorResponse
// @Router   /cinemas/{cinemaId}/seats/{seatNumber}/purchase [post]
func handlePurchaseSeat(svc PurchaseService, idem IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		cinemaID := c.Param("cinemaId")

		seatNumber, err := strconv.Atoi(c.Param("seatNumber"))
		if err != nil {
			badRequest(c, "invalid seatNumber")
			return
		}

		scope := "seat:" + strconv.Itoa(seatNumber)
		runIdempotent(c, idem, cinemaID, scope, "Error purchasing seat.", func(ctx context.Context) (any, error) {
			seatID, err := svc.PurchaseSeat(ctx, cinemaID, seatNumber, rateLimitKey(c))
			if err != nil {
				return nil, err
			}

			return PurchaseSeatResponse{
				Status:  statusSuccess,
				Message: "Seat purchased successfully",
				SeatID:  seatID,
			}, nil
		})
	}
}

// @Summary  Purchase two adjacent seats
// @Param    cinemaId         path      string  true   "Cinema ID"
// @Param    Idempotency-Key  header    string  false  "replay protection"
// @Success  200              {object}  PurchasePairResponse
// @Failure  409              {object}  ErrorResponse  "no adjacent seats / idempotency key in progress"
// @Failure  429              {object}  ErrorResponse
// @Router   /cinemas/{cinemaId}/consecutive-seats/purchase [post]
func handlePurchasePair(svc PurchaseService, idem IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		cinemaID := c.Param("cinemaId")

		runIdempotent(c, idem, cinemaID, "pair", "Error purchasing seats.", func(ctx context.Context) (any, error) {
			pair, err := svc.PurchasePair(ctx, cinemaID, rateLimitKey(c))
			if err != nil {
				return nil, err
			}

			return PurchasePairResponse{
				Status:  statusSuccess,
				Message: "Seats purchased successfully",
				Seats:   pair[:],
			}, nil
		})
	}
}

// runIdempotent executes buy at most once per Idempotency-Key. Successful
// responses are stored and replayed; failures release the key so the
// client may retry.
func runIdempotent(
	c *gin.Context,
	idem IdempotencyStore,
	cinemaID, scope, fallback string,
	buy func(ctx context.Context) (any, error),
) {
	ctx := c.Request.Context()

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idem == nil || key == "" {
		resp, err := buy(ctx)
		if err != nil {
			respondErr(c, err, fallback)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	storageKey := redisrepo.KeyIdemPurchase(cinemaID, scope, key)

	state, payload, err := idem.Claim(ctx, storageKey)
	if err != nil {
		respondErr(c, err, fallback)
		return
	}

	switch state {
	case redisrepo.IdemReplay:
		c.Header("Idempotency-Key", key)
		c.Header("Idempotent-Replayed", "true")
		c.Data(http.StatusOK, contentTypeJSON, []byte(payload))
		return
	case redisrepo.IdemInProgress:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, errorBody("idempotency key in progress"))
		return
	}

	resp, err := buy(ctx)
	if err != nil {
		_ = idem.Release(context.WithoutCancel(ctx), storageKey)
		respondErr(c, err, fallback)
		return
	}

	b, err := json.Marshal(resp)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody(fallback))
		return
	}

	if err := idem.SaveResult(context.WithoutCancel(ctx), storageKey, string(b)); err != nil {
		_ = c.Error(err)
	}

	c.Header("Idempotency-Key", key)
	c.Data(http.StatusOK, contentTypeJSON, b)
}

// --- Helpers ---

func rateLimitKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody(msg))
}

// respondErr maps service errors to status codes. Anything unrecognized is a
// 500 with the endpoint's fallback message; the cause is only logged.
func respondErr(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	var rl purchase.RateLimitedError

	switch {
	// cinema service
	case errors.Is(err, cinema.ErrInvalidArgument):
		badRequest(c, "All fields are required")
	case errors.Is(err, cinema.ErrDuplicateCinema):
		c.JSON(http.StatusConflict, ErrorResponse{
			Status:  statusError,
			Message: "Cinema ID already exists. Please use a different ID.",
			Error:   cinema.ErrDuplicateCinema.Error(),
		})
	case errors.Is(err, cinema.ErrCinemaNotFound):
		c.JSON(http.StatusNotFound, errorBody("Cinema not found"))
	case errors.Is(err, cinema.ErrIntegrity):
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status:  statusError,
			Message: fallback,
			Error:   cinema.ErrIntegrity.Error(),
		})
	// purchase service
	case errors.Is(err, purchase.ErrSeatUnavailable):
		c.JSON(http.StatusConflict, errorBody("Seat not available or already sold."))
	case errors.Is(err, purchase.ErrNoAdjacentSeats):
		c.JSON(http.StatusConflict, errorBody("No two consecutive seats available"))
	case errors.Is(err, purchase.ErrRateLimited):
		retry := time.Second
		if errors.As(err, &rl) {
			retry = rl.RetryAfter
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(retry)))
		c.JSON(http.StatusTooManyRequests, errorBody("Too many purchase attempts"))
	default:
		c.JSON(http.StatusInternalServerError, errorBody(fallback))
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
