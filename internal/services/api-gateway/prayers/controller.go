package prayers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/obs"
	"github.com/NordCoder/Reminderus/internal/services/api-gateway/httpx"
	"github.com/NordCoder/Reminderus/internal/timings"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	return &Controller{log: log.With(zap.String("component", "api.prayers")), uc: uc}
}

func (ctl *Controller) Register(rg *gin.RouterGroup) {
	g := rg.Group("/prayers")
	g.GET("", ctl.day)
	g.GET("/history", ctl.history)
	g.GET("/timings", ctl.timings)
	g.POST("/timings/email", ctl.emailTimings)
	g.GET("/today", ctl.today)
	g.POST("/:id/complete", ctl.complete)
}

func (ctl *Controller) timings(c *gin.Context) {
	q := Query{Date: c.Query("date"), Timezone: c.Query("timezone")}
	var err error
	if q.Lat, err = floatParam(c, "lat"); err != nil {
		httpx.Fail(c, http.StatusBadRequest, "lat must be a number")
		return
	}
	if q.Lng, err = floatParam(c, "lng"); err != nil {
		httpx.Fail(c, http.StatusBadRequest, "lng must be a number")
		return
	}

	v, err := ctl.uc.Timings(c.Request.Context(), q)
	if err != nil {
		ctl.fail(c, "timings", err)
		return
	}
	httpx.OK(c, http.StatusOK, v)
}

func (ctl *Controller) emailTimings(c *gin.Context) {
	if err := ctl.uc.EmailTimings(c.Request.Context()); err != nil {
		ctl.fail(c, "email timings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ctl *Controller) today(c *gin.Context) {
	v, err := ctl.uc.Today(c.Request.Context())
	if err != nil {
		ctl.fail(c, "today", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v.Prayers, "date": v.Date, "timezone": v.Timezone})
}

func (ctl *Controller) day(c *gin.Context) {
	v, err := ctl.uc.Day(c.Request.Context(), c.Query("date"))
	if err != nil {
		ctl.fail(c, "day", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v.Prayers, "date": v.Date, "timezone": v.Timezone})
}

func (ctl *Controller) history(c *gin.Context) {
	days := DefaultHistoryDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Fail(c, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = n
	}
	v, err := ctl.uc.History(c.Request.Context(), days)
	if err != nil {
		ctl.fail(c, "history", err)
		return
	}
	httpx.OK(c, http.StatusOK, v)
}

// completeRequest: a missing completed field means false; an empty body is {}.
type completeRequest struct {
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

func (ctl *Controller) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	e, err := ctl.uc.Complete(c.Request.Context(), c.Param("id"), req.Completed, req.Date)
	if err != nil {
		ctl.fail(c, "complete", err)
		return
	}
	httpx.OK(c, http.StatusOK, e)
}

func (ctl *Controller) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, location.ErrNotConfigured):
		httpx.Fail(c, http.StatusBadRequest, "Location not configured")
	case errors.Is(err, ErrUnknownPrayer):
		httpx.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, timings.ErrUpstream):
		obs.WithTrace(c.Request.Context(), ctl.log).Warn(op, zap.Error(err))
		httpx.Fail(c, http.StatusBadGateway, "Failed to fetch prayer timings")
	case errors.Is(err, ErrMailDisabled):
		httpx.Fail(c, http.StatusServiceUnavailable, err.Error())
	default:
		obs.WithTrace(c.Request.Context(), ctl.log).Error(op, zap.Error(err))
		httpx.Fail(c, http.StatusInternalServerError, "internal error")
	}
}

func floatParam(c *gin.Context, name string) (*float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
