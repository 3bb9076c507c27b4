package settings

import (
	"errors"
	"net/http"

	"github.com/NordCoder/Reminderus/internal/obs"
	"github.com/NordCoder/Reminderus/internal/services/api-gateway/httpx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	return &Controller{log: log.With(zap.String("component", "api.settings")), uc: uc}
}

func (ctl *Controller) Register(rg *gin.RouterGroup) {
	rg.GET("/settings/location", ctl.getLocation)
	rg.POST("/settings/location", ctl.setLocation)
}

// Pointers tell a missing coordinate apart from 0.
type setLocationRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Timezone string   `json:"timezone"`
}

func (ctl *Controller) getLocation(c *gin.Context) {
	l, err := ctl.uc.Location(c.Request.Context())
	if err != nil {
		obs.WithTrace(c.Request.Context(), ctl.log).Error("get location", zap.Error(err))
		httpx.Fail(c, http.StatusInternalServerError, "failed to load location")
		return
	}
	httpx.OK(c, http.StatusOK, l)
}

func (ctl *Controller) setLocation(c *gin.Context) {
	var req setLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		httpx.Fail(c, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}

	l, err := ctl.uc.SetLocation(c.Request.Context(), *req.Lat, *req.Lng, req.Timezone)
	switch {
	case errors.Is(err, ErrInvalidLocation):
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		obs.WithTrace(c.Request.Context(), ctl.log).Error("set location", zap.Error(err))
		httpx.Fail(c, http.StatusInternalServerError, "failed to save location")
		return
	}
	httpx.OK(c, http.StatusOK, l)
}
