package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-daily/internal/domain/chat"
	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/domain/reading"
	"github.com/yanqian/astro-daily/internal/domain/zodiac"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	profiles profile.Repository
	readings reading.Service
	chats    chat.Service
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(profiles profile.Repository, readings reading.Service, chats chat.Service, logger *slog.Logger) *Handler {
	return &Handler{
		profiles: profiles,
		readings: readings,
		chats:    chats,
		logger:   logger.With("component", "http.handler"),
	}
}

type readingPayload struct {
	reading.Result
	Traits    string           `json:"traits"`
	SignColor string           `json:"signColor"`
	Chart     []zodiac.Segment `json:"chart"`
}

type zodiacPayload struct {
	Year       int    `json:"year"`
	Sign       string `json:"sign"`
	Traits     string `json:"traits"`
	Color      string `json:"color"`
	Element    string `json:"element"`
	HourSign   string `json:"hourSign,omitempty"`
	HourTraits string `json:"hourTraits,omitempty"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PutProfile validates and stores the birth profile. A changed profile invalidates the cached reading.
func (h *Handler) PutProfile(c *gin.Context) {
	var req profile.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	ctx := c.Request.Context()

	previous, hadPrevious, err := h.profiles.Load(ctx)
	if err != nil {
		h.logger.Warn("load previous profile failed", "error", err)
	}
	saved, err := h.profiles.Save(ctx, req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	if hadPrevious && !profile.Equal(previous, saved) {
		if err := h.readings.ClearCachedReading(ctx); err != nil {
			h.logger.Warn("clear reading after profile change failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, saved)
}

// GetProfile returns the stored birth profile.
func (h *Handler) GetProfile(c *gin.Context) {
	p, ok, err := h.profiles.Load(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "profile_not_found", "no birth profile has been saved", nil))
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetReading returns today's reading for the stored profile. refresh=true bypasses the cache.
func (h *Handler) GetReading(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok, err := h.profiles.Load(ctx)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "profile_not_found", "save a birth profile before requesting a reading", nil))
		return
	}

	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	var res reading.Result
	if refresh {
		res, err = h.readings.Refresh(ctx, p)
	} else {
		res, err = h.readings.GetDailyReading(ctx, p)
	}
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, readingPayload{
		Result:    res,
		Traits:    zodiac.Traits(res.Reading.Zodiac),
		SignColor: zodiac.SignColor(res.Reading.Zodiac),
		Chart:     res.Reading.Chart(),
	})
}

// ClearReadingCache drops the cached reading. Store failures are logged by the service.
func (h *Handler) ClearReadingCache(c *gin.Context) {
	_ = h.readings.ClearCachedReading(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// Zodiac looks up the animal for a year and, optionally, a birth hour.
func (h *Handler) Zodiac(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "year must be an integer", err))
		return
	}
	sign := zodiac.Sign(year)
	payload := zodiacPayload{
		Year:    year,
		Sign:    sign,
		Traits:  zodiac.Traits(sign),
		Color:   zodiac.SignColor(sign),
		Element: string(zodiac.YearElement(year)),
	}
	if raw := c.Query("hour"); raw != "" {
		hour, err := strconv.Atoi(raw)
		if err != nil || zodiac.HourSign(hour) == "" {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "hour must be between 0 and 23", err))
			return
		}
		payload.HourSign = zodiac.HourSign(hour)
		payload.HourTraits = zodiac.Traits(payload.HourSign)
	}
	c.JSON(http.StatusOK, payload)
}

// CreateChatSession opens a conversation seeded with the welcome message.
func (h *Handler) CreateChatSession(c *gin.Context) {
	c.JSON(http.StatusCreated, h.chats.Create(c.Request.Context()))
}

// GetChatSession returns history and delivery mode.
func (h *Handler) GetChatSession(c *gin.Context) {
	view, err := h.chats.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// SendChatMessage delivers one message. Delivery failures come back as error replies, not HTTP errors.
func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	ex, err := h.chats.Send(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, ex)
}

// ResetChatSession returns delivery to direct mode.
func (h *Handler) ResetChatSession(c *gin.Context) {
	view, msg, err := h.chats.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view, "message": msg})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
