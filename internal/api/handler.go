package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/suraksha/alertwatch/internal/location"
	"github.com/suraksha/alertwatch/internal/mailer"
	"github.com/suraksha/alertwatch/internal/models"
	"github.com/suraksha/alertwatch/internal/otp"
	"github.com/suraksha/alertwatch/internal/pipeline"
	"github.com/suraksha/alertwatch/internal/repository"
	"github.com/suraksha/alertwatch/internal/worker"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// consentHeader signals that the client agreed to share its location.
const consentHeader = "X-Location-Consent"

type Options struct {
	DefaultMonthsBack int
	MediaDir          string
	NotifyList        []string
	MailFrom          string
}

type Handler struct {
	repo     repository.AlertRepository
	pipe     *pipeline.Pipeline
	provider *location.Provider
	otp      *otp.Manager
	mail     mailer.Mailer
	intake   *worker.Pool
	opts     Options
}

func NewHandler(repo repository.AlertRepository, pipe *pipeline.Pipeline, provider *location.Provider, otpMgr *otp.Manager, mail mailer.Mailer, intake *worker.Pool, opts Options) *Handler {
	if opts.DefaultMonthsBack <= 0 {
		opts.DefaultMonthsBack = 3
	}
	return &Handler{
		repo:     repo,
		pipe:     pipe,
		provider: provider,
		otp:      otpMgr,
		mail:     mail,
		intake:   intake,
		opts:     opts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/alerts", h.getAlerts)
	r.POST("/api/alerts", h.submitAlert)
	r.POST("/api/auth/forgot", h.forgotPassword)
	r.POST("/api/auth/reset", h.resetPassword)
	r.GET("/health", h.health)
}

func (h *Handler) getAlerts(c *gin.Context) {
	criteria := pipeline.Criteria{
		MonthsBack:        h.opts.DefaultMonthsBack,
		Category:          pipeline.CategoryAll,
		LocationSubstring: c.Query("location"),
		Tab:               pipeline.ParseTab(c.Query("tab")),
	}
	if m := c.Query("months"); m != "" {
		if months, err := strconv.Atoi(m); err == nil && months > 0 {
			criteria.MonthsBack = months
		}
	}
	if t := c.Query("category"); t != "" && t != pipeline.CategoryAll {
		criteria.Category = string(models.ParseCategory(t))
	}
	sortMode := pipeline.ParseSortMode(c.Query("sort"))

	userLocation := h.resolveLocation(c)
	if userLocation == nil {
		// Proximity ranking is not a valid selection without a
		// location; fall back to recency.
		sortMode = pipeline.SortRecent
	}

	since := time.Now().AddDate(0, -criteria.MonthsBack, 0)
	alerts, err := h.repo.List(c.Request.Context(), repository.Filter{Since: &since})
	if err != nil {
		slog.Error("failed to list alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	ranked := h.pipe.Rank(alerts, criteria, userLocation, sortMode)
	c.JSON(http.StatusOK, gin.H{
		"alerts": ranked,
		"count":  len(ranked),
		"sort":   string(sortMode),
	})
}

// resolveLocation turns request hints into the user's position: explicit
// lat/lon first, then consent-gated IP lookup. Failures are non-fatal;
// the alert list simply loses proximity ranking.
func (h *Handler) resolveLocation(c *gin.Context) *models.Coordinate {
	consent := strings.EqualFold(c.GetHeader(consentHeader), "granted")

	q := location.Query{
		ClientIP: c.ClientIP(),
		Consent:  consent,
	}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr == nil && lonErr == nil {
			q.Consent = true // sharing coordinates is consent
			q.Coordinate = &models.Coordinate{Latitude: lat, Longitude: lon}
		}
	}

	coord, err := h.provider.Request(c.Request.Context(), q)
	if err != nil {
		if !errors.Is(err, location.ErrPermissionDenied) {
			slog.Debug("location unavailable", "error", err)
		}
		// Readers may still use the previously published value.
		if cur, ok := h.provider.Current(); ok {
			return &cur
		}
		return nil
	}
	return &coord
}

func (h *Handler) submitAlert(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	phone := strings.TrimSpace(c.PostForm("phone"))
	city := strings.TrimSpace(c.PostForm("city"))
	description := strings.TrimSpace(c.PostForm("description"))

	var missing []string
	for field, value := range map[string]string{
		"name": name, "phone": phone, "city": city, "description": description,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "required fields missing",
			"fields": missing,
		})
		return
	}
	if !phonePattern.MatchString(phone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid phone number, include country code if applicable",
		})
		return
	}

	category := models.ParseCategory(c.PostForm("disasterType"))
	severity := models.ParseSeverity(c.PostForm("severity"))

	alert := &models.AlertRecord{
		ID:           "report_" + uuid.NewString(),
		Title:        fmt.Sprintf("%s reported in %s", titleCase(string(category)), city),
		LocationText: city,
		Category:     category,
		Severity:     severity,
		StartTime:    time.Now(),
		Description:  description,
		CreatedAt:    time.Now(),
	}
	if cur, ok := h.provider.Current(); ok {
		alert.Coordinates = &cur
	}

	if file, err := c.FormFile("image"); err == nil && h.opts.MediaDir != "" {
		dst := filepath.Join(h.opts.MediaDir, alert.ID+filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			slog.Error("failed to store report media", "id", alert.ID, "error", err)
		}
	}

	h.intake.Submit(alert)
	h.notifyAuthorities(alert, name, phone)

	c.JSON(http.StatusAccepted, gin.H{
		"message": "alert submitted, authorities will review your report",
		"id":      alert.ID,
	})
}

// notifyAuthorities is fire-and-forget: delivery failure is logged and
// never blocks or fails the submission.
func (h *Handler) notifyAuthorities(alert *models.AlertRecord, name, phone string) {
	if len(h.opts.NotifyList) == 0 {
		return
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Title)
	body := fmt.Sprintf("Reported by %s (%s)\nLocation: %s\n\n%s",
		name, phone, alert.LocationText, alert.Description)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, to := range h.opts.NotifyList {
			if err := h.mail.Send(ctx, to, subject, body); err != nil {
				slog.Error("notification mail failed", "to", to, "alert", alert.ID, "error", err)
			}
		}
	}()
}

type forgotRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if err := h.otp.Issue(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, otp.ErrBadDestination) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "enter a valid email address"})
			return
		}
		slog.Error("otp issuance failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "verification code sent",
		"expires_in": int(otp.TTL.Seconds()),
	})
}

type resetRequest struct {
	Email           string `json:"email" binding:"required"`
	Code            string `json:"code" binding:"required"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
		return
	}

	err := h.otp.Verify(req.Email, req.Code, req.NewPassword, req.ConfirmPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "password reset successfully"})
	case errors.Is(err, otp.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords must be non-empty and match"})
	case errors.Is(err, otp.ErrCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect verification code"})
	case errors.Is(err, otp.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "verification code expired, request a new one"})
	case errors.Is(err, otp.ErrAlreadyConsumed):
		c.JSON(http.StatusConflict, gin.H{"error": "code already used, request a new one"})
	case errors.Is(err, otp.ErrNotIssued):
		c.JSON(http.StatusNotFound, gin.H{"error": "no verification code requested for this email"})
	default:
		slog.Error("otp verification failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
