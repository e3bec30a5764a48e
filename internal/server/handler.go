package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mindcanvas/internal/backup"
	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/credentials"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/metrics"
	"github.com/dmitrijs2005/mindcanvas/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// MsgWrongCredentials is the only message a failed login ever gets.
const MsgWrongCredentials = "wrong username or password"

type EntryService interface {
	List(ctx context.Context) ([]models.Entry, error)
	Get(ctx context.Context, id string) (*models.Entry, error)
	Add(ctx context.Context, title, text string, media ...string) (*models.Entry, error)
	Update(ctx context.Context, id, title, text string) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context) (*models.Document, error)
}

type CredentialService interface {
	VerifyLogin(ctx context.Context, username, password string) bool
	UpdateCredentials(ctx context.Context, u credentials.Update) error
}

type TokenService interface {
	Issue(username string) (string, error)
	Username(token string) (string, error)
	Revoke(token string)
}

type BackupLister interface {
	List() ([]backup.Info, error)
}

type Deps struct {
	Entries     EntryService
	Credentials CredentialService
	Tokens      TokenService
	Backups     BackupLister
	Metrics     *metrics.Metrics
	Logger      logging.Logger
	SessionTTL  time.Duration
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type entryRequest struct {
	Title        string   `json:"title"`
	Text         string   `json:"text"`
	MediaContent []string `json:"media_content"`
}

type credentialsRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}

// writeError maps domain errors to status codes. Details of internal
// failures are logged, never returned.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, errorBody("unauthorized"))
	default:
		h.Logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	ctx := c.Request.Context()
	ok := h.Credentials.VerifyLogin(ctx, req.Username, req.Password)
	h.Metrics.ObserveLogin(ok)
	if !ok {
		h.Logger.Warn(ctx, "failed login", "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, errorBody(MsgWrongCredentials))
		return
	}

	token, err := h.Tokens.Issue(req.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.SessionTTL.Seconds()))
	h.Logger.Info(ctx, "admin logged in", "ip", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) Logout(c *gin.Context) {
	h.Tokens.Revoke(c.GetString(tokenKey))
	h.setSessionCookie(c, "", -1)
	h.Logger.Info(c.Request.Context(), "admin logged out", "username", c.GetString(usernameKey))
	c.Status(http.StatusNoContent)
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, value, maxAge, "/", "", c.Request.TLS != nil, true)
}

// ListEntries returns entries newest first; ?order=asc keeps creation order.
func (h *Handler) ListEntries(c *gin.Context) {
	list, err := h.Entries.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if c.Query("order") != "asc" {
		list = lo.Reverse(list)
	}
	c.JSON(http.StatusOK, gin.H{"entries": list})
}

func (h *Handler) GetEntry(c *gin.Context) {
	e, err := h.Entries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) AddEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	e, err := h.Entries.Add(c.Request.Context(), req.Title, req.Text, req.MediaContent...)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) UpdateEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	e, err := h.Entries.Update(c.Request.Context(), c.Param("id"), req.Title, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEntry(c *gin.Context) {
	if err := h.Entries.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportJSON sends the whole decrypted journal as a download.
func (h *Handler) ExportJSON(c *gin.Context) {
	doc, err := h.Entries.Export(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	filename := "journal_export_" + time.Now().UTC().Format(backup.TimeLayout) + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.IndentedJSON(http.StatusOK, doc)
}

func (h *Handler) ListBackups(c *gin.Context) {
	list, err := h.Backups.List()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": list})
}

// UpdateCredentials changes the admin username and/or password. Existing
// sessions stay valid until they expire or log out.
func (h *Handler) UpdateCredentials(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.Username == nil && req.Password == nil {
		c.JSON(http.StatusBadRequest, errorBody("nothing to update"))
		return
	}

	err := h.Credentials.UpdateCredentials(c.Request.Context(), credentials.Update{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.Logger.Info(c.Request.Context(), "admin credentials changed over HTTP",
		"by", c.GetString(usernameKey), "username_changed", req.Username != nil)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
