package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"callcenter-platform/internal/assignment"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/contacts"
	"callcenter-platform/internal/lists"
	"callcenter-platform/internal/outcomes"
	"callcenter-platform/internal/recycler"
	"callcenter-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth     *auth.Manager
	Lists    *lists.Service
	Manual   *recycler.ManualRecycler
	Assign   *assignment.Service
	Outcomes *outcomes.Recorder
	Reports  *reporting.Service
	Audit    *audit.Service
}

// writeErr maps service sentinels onto HTTP statuses. Anything unclassified
// is a 500 with a generic body; internals stay in the logs.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lists.ErrValidation), errors.Is(err, contacts.ErrValidation), errors.Is(err, outcomes.ErrInvalidOutcome):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lists.ErrNotFound), errors.Is(err, contacts.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, contacts.ErrLockHeld), errors.Is(err, recycler.ErrListBusy), errors.Is(err, contacts.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func identity(c *gin.Context) (userID, role string) {
	userID, _ = auth.UserID(c.Request.Context())
	role, _ = auth.Role(c.Request.Context())
	return userID, role
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Lists ---

func (h Handlers) ListLists(c *gin.Context) {
	ls, err := h.Lists.ListActive(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": ls})
}

func (h Handlers) CreateList(c *gin.Context) {
	userID, _ := identity(c)

	var req lists.CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	l, err := h.Lists.CreateList(c.Request.Context(), req, userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h Handlers) GetPolicy(c *gin.Context) {
	p, err := h.Lists.GetPolicy(c.Request.Context(), c.Param("list_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Handlers) SetPolicy(c *gin.Context) {
	listID := c.Param("list_id")
	userID, role := identity(c)

	var p lists.RecyclePolicy
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Lists.SetPolicy(c.Request.Context(), listID, p); err != nil {
		writeErr(c, err)
		return
	}
	if h.Audit != nil {
		meta, _ := json.Marshal(p)
		_ = h.Audit.LogPolicyChange(c.Request.Context(), userID, role, c.ClientIP(), listID, string(meta))
	}
	c.JSON(http.StatusOK, p)
}

// ManualRecycle triggers the administrator bulk reset for one list.
// RBAC: admin or supervisor.
func (h Handlers) ManualRecycle(c *gin.Context) {
	listID := c.Param("list_id")
	userID, role := identity(c)

	n, err := h.Manual.RecycleList(c.Request.Context(), listID, userID, role, c.ClientIP())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list_id": listID, "recycled_count": n})
}

// --- Reporting ---

func (h Handlers) ListContacts(c *gin.Context) {
	views, err := h.Reports.ContactViews(c.Request.Context(), c.Param("list_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": views})
}

func (h Handlers) ListReport(c *gin.Context) {
	rep, err := h.Reports.ListReport(c.Request.Context(), c.Param("list_id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// --- Assignment ---

func (h Handlers) ClaimContact(c *gin.Context) {
	userID, _ := identity(c)

	ct, err := h.Assign.Acquire(c.Request.Context(), c.Param("contact_id"), userID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h Handlers) ReleaseContact(c *gin.Context) {
	userID, _ := identity(c)

	if err := h.Assign.Release(c.Request.Context(), c.Param("contact_id"), userID); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Outcomes ---

type outcomeRequest struct {
	Outcome  string    `json:"outcome"`
	CalledAt time.Time `json:"called_at,omitempty"`
}

func (h Handlers) RecordOutcome(c *gin.Context) {
	userID, _ := identity(c)

	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ct, err := h.Outcomes.RecordOutcome(c.Request.Context(), outcomes.CallResult{
		ContactID: c.Param("contact_id"),
		Outcome:   contacts.Disposition(req.Outcome),
		AgentID:   userID,
		CalledAt:  req.CalledAt,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}
