package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/impactlens/impact-backend/internal/apperr"
	"github.com/impactlens/impact-backend/internal/profiles"
	"github.com/impactlens/impact-backend/internal/provider"
	"github.com/impactlens/impact-backend/internal/session"
)

// ProfileEnsurer is the slice of the profiles repo the handlers need.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, u profiles.UpsertProfile) (*profiles.Profile, error)
}

// Handler owns the auth operations: each one is a single-shot
// request/response function that validates input, calls the provider and
// translates failures. Nothing here retries.
type Handler struct {
	mgr      *session.Manager
	auth     *provider.Client
	profiles ProfileEnsurer
	cookie   session.CookieConfig
	siteURL  string
}

func NewHandler(mgr *session.Manager, auth *provider.Client, profileRepo ProfileEnsurer, cookie session.CookieConfig, siteURL string) *Handler {
	return &Handler{
		mgr:      mgr,
		auth:     auth,
		profiles: profileRepo,
		cookie:   cookie,
		siteURL:  strings.TrimRight(siteURL, "/"),
	}
}

func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api/auth")
	api.POST("/signup", h.signUp)
	api.POST("/login", h.signIn)
	api.POST("/reset-password", h.resetPassword)
	api.POST("/update-password", h.updatePassword)
	api.POST("/mfa/verify", h.verifyMFA)
	api.GET("/signout", h.signOut)
	api.POST("/signout", h.signOut)
	api.GET("/events", h.events)

	r.GET("/auth/callback", h.callback)
	r.GET("/api/auth-debug", h.debug)
}

// respondErr maps the error taxonomy onto responses: validation and
// provider errors go back to the form with their message, anything else is
// logged and surfaced as a generic message.
func respondErr(c *gin.Context, err error) {
	if apperr.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if msg := apperr.ProviderMessage(err); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
		return
	}
	log.Printf("[auth] unexpected: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "something went wrong, please try again"})
}

type signUpReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := validateEmail(req.Email); err != nil {
		respondErr(c, err)
		return
	}
	if err := validateSignUpPassword(req.Password); err != nil {
		respondErr(c, err)
		return
	}

	if _, err := h.auth.SignUp(c.Request.Context(), strings.TrimSpace(req.Email), req.Password, strings.TrimSpace(req.FullName)); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "check your email to confirm your account"})
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := validateEmail(req.Email); err != nil {
		respondErr(c, err)
		return
	}
	if req.Password == "" {
		respondErr(c, apperr.Validation("password", "password is required"))
		return
	}

	res, err := h.auth.PasswordGrant(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}

	sess, err := h.mgr.Issue(c.Request.Context(), res.Tokens)
	if err != nil {
		respondErr(c, err)
		return
	}
	h.cookie.Set(c, sess.ID)

	if res.MFARequired {
		// The session holds the partial token pair; /mfa/verify upgrades it.
		c.JSON(http.StatusOK, gin.H{
			"ok":           true,
			"mfa_required": true,
			"factor_id":    res.FactorID,
			"challenge_id": res.ChallengeID,
		})
		return
	}

	h.ensureProfile(c, sess)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

type mfaVerifyReq struct {
	FactorID    string `json:"factor_id"`
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

func (h *Handler) verifyMFA(c *gin.Context) {
	sess := Current(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req mfaVerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.FactorID) == "" {
		respondErr(c, apperr.Validation("factor_id", "factor id is required"))
		return
	}
	if strings.TrimSpace(req.ChallengeID) == "" {
		respondErr(c, apperr.Validation("challenge_id", "challenge id is required"))
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		respondErr(c, apperr.Validation("code", "verification code is required"))
		return
	}

	pair, err := h.auth.MFAVerify(c.Request.Context(), sess.AccessToken, req.FactorID, req.ChallengeID, req.Code)
	if err != nil {
		respondErr(c, err)
		return
	}

	sess, err = h.mgr.Update(c.Request.Context(), sess, pair)
	if err != nil {
		respondErr(c, err)
		return
	}

	h.ensureProfile(c, sess)
	c.JSON(http.StatusOK, gin.H{"ok": true, "redirect": "/dashboard"})
}

type resetReq struct {
	Email string `json:"email"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := validateEmail(req.Email); err != nil {
		respondErr(c, err)
		return
	}

	redirectTo := h.siteURL + "/auth/callback?next=/reset-password"
	if err := h.auth.Recover(c.Request.Context(), strings.TrimSpace(req.Email), redirectTo); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "check your email for a reset link"})
}

type updatePasswordReq struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (h *Handler) updatePassword(c *gin.Context) {
	sess := Current(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req updatePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := validateNewPassword(req.Password, req.Confirm); err != nil {
		respondErr(c, err)
		return
	}

	if err := h.auth.UpdatePassword(c.Request.Context(), sess.AccessToken, req.Password); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "password updated"})
}

// signOut always ends anonymous: the provider call may fail (logged only),
// the local session and cookie are destroyed regardless.
func (h *Handler) signOut(c *gin.Context) {
	if sess := Current(c); sess != nil {
		if err := h.auth.SignOut(c.Request.Context(), sess.AccessToken); err != nil {
			log.Printf("[auth] provider sign-out: %v", err)
		}
		if err := h.mgr.Destroy(c.Request.Context(), sess.ID); err != nil {
			log.Printf("[auth] destroy session: %v", err)
		}
	}

	h.cookie.Clear(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

// callback exchanges a provider auth code for a session, then redirects to
// next when it is a relative path.
func (h *Handler) callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusSeeOther, "/login?error=missing_code")
		return
	}

	pair, err := h.auth.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		log.Printf("[auth] code exchange: %v", err)
		c.Redirect(http.StatusSeeOther, "/login?error=auth_callback_failed")
		return
	}

	sess, err := h.mgr.Issue(c.Request.Context(), pair)
	if err != nil {
		log.Printf("[auth] issue session: %v", err)
		c.Redirect(http.StatusSeeOther, "/login?error=auth_callback_failed")
		return
	}
	h.cookie.Set(c, sess.ID)
	h.ensureProfile(c, sess)

	c.Redirect(http.StatusSeeOther, safeNext(c.Query("next"), "/reset-password"))
}

// debug reports cookie/session/user state for support diagnostics.
func (h *Handler) debug(c *gin.Context) {
	report := gin.H{
		"cookie_present": h.cookie.Read(c) != "",
		"authenticated":  false,
	}

	if sess := Current(c); sess != nil {
		report["authenticated"] = true
		report["session_id"] = sess.ID
		report["user_id"] = sess.UserID
		report["email"] = sess.Email
		report["expires_at"] = sess.ExpiresAt
	}

	c.JSON(http.StatusOK, report)
}

// ensureProfile upserts the profile row the provider-side trigger used to
// create. Failure is non-fatal: the admin guard will flag a missing profile.
func (h *Handler) ensureProfile(c *gin.Context, sess *session.Session) {
	_, err := h.profiles.Ensure(c.Request.Context(), profiles.UpsertProfile{
		UserID: sess.UserID,
		Email:  sess.Email,
	})
	if err != nil {
		log.Printf("[auth] ensure profile for %s: %v", sess.UserID, err)
	}
}
