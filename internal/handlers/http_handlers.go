package handlers

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"prizedraw/internal/access"
	"prizedraw/internal/models"
	"prizedraw/internal/services"
)

const (
	sessionCookieName = "drawing_session"
	sessionIDKey      = "sessionID"
)

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service   *services.DrawingService
	sessions  *services.SessionManager
	gate      *access.Gate
	templates *template.Template
	// secureCookies marks the session cookie Secure; set when served over TLS.
	secureCookies bool
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.DrawingService, sessions *services.SessionManager, gate *access.Gate, templates *template.Template) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		sessions:  sessions,
		gate:      gate,
		templates: templates,
	}
}

// SetSecureCookies controls the Secure flag on the session cookie.
func (h *HTTPHandler) SetSecureCookies(secure bool) {
	h.secureCookies = secure
}

// Register wires every route onto router. Assets may be nil.
func (h *HTTPHandler) Register(router *gin.Engine, assets fs.FS) {
	if assets != nil {
		router.StaticFS("/assets", http.FS(assets))
	}

	console := router.Group("/")
	console.Use(h.SessionMiddleware())
	h.RegisterPublicRoutes(console)

	protected := console.Group("/")
	protected.Use(h.RequirePIN())
	h.RegisterProtectedRoutes(protected)
}

// RegisterPublicRoutes registers routes reachable without the PIN.
func (h *HTTPHandler) RegisterPublicRoutes(router gin.IRoutes) {
	router.GET("/login", h.ShowLogin)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)
}

// RegisterProtectedRoutes registers the PIN-gated console routes.
func (h *HTTPHandler) RegisterProtectedRoutes(router gin.IRoutes) {
	router.GET("/", h.ShowIndex)
	router.POST("/draw", h.PerformDraw)
	router.POST("/resolve", h.ResolveDraw)
	router.GET("/winners", h.ShowWinners)
	router.GET("/winners/export", h.ExportWinnersCSV)
	router.GET("/roster", h.ShowRoster)
	router.GET("/import", h.ShowImport)
	router.POST("/import", h.ImportMembers)
	router.GET("/admin/reset", h.ShowReset)
	router.POST("/admin/reset", h.ResetDrawings)
}

// SessionMiddleware attaches the operator session to the request, issuing a
// new signed cookie when the presented one is missing or invalid.
func (h *HTTPHandler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := ""
		if cookie, err := c.Cookie(sessionCookieName); err == nil {
			if parsed, err := h.gate.ParseToken(cookie); err == nil {
				sid = parsed
			}
		}
		if sid == "" {
			sid = services.NewSessionID()
		}
		h.setSessionCookie(c, sid)
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

func (h *HTTPHandler) setSessionCookie(c *gin.Context, sid string) {
	token, err := h.gate.IssueToken(sid)
	if err != nil {
		logger.Errorf("Error issuing session token: %v", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(h.gate.SessionTTL().Seconds()), "/", "", h.secureCookies, true)
}

// RequirePIN redirects to the login page until the session has entered the PIN.
func (h *HTTPHandler) RequirePIN() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := sessionID(c)
		if h.sessions.IsVerified(sid) {
			c.Next()
			return
		}
		h.flash(c, models.FlashWarning, "Please enter the PIN to access this page.")
		target := "/login"
		if next := c.Request.URL.RequestURI(); next != "/" && c.Request.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(next)
		}
		c.Redirect(http.StatusSeeOther, target)
		c.Abort()
	}
}

func (h *HTTPHandler) flash(c *gin.Context, level models.FlashLevel, message string) {
	h.sessions.AddFlash(sessionID(c), level, message)
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// safeNext only allows same-site relative redirects.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}

// renderPage is a helper to perform a two-step template rendering.
// It first executes the content template into a buffer, then executes the main
// layout template, passing the rendered content as a variable.
func (h *HTTPHandler) renderPage(c *gin.Context, pageData gin.H, contentTmpl string) {
	// Step 1: Render the specific page content into a buffer.
	buf := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(buf, contentTmpl, pageData); err != nil {
		logger.Errorf("Error executing content template %s: %v", contentTmpl, err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}

	// Step 2: Add the rendered content and session state, then render the layout.
	sid := sessionID(c)
	pageData["PageContent"] = template.HTML(buf.String())
	pageData["Flashes"] = h.sessions.PopFlashes(sid)
	pageData["Authenticated"] = h.sessions.IsVerified(sid)

	page := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(page, "layout.html", pageData); err != nil {
		logger.Errorf("Error executing layout template: %v", err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

// ShowLogin renders the PIN form.
func (h *HTTPHandler) ShowLogin(c *gin.Context) {
	if h.sessions.IsVerified(sessionID(c)) {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}
	h.renderPage(c, gin.H{
		"title":     "Log in",
		"Next":      c.Query("next"),
		"PINLength": h.gate.PINLength(),
	}, "login.html")
}

// Login checks the submitted PIN.
func (h *HTTPHandler) Login(c *gin.Context) {
	sid := sessionID(c)
	next := c.Query("next")
	if !h.gate.CheckPIN(c.PostForm("pin")) {
		logger.Warningf("Invalid PIN attempt from %s", c.ClientIP())
		h.flash(c, models.FlashDanger, "Invalid PIN.")
		target := "/login"
		if next != "" {
			target += "?next=" + url.QueryEscape(next)
		}
		c.Redirect(http.StatusSeeOther, target)
		return
	}
	h.sessions.MarkVerified(sid)
	h.flash(c, models.FlashSuccess, "PIN accepted!")
	c.Redirect(http.StatusSeeOther, safeNext(next))
}

// Logout drops the session, including any pending draw.
func (h *HTTPHandler) Logout(c *gin.Context) {
	sid := sessionID(c)
	h.sessions.ClearSession(sid)
	h.flash(c, models.FlashInfo, "You have been logged out.")
	c.Redirect(http.StatusSeeOther, "/login")
}
