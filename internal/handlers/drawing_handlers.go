package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"prizedraw/internal/models"
	"prizedraw/internal/services"
)

// ShowIndex handles the request for the drawing console.
func (h *HTTPHandler) ShowIndex(c *gin.Context) {
	ctx := c.Request.Context()
	snapshot := h.sessions.Snapshot(sessionID(c))

	stats, err := h.service.Stats(ctx)
	if err != nil {
		logger.Errorf("Error loading roster stats: %v", err)
		h.flash(c, models.FlashDanger, "Could not load roster counts.")
	}
	lastClaimed, err := h.service.LastClaimed(ctx)
	if err != nil {
		logger.Errorf("Error loading last winner: %v", err)
	}

	h.renderPage(c, gin.H{
		"title":       "Draw",
		"Stats":       stats,
		"Pending":     snapshot.Pending,
		"LastClaimed": lastClaimed,
	}, "index.html")
}

// PerformDraw draws a member and holds it in the session until resolved.
func (h *HTTPHandler) PerformDraw(c *gin.Context) {
	h.drawInto(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *HTTPHandler) drawInto(c *gin.Context) {
	sid := sessionID(c)
	pending, err := h.service.Draw(c.Request.Context())
	switch {
	case errors.Is(err, services.ErrEmptyPool):
		h.flash(c, models.FlashWarning, "No eligible members left to draw from!")
	case err != nil:
		logger.Errorf("Error drawing member: %v", err)
		h.flash(c, models.FlashDanger, "The draw failed. Please try again.")
	default:
		h.sessions.SetPending(sid, pending)
	}
}

// ResolveDraw records the outcome for the pending draw. A no-show triggers
// an immediate redraw.
func (h *HTTPHandler) ResolveDraw(c *gin.Context) {
	sid := sessionID(c)
	outcome := models.Outcome(c.PostForm("outcome"))
	if !outcome.Valid() {
		h.flash(c, models.FlashDanger, "Invalid action.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	pending, ok := h.sessions.TakePending(sid)
	if !ok {
		h.flash(c, models.FlashWarning, "There is no drawn member waiting for a decision.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if badgeID := c.PostForm("badge_id"); badgeID != "" && badgeID != pending.BadgeID {
		// Stale form from another tab; keep the current draw.
		h.sessions.SetPending(sid, pending)
		h.flash(c, models.FlashWarning, "That draw is no longer current.")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	entry, err := h.service.Resolve(c.Request.Context(), pending.BadgeID, outcome)
	switch {
	case errors.Is(err, services.ErrUnknownMember):
		logger.Errorf("Resolved member %s is no longer on the roster", pending.BadgeID)
		h.flash(c, models.FlashDanger, fmt.Sprintf("%s is no longer on the roster.", pending.FullName()))
	case err != nil:
		logger.Errorf("Error resolving draw for %s: %v", pending.BadgeID, err)
		h.sessions.SetPending(sid, pending)
		h.flash(c, models.FlashDanger, "Could not record the outcome. Please try again.")
	case entry.Outcome == models.OutcomeClaimed:
		h.flash(c, models.FlashSuccess, fmt.Sprintf("%s from %s claimed their prize!", entry.FullName(), entry.Organization))
	default:
		h.flash(c, models.FlashInfo, fmt.Sprintf("%s was not present. A record has been made. Redrawing...", entry.FullName()))
		h.drawInto(c)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ShowWinners lists the drawing history.
func (h *HTTPHandler) ShowWinners(c *gin.Context) {
	entries, err := h.service.AuditLog(c.Request.Context())
	if err != nil {
		logger.Errorf("Error loading audit log: %v", err)
		h.flash(c, models.FlashDanger, "Could not load the drawing history.")
	}
	h.renderPage(c, gin.H{
		"title":   "Winners",
		"Entries": entries,
	}, "winners.html")
}

// ShowRoster lists every member and their drawing state.
func (h *HTTPHandler) ShowRoster(c *gin.Context) {
	members, err := h.service.Roster(c.Request.Context())
	if err != nil {
		logger.Errorf("Error loading roster: %v", err)
		h.flash(c, models.FlashDanger, "Could not load the roster.")
	}
	h.renderPage(c, gin.H{
		"title":   "Roster",
		"Members": members,
	}, "roster.html")
}

// ExportWinnersCSV handles the request to download the drawing history as a CSV file.
func (h *HTTPHandler) ExportWinnersCSV(c *gin.Context) {
	entries, err := h.service.AuditLog(c.Request.Context())
	if err != nil {
		logger.Errorf("Error loading audit log: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment;filename=drawing_history.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"Timestamp", "Badge ID", "First Name", "Last Name", "Organization", "Outcome"}); err != nil {
		logger.Errorf("Error writing CSV header: %v", err)
		return
	}
	for _, e := range entries {
		row := []string{
			e.RecordedAt.UTC().Format("2006-01-02T15:04:05Z"),
			e.BadgeID,
			e.FirstName,
			e.LastName,
			e.Organization,
			string(e.Outcome),
		}
		if err := w.Write(row); err != nil {
			logger.Errorf("Error writing CSV row: %v", err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Errorf("Error flushing CSV writer: %v", err)
	}
}
