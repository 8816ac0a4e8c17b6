package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"prizedraw/internal/models"
	"prizedraw/internal/services"
)

// maxReportedMalformed caps how many skipped rows are listed after an import.
const maxReportedMalformed = 5

// ShowImport renders the roster upload form.
func (h *HTTPHandler) ShowImport(c *gin.Context) {
	h.renderPage(c, gin.H{
		"title":        "Import",
		"MemberColumn": services.ColumnIsMember,
		"MemberToken":  services.MemberToken,
	}, "import.html")
}

// ImportMembers handles the roster CSV upload.
func (h *HTTPHandler) ImportMembers(c *gin.Context) {
	fileHeader, err := c.FormFile("csvfile")
	if err != nil {
		h.flash(c, models.FlashWarning, "No file selected.")
		c.Redirect(http.StatusSeeOther, "/import")
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		h.flash(c, models.FlashDanger, "Invalid file type. Please upload a CSV file.")
		c.Redirect(http.StatusSeeOther, "/import")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		logger.Errorf("Error opening upload %s: %v", fileHeader.Filename, err)
		h.flash(c, models.FlashDanger, "Could not read the uploaded file.")
		c.Redirect(http.StatusSeeOther, "/import")
		return
	}
	defer file.Close()

	summary, err := h.service.ImportMembers(c.Request.Context(), file)
	if err != nil {
		logger.Errorf("Error importing %s: %v", fileHeader.Filename, err)
		h.flash(c, models.FlashDanger, fmt.Sprintf("Error importing CSV: %v", err))
		c.Redirect(http.StatusSeeOther, "/import")
		return
	}

	h.flash(c, models.FlashSuccess, fmt.Sprintf(
		"Added %d members. Skipped %d already on the roster, %d non-members and %d incomplete rows.",
		summary.Added, summary.SkippedExisting, summary.SkippedNonMember, len(summary.Malformed)))
	for i, row := range summary.Malformed {
		if i == maxReportedMalformed {
			h.flash(c, models.FlashWarning, fmt.Sprintf("...and %d more incomplete rows.", len(summary.Malformed)-i))
			break
		}
		h.flash(c, models.FlashWarning, fmt.Sprintf("Line %d skipped: %s.", row.Line, row.Reason))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ShowReset renders the reset confirmation form.
func (h *HTTPHandler) ShowReset(c *gin.Context) {
	h.renderPage(c, gin.H{
		"title":            "Reset",
		"ConfirmationText": services.ResetConfirmation,
	}, "reset.html")
}

// ResetDrawings clears the drawing history after the operator confirms.
func (h *HTTPHandler) ResetDrawings(c *gin.Context) {
	result, err := h.service.Reset(c.Request.Context(), c.PostForm("confirmation_text"))
	switch {
	case errors.Is(err, services.ErrConfirmationMismatch):
		h.flash(c, models.FlashDanger, "Confirmation text did not match. Reset was not performed.")
	case err != nil:
		logger.Errorf("Error resetting drawings: %v", err)
		h.flash(c, models.FlashDanger, "Error resetting drawings.")
	default:
		h.sessions.TakePending(sessionID(c))
		h.flash(c, models.FlashSuccess, fmt.Sprintf(
			"Successfully reset all drawings. %d log entries deleted. %d members made eligible.",
			result.AuditEntriesDeleted, result.MembersReset))
	}
	c.Redirect(http.StatusSeeOther, "/admin/reset")
}
