// Package servererror renders the screen shown in place of the content area
// when the session query fails for a reason the user cannot fix.
package servererror

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/olivoil/codeflow/tui/internal/ui"
)

// Title is the heading of the error screen.
const Title = "Internal Server Error"

// Message returns the apology text naming the support contact.
func Message(supportEmail string) string {
	return fmt.Sprintf("We apologize but there is a problem in resolving your request to the server. "+
		"Please bear with us as we resolve this on our side. "+
		"Contact %s if you continue to have any issues. Thank you!", supportEmail)
}

// View renders the error screen centered in a w x h area.
func View(supportEmail string, w, h int) string {
	body := lipgloss.NewStyle().Width(min(60, max(w-4, 20))).Render(Message(supportEmail))
	content := ui.StyleError.Bold(true).Render(Title) + "\n\n" + body + "\n\n" +
		ui.StyleDim.Render("ctrl+l retry")
	if w <= 0 || h <= 0 {
		return content
	}
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, content)
}
