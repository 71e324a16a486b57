package ui

import "github.com/vanderheijden86/storytour/pkg/tour"

// DefaultSteps is the storybook home page tour used when no steps file is
// configured. Every target exists in the page layout.
func DefaultSteps() []tour.Step {
	return []tour.Step{
		{
			ID:          "welcome",
			Target:      "#welcome",
			Title:       "Welcome to VAAHAKAINN",
			Description: "Let us take you on a quick tour of the **most beautiful** stories and tales.",
			Position:    tour.PositionBottom,
		},
		{
			ID:          "navigation",
			Target:      ".main-nav",
			Title:       "Navigation",
			Description: "Use the top menu to move between pages. *Home* and *Stories* are always one click away.",
			Position:    tour.PositionBottom,
		},
		{
			ID:          "stories",
			Target:      ".stories-grid",
			Title:       "Featured Stories",
			Description: "A hand-picked collection of our finest stories. Open any of them to read more.",
			Position:    tour.PositionTop,
		},
		{
			ID:          "story-card",
			Target:      ".story-card:first-child",
			Title:       "Story Cards",
			Description: "Each card shows the story's description and details. Choose **Explore story** to start reading.",
			Position:    tour.PositionRight,
		},
		{
			ID:          "reading-progress",
			Target:      "#reading-progress",
			Title:       "Reading Progress",
			Description: "This bar fills up as you read, so you always know how far along you are.",
			Position:    tour.PositionBottom,
		},
		{
			ID:          "night-toggle",
			Target:      "#night-toggle",
			Title:       "Night Mode",
			Description: "Reading late? Switch to night mode for a darker page.",
			Position:    tour.PositionLeft,
		},
		{
			ID:          "social",
			Target:      "footer",
			Title:       "Follow Us",
			Description: "Follow us on social media for the latest updates and new stories!",
			Position:    tour.PositionTop,
		},
	}
}
