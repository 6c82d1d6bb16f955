package render

import "strings"

var popupText = strings.NewReplacer("<br />", "\n", "<br/>", "\n", "<br>", "\n", "<b>", "", "</b>", "")

// PlainPopup strips the markup of a popup for text-only widgets.
func PlainPopup(s string) string {
	return popupText.Replace(s)
}
