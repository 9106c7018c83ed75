package lockin

import (
	"fmt"
	"strings"
)

const progressBarWidth = 20

// FormatProgress renders a one-line textual progress bar for the operator
// console, e.g. "[#####...............]  25% (25/100)".
func FormatProgress(completed, total int) string {
	if total <= 0 {
		return "[" + strings.Repeat(".", progressBarWidth) + "]   0% (0/0)"
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}

	filled := completed * progressBarWidth / total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled)
	return fmt.Sprintf("[%s] %3d%% (%d/%d)", bar, completed*100/total, completed, total)
}
