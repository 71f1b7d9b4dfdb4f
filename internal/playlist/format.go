package playlist

import (
	"fmt"
	"time"
)

// FormatDuration renders d as MM:SS. Minutes are not wrapped into hours.
func FormatDuration(d time.Duration) string {
	total := int(max(d, 0).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
