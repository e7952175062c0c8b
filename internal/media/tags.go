package media

import "time"

// Tags is the metadata embedded into a staged capture copy before upload.
type Tags struct {
	CapturedAt time.Time
	Device     DeviceInfo

	// Title is nil when no source named the game.
	Title *string
}

// TitleOrEmpty returns the title hint or "".
func (t Tags) TitleOrEmpty() string {
	if t.Title == nil {
		return ""
	}
	return *t.Title
}
