// Package session holds per-user conversation state: pending uploads
// awaiting a conversion choice, the selected metadata preset, and
// persisted conversion settings.
//
// State is in-memory only and lives for the lifetime of the process.
package session

import "github.com/mediamorph/mediamorph/pkg/models"

// Quality tiers selectable from the settings menu.
const (
	QualityHigh   = 90
	QualityMedium = 80
	QualityLow    = 60
)

// AwaitingSetting marks which settings value the next free-text reply
// should be interpreted as. Format tokens such as "PNG" are overloaded
// between "convert now" and "change default format"; this flag is what
// disambiguates them — never the token itself.
type AwaitingSetting int

const (
	AwaitingNone AwaitingSetting = iota
	AwaitingQuality
	AwaitingDefaultFormat
	AwaitingExifToggle
	AwaitingOptimizeToggle
	AwaitingVideoPreset
)

// Settings are the per-user conversion preferences. They are copied by
// value from DefaultSettings on first access; sessions never share a
// settings record.
type Settings struct {
	ImageQuality  int
	DefaultFormat models.Format
	MaintainEXIF  bool
	OptimizeSize  bool

	// VideoMetadata is the default metadata preset name applied to
	// video conversions when the user does not pick one explicitly.
	// Empty means no injection.
	VideoMetadata string
}

// DefaultSettings is the template new sessions start from.
var DefaultSettings = Settings{
	ImageQuality:  QualityHigh,
	DefaultFormat: models.FormatPNG,
	MaintainEXIF:  true,
	OptimizeSize:  true,
}

// PendingDocument is an uploaded document awaiting a target format.
type PendingDocument struct {
	Data   []byte
	Name   string
	Source models.Format
}

// PendingVideo is an uploaded video awaiting a target format.
type PendingVideo struct {
	Data     []byte
	Name     string
	MIMEType string
}

// PendingFile is the on-disk copy of a DOCX upload used by the numeric
// 1/2 sub-flow (PDF vs. PPTX).
type PendingFile struct {
	Path     string
	Name     string
	MIMEType string
}

// Session is one user's conversation state. The three pending artifact
// slots are independent and may all be populated at once; the store
// deliberately does not enforce mutual exclusion between them.
type Session struct {
	PendingImage    []byte
	PendingDocument *PendingDocument
	PendingVideo    *PendingVideo
	PendingFile     *PendingFile

	// SelectedPreset is the metadata preset name chosen for the next
	// conversion, cleared once the conversion runs.
	SelectedPreset string

	Settings Settings
	Awaiting AwaitingSetting
}

// ClearPending drops all pending artifacts. It is idempotent; calling
// it with nothing pending is a no-op.
func (s *Session) ClearPending() {
	s.PendingImage = nil
	s.PendingDocument = nil
	s.PendingVideo = nil
	s.PendingFile = nil
	s.SelectedPreset = ""
}
