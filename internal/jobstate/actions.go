package jobstate

import (
	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
)

// Action is the closed set of state transitions. Only types in this package
// implement it.
type Action interface {
	actionName() string
}

type (
	SetFile struct{ File *SourceFile }

	ToggleGroup struct {
		Group catalog.Group
		Value bool
	}

	SelectAll struct{ Value bool }

	SetMode struct{ Mode domain.ExportMode }

	SetGroup struct{ Group catalog.Group }

	SetOrientation struct{ Orientation catalog.Orientation }

	SetSize struct{ SizeID string }

	SetPhase struct{ Phase domain.Phase }

	SetImageKey struct{ ImageKey string }

	SetJob struct{ Job domain.Job }

	// SetGlobalError records an attempt-level error and moves the phase to error.
	SetGlobalError struct{ Message string }

	AddRecentDownload struct{ Download domain.RecentDownload }

	// Reset clears the attempt but keeps the file, the selection and the
	// recent downloads.
	Reset struct{}
)

func (SetFile) actionName() string           { return "set_file" }
func (ToggleGroup) actionName() string       { return "toggle_group" }
func (SelectAll) actionName() string         { return "select_all" }
func (SetMode) actionName() string           { return "set_mode" }
func (SetGroup) actionName() string          { return "set_group" }
func (SetOrientation) actionName() string    { return "set_orientation" }
func (SetSize) actionName() string           { return "set_size" }
func (SetPhase) actionName() string          { return "set_phase" }
func (SetImageKey) actionName() string       { return "set_image_key" }
func (SetJob) actionName() string            { return "set_job" }
func (SetGlobalError) actionName() string    { return "set_global_error" }
func (AddRecentDownload) actionName() string { return "add_recent_download" }
func (Reset) actionName() string             { return "reset" }

// Name returns the wire name of an action, used in logs.
func Name(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}
