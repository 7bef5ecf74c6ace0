package workerapi

import (
	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
)

// DefaultProcessingError is used when an errored job carries no message.
const DefaultProcessingError = "Processing failed"

// StatusPayload is the worker's status document. Its shape is not uniform
// across worker versions, so it stays untyped until classified.
type StatusPayload map[string]any

// Classification is the client-side reading of a status payload.
type Classification struct {
	Status      domain.JobStatus
	Error       string
	DownloadURL string
}

// Classify maps a payload onto queued, running, done or error.
//
// Completion is accepted as state=done, status=done or done=true, and failure
// as state=error or status=error. The worker has never settled on one shape.
// TODO: collapse to one field once the worker contract names a canonical status key.
func Classify(p StatusPayload) Classification {
	switch {
	case p.str("state") == "done" || p.str("status") == "done" || p["done"] == true:
		return Classification{Status: domain.JobStatusDone, DownloadURL: p.str("download_url")}
	case p.str("state") == "error" || p.str("status") == "error":
		msg := p.str("error")
		if msg == "" {
			msg = DefaultProcessingError
		}
		return Classification{Status: domain.JobStatusError, Error: msg}
	case p.str("status") == "queued" || p.str("state") == "queued":
		return Classification{Status: domain.JobStatusQueued}
	}
	return Classification{Status: domain.JobStatusRunning}
}

func (p StatusPayload) str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// EnqueueRequest is the body of an enqueue call.
type EnqueueRequest struct {
	ImageKey    string `json:"image_key" validate:"required"`
	Group       string `json:"group" validate:"required"`
	Mode        string `json:"mode,omitempty" validate:"omitempty,oneof=single"`
	Orientation string `json:"orientation,omitempty" validate:"required_if=Mode single"`
	Size        string `json:"size,omitempty" validate:"required_if=Mode single"`
}

// NewEnqueueRequest builds the body for one output.
func NewEnqueueRequest(imageKey string, out domain.OutputSpec) EnqueueRequest {
	req := EnqueueRequest{ImageKey: imageKey, Group: string(out.Group)}
	if out.Mode == domain.ModeSingle {
		req.Group = string(catalog.EffectiveGroup(out.Group, out.Orientation))
		req.Mode = string(domain.ModeSingle)
		req.Orientation = string(out.Orientation)
		req.Size = out.SizeID
	}
	return req
}
