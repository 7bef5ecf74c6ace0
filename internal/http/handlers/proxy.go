package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/middleware"
	"github.com/Mathiasric/snaptosize-app/internal/workerapi"
)

// Upload relays the raw image body to the worker.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	if !a.requireWorker(w) {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}

	call := a.call(r, workerapi.Call{
		Method:      http.MethodPost,
		Path:        a.Worker.Routes().Upload,
		ContentType: workerapi.DefaultHeader(r.Header.Get("Content-Type"), "application/octet-stream"),
		Body:        bytes.NewReader(data),
		Endpoint:    "/api/upload",
	})
	resp, err := a.Worker.Forward(r.Context(), call)
	if err != nil {
		a.proxyFailed(w, "Upload", call.RequestID, err)
		return
	}
	a.relay(w, resp, call.RequestID, "application/json")
}

// Enqueue validates the output request before relaying it.
func (a *App) Enqueue(w http.ResponseWriter, r *http.Request) {
	if !a.requireWorker(w) {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "Request too large")
		return
	}
	var req workerapi.EnqueueRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		a.errorDetail(w, http.StatusBadRequest, "Invalid request", "body must be a JSON object")
		return
	}
	req, err = a.validateEnqueue(req)
	if err != nil {
		a.errorDetail(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	body, err := json.Marshal(req)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Enqueue failed")
		return
	}

	call := a.call(r, workerapi.Call{
		Method:      http.MethodPost,
		Path:        a.Worker.Routes().Enqueue,
		ContentType: "application/json",
		Body:        bytes.NewReader(body),
		Endpoint:    "/api/enqueue",
	})
	resp, err := a.Worker.Forward(r.Context(), call)
	if err != nil {
		a.proxyFailed(w, "Enqueue", call.RequestID, err)
		return
	}

	mode := domain.ModePacks
	if req.Mode == string(domain.ModeSingle) {
		mode = domain.ModeSingle
	}
	props := map[string]any{
		"mode":    string(mode),
		"group":   req.Group,
		"country": middleware.CountryFromContext(r.Context()),
	}
	distinctID := domain.Session{UserID: call.UserID}.DistinctID()
	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		props["marker"] = domain.QuotaMarkerFor(mode)
		a.Events.Capture(distinctID, "quota_hit", props)
	case resp.StatusCode < 300:
		a.Events.Capture(distinctID, "enqueue_proxied", props)
	}
	a.relay(w, resp, call.RequestID, "application/json")
}

// Status relays a job status query.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.jobID(w, r)
	if !ok {
		return
	}
	call := a.call(r, workerapi.Call{
		Method:   http.MethodGet,
		Path:     a.Worker.Routes().Status(jobID),
		JobID:    jobID,
		Endpoint: "/api/status",
	})
	resp, err := a.Worker.Forward(r.Context(), call)
	if err != nil {
		a.proxyFailed(w, "Status", call.RequestID, err)
		return
	}
	a.relay(w, resp, call.RequestID, "application/json")
}

// Download streams a finished archive.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	jobID, ok := a.jobID(w, r)
	if !ok {
		return
	}
	call := a.call(r, workerapi.Call{
		Method:   http.MethodGet,
		Path:     a.Worker.Routes().Download(jobID),
		JobID:    jobID,
		Endpoint: "/api/download",
	})
	resp, err := a.Worker.Forward(r.Context(), call)
	if err != nil {
		a.proxyFailed(w, "Download", call.RequestID, err)
		return
	}
	w.Header().Set("Content-Disposition", workerapi.DefaultHeader(resp.Header.Get("Content-Disposition"), workerapi.AttachmentDisposition(jobID)))
	a.relay(w, resp, call.RequestID, "application/zip")
}

func (a *App) requireWorker(w http.ResponseWriter) bool {
	if a.Worker == nil {
		a.error(w, http.StatusInternalServerError, "WORKER_BASE_URL not configured")
		return false
	}
	return true
}

func (a *App) jobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !a.requireWorker(w) {
		return "", false
	}
	jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
	if jobID == "" {
		w.Header().Set(middleware.RequestIDHeader, requestID(r))
		a.error(w, http.StatusBadRequest, "Missing job_id")
		return "", false
	}
	return jobID, true
}

// call attaches the caller's identity and request id.
func (a *App) call(r *http.Request, call workerapi.Call) workerapi.Call {
	session, _ := middleware.SessionFromContext(r.Context())
	call.RequestID = requestID(r)
	call.Token = session.Token
	call.UserID = session.UserID
	return call
}

func (a *App) proxyFailed(w http.ResponseWriter, op, requestID string, err error) {
	w.Header().Set(middleware.RequestIDHeader, requestID)
	a.errorDetail(w, http.StatusBadGateway, op+" proxy failed", err.Error())
}

// relay copies the worker's status and body. The worker's request id wins
// over ours when it sends one.
func (a *App) relay(w http.ResponseWriter, resp *http.Response, requestID, fallbackType string) {
	defer resp.Body.Close()
	if rid := resp.Header.Get(middleware.RequestIDHeader); rid != "" {
		requestID = rid
	}
	w.Header().Set("Content-Type", workerapi.DefaultHeader(resp.Header.Get("Content-Type"), fallbackType))
	w.Header().Set(middleware.RequestIDHeader, requestID)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		a.Logger.Warn().Err(err).Str("request_id", requestID).Msg("proxy: relay interrupted")
	}
}

func requestID(r *http.Request) string {
	if rid := middleware.RequestIDFromContext(r.Context()); rid != "" {
		return rid
	}
	if rid := r.Header.Get(middleware.RequestIDHeader); rid != "" {
		return rid
	}
	return uuid.NewString()
}

// validateEnqueue checks struct tags, then that the output exists in the
// catalog.
func (a *App) validateEnqueue(req workerapi.EnqueueRequest) (workerapi.EnqueueRequest, error) {
	if err := a.Validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return req, fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return req, err
	}
	group, err := catalog.ParseGroup(req.Group)
	if err != nil {
		return req, err
	}
	if req.Mode != string(domain.ModeSingle) {
		if group == catalog.GroupSquare {
			return req, fmt.Errorf("group %q is not a pack", req.Group)
		}
		return workerapi.EnqueueRequest{ImageKey: req.ImageKey, Group: string(group)}, nil
	}
	orientation, err := catalog.ParseOrientation(req.Orientation)
	if err != nil {
		return req, err
	}
	effective := catalog.EffectiveGroup(group, orientation)
	size, ok := catalog.FindSize(effective, req.Size)
	if !ok {
		return req, fmt.Errorf("size %q is not in group %q", req.Size, effective)
	}
	return workerapi.EnqueueRequest{
		ImageKey:    req.ImageKey,
		Group:       string(effective),
		Mode:        string(domain.ModeSingle),
		Orientation: string(orientation),
		Size:        size.ID,
	}, nil
}
