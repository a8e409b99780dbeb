package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"fleetmaint-backend/internal/dateutil"
	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/jobs"
	"fleetmaint-backend/internal/logger"
	"fleetmaint-backend/internal/repository"
	"fleetmaint-backend/internal/service"
)

// Handler exposes the maintenance core to the admin/report layers over JSON.
type Handler struct {
	maintenance service.MaintenanceService
	dispatcher  service.Dispatcher
	runner      *jobs.JobRunner
	store       repository.Store
	clock       dateutil.Clock
}

func NewHandler(maintenance service.MaintenanceService, dispatcher service.Dispatcher, runner *jobs.JobRunner, store repository.Store, clock dateutil.Clock) *Handler {
	return &Handler{
		maintenance: maintenance,
		dispatcher:  dispatcher,
		runner:      runner,
		store:       store,
		clock:       clock,
	}
}

// Register wires all routes onto the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/equipment", h.RegisterEquipment).Methods(http.MethodPost)
	r.HandleFunc("/equipment/{id}", h.GetEquipment).Methods(http.MethodGet)
	r.HandleFunc("/equipment/{id}/usage", h.RecordUsage).Methods(http.MethodPost)
	r.HandleFunc("/equipment/{id}/jobs", h.ForceCreateJob).Methods(http.MethodPost)
	r.HandleFunc("/equipment/{id}/jobs", h.ListEquipmentJobs).Methods(http.MethodGet)

	r.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}", h.GetJob).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}/start", h.StartJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}/complete", h.CompleteJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}/uncomplete", h.UncompleteJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}/reschedule", h.RescheduleJob).Methods(http.MethodPost)

	r.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/resend", h.ResendNotification).Methods(http.MethodPost)

	r.HandleFunc("/tick", h.RunTick).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

func (h *Handler) RegisterEquipment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plate        string `json:"plate"`
		Brand        string `json:"brand"`
		Model        string `json:"model"`
		Year         int32  `json:"year"`
		TankCapacity int32  `json:"tank_capacity"`
		CurrentUsage int32  `json:"current_usage"`
		Active       *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	eq := &domain.Equipment{
		Plate:        req.Plate,
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		TankCapacity: req.TankCapacity,
		CurrentUsage: req.CurrentUsage,
		Active:       req.Active == nil || *req.Active,
	}
	firstJob, err := h.maintenance.RegisterEquipment(r.Context(), eq)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"equipment": eq,
		"first_job": firstJob,
	})
}

func (h *Handler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	eq, err := h.maintenance.GetEquipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Usage int32 `json:"usage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	eq, err := h.maintenance.RecordUsage(r.Context(), id, req.Usage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

func (h *Handler) ForceCreateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := h.maintenance.ForceCreateJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *Handler) ListEquipmentJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.maintenance.ListJobsByEquipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if state := q.Get("state"); state != "" {
		list, err := h.maintenance.ListJobsByState(r.Context(), domain.JobState(state))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	if from, to := q.Get("from"), q.Get("to"); from != "" && to != "" {
		fromDate, err1 := time.Parse("2006-01-02", from)
		toDate, err2 := time.Parse("2006-01-02", to)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "from/to must be YYYY-MM-DD")
			return
		}
		list, err := h.maintenance.ListJobsByDueDateRange(r.Context(), fromDate, toDate)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	writeError(w, http.StatusBadRequest, "state or from/to query is required")
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := h.maintenance.GetJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) StartJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := h.maintenance.StartJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Usage     int32  `json:"usage"`
		CostCents *int64 `json:"cost_cents"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.maintenance.CompleteJob(r.Context(), id, req.Usage, req.CostCents, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) UncompleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.maintenance.UncompleteJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RescheduleJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		DueDate string `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}
	job, err := h.maintenance.RescheduleJob(r.Context(), id, dueDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		writeError(w, http.StatusBadRequest, "state query is required")
		return
	}
	list, err := h.store.Notifications().ListByState(r.Context(), domain.NotificationState(state))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ResendNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.dispatcher.Resend(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RunTick(w http.ResponseWriter, r *http.Request) {
	summary := h.runner.DriverTick(r.Context(), h.clock.Now())
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return int32(id), true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var dup *domain.DuplicateActiveJobError
	var regression *domain.UsageRegressionError
	var transition *domain.InvalidTransitionError

	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":              dup.Error(),
			"conflicting_job_id": dup.ConflictingJobID,
		})
	case errors.As(err, &regression):
		writeError(w, http.StatusUnprocessableEntity, regression.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, transition.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Unhandled error in request", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
