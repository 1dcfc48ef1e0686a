// Package handlers implements the HTTP API for the enrichment service.
// Responses use a uniform envelope: {"success": bool, "data": ..., "error":
// {"code", "message", "details"}}.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "product-enricher/internal/common/errors"
	"product-enricher/internal/common/logging"
	"product-enricher/internal/enricher"
	"product-enricher/internal/fields"
	"product-enricher/internal/models"
)

// Handlers carries the dependencies of the HTTP API
type Handlers struct {
	enricher    *enricher.Enricher
	registry    *fields.Registry
	profiles    map[string]fields.Profile
	maxProducts int
	logger      logging.Logger
}

// New creates the API handlers. profiles may be nil when no profile file is
// configured.
func New(e *enricher.Enricher, registry *fields.Registry, profiles map[string]fields.Profile, maxProducts int, logger logging.Logger) *Handlers {
	return &Handlers{
		enricher:    e,
		registry:    registry,
		profiles:    profiles,
		maxProducts: maxProducts,
		logger:      logger,
	}
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

func (h *Handlers) sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		h.logger.Error("failed to encode response", err)
	}
}

func (h *Handlers) sendJSONError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Code: "INTERNAL_ERROR", Message: "internal server error"}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Details = appErr.Context
		status = statusFor(appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{Success: false, Error: &body}); encErr != nil {
		h.logger.Error("failed to encode error response", encErr)
	}
}

// statusFor maps the error taxonomy to HTTP status codes. Provider failures
// are upstream faults, so they map to 502; an enrichment error takes the
// status of its cause when the cause is itself typed.
func statusFor(appErr *apperrors.AppError) int {
	switch appErr.Type {
	case apperrors.ErrTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrTypeRateLimit:
		return http.StatusTooManyRequests
	case apperrors.ErrTypeProviderAPI, apperrors.ErrTypeTimeout:
		return http.StatusBadGateway
	case apperrors.ErrTypeEnrichment:
		var cause *apperrors.AppError
		if errors.As(appErr.Cause, &cause) && cause.Type != apperrors.ErrTypeEnrichment {
			return statusFor(cause)
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// resolveOptions merges the optional profile and explicit options into the
// final normalized option set, validating requested fields against the
// registry.
func (h *Handlers) resolveOptions(opts *models.EnrichmentOptionsPatch, profileName string) (models.EnrichmentOptions, error) {
	resolved := models.DefaultEnrichmentOptions()

	if profileName != "" {
		profile, ok := h.profiles[profileName]
		if !ok {
			return resolved, apperrors.ValidationError("unknown profile: " + profileName)
		}
		resolved.Fields = profile.Fields
		if profile.MaxFeatures > 0 {
			resolved.MaxFeatures = profile.MaxFeatures
		}
		if profile.MaxKeywords > 0 {
			resolved.MaxKeywords = profile.MaxKeywords
		}
	}

	resolved = opts.Apply(resolved)

	normalized, err := h.registry.Normalize(resolved.Fields)
	if err != nil {
		return resolved, apperrors.ValidationError(err.Error())
	}
	resolved.Fields = normalized

	if err := resolved.Validate(); err != nil {
		return resolved, apperrors.ValidationError(err.Error())
	}
	return resolved, nil
}

// useCache reads the use_cache query parameter, defaulting to true
func useCache(r *http.Request) bool {
	return r.URL.Query().Get("use_cache") != "false"
}

// EnrichProduct handles POST /api/v1/products/enrich
func (h *Handlers) EnrichProduct(w http.ResponseWriter, r *http.Request) {
	var req models.EnrichmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendJSONError(w, apperrors.ValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := req.Product.Validate(); err != nil {
		h.sendJSONError(w, apperrors.ValidationError(err.Error()))
		return
	}

	options, err := h.resolveOptions(req.EnrichmentOptions, req.Profile)
	if err != nil {
		h.sendJSONError(w, err)
		return
	}

	result, err := h.enricher.EnrichProduct(r.Context(), req.Product, options, useCache(r))
	if err != nil {
		h.sendJSONError(w, err)
		return
	}

	h.sendJSONResponse(w, http.StatusOK, result)
}

// EnrichBatch handles POST /api/v1/products/enrich/batch
func (h *Handlers) EnrichBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchEnrichmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendJSONError(w, apperrors.ValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := req.Validate(h.maxProducts); err != nil {
		h.sendJSONError(w, apperrors.ValidationError(err.Error()))
		return
	}

	options, err := h.resolveOptions(req.EnrichmentOptions, req.Profile)
	if err != nil {
		h.sendJSONError(w, err)
		return
	}
	batchOpts := req.BatchOptions.Apply(models.DefaultBatchOptions())
	if err := batchOpts.Validate(); err != nil {
		h.sendJSONError(w, apperrors.ValidationError(err.Error()))
		return
	}

	result, err := h.enricher.EnrichBatch(r.Context(), req.Products, options, batchOpts, useCache(r))
	if err != nil {
		h.sendJSONError(w, err)
		return
	}

	h.sendJSONResponse(w, http.StatusOK, result)
}

// CacheStats handles GET /api/v1/cache/stats
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.sendJSONResponse(w, http.StatusOK, h.enricher.CacheStats(r.Context()))
}

// CacheClear handles POST /api/v1/cache/clear
func (h *Handlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	cleared := h.enricher.ClearCache(r.Context())
	h.sendJSONResponse(w, http.StatusOK, map[string]int{"entries_removed": cleared})
}

// fieldInfo describes one enrichment field on the fields listing endpoint
type fieldInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"`
}

// ListFields handles GET /api/v1/fields
func (h *Handlers) ListFields(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	infos := make([]fieldInfo, 0, len(names))
	for _, name := range names {
		def, _ := h.registry.Lookup(name)
		infos = append(infos, fieldInfo{
			Name:        def.Name,
			DisplayName: def.DisplayName,
			Kind:        string(def.Kind),
		})
	}

	profiles := make([]fields.Profile, 0, len(h.profiles))
	for _, p := range h.profiles {
		profiles = append(profiles, p)
	}

	h.sendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"fields":   infos,
		"profiles": profiles,
	})
}

// Health handles GET /health. Always 200; the payload carries per-provider
// connection states.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSONResponse(w, http.StatusOK, h.enricher.Health(r.Context()))
}

// Ping handles GET /ping
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	h.sendJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
