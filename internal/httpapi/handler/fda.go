package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/tools"
)

// FDAHandler serves direct drug lookups.
type FDAHandler struct {
	client *tools.FDAClient
	logger *zap.Logger
}

// NewFDAHandler creates a new FDAHandler. A nil client disables the endpoint.
func NewFDAHandler(client *tools.FDAClient, logger *zap.Logger) *FDAHandler {
	return &FDAHandler{client: client, logger: orNop(logger)}
}

// Lookup handles GET /api/fda
//
// @Summary      FDA drug lookup
// @Description  Look up drug information in the openFDA database. Results are cached for 24 hours.
// @Tags         tools
// @Produce      json
// @Param        drug_name    query     string  true   "Drug name in English"
// @Param        search_type  query     string  false  "general, label or adverse_events"  Enums(general, label, adverse_events)
// @Success      200          {object}  tools.DrugLookup
// @Failure      400          {string}  string  "Drug name is required"
// @Failure      502          {string}  string  "openFDA request failed"
// @Failure      503          {string}  string  "Lookup disabled"
// @Router       /api/fda [get]
func (h *FDAHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		http.Error(w, "fda lookup is disabled", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	res, err := h.client.Lookup(r.Context(), q.Get("drug_name"), q.Get("search_type"))
	if err != nil {
		if errors.Is(err, tools.ErrDrugNameRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Warn("fda lookup", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "fda request failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, res)
}
