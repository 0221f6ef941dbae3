package api

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"solana-pnl-tracker/internal/observability"
)

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler serves GraphQL over HTTP POST.
type Handler struct {
	schema  graphql.Schema
	metrics *observability.Metrics
}

// NewHandler creates the GraphQL HTTP handler. Metrics may be nil.
func NewHandler(schema graphql.Schema, metrics *observability.Metrics) *Handler {
	return &Handler{schema: schema, metrics: metrics}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        r.Context(),
	})

	if h.metrics != nil {
		status := "ok"
		if len(result.Errors) > 0 {
			status = "error"
		}
		h.metrics.GraphQLRequests.WithLabelValues(status).Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
	}
}
