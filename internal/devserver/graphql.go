package devserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/protocol"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []graphqlError `json:"errors,omitempty"`
}

// handleGraphQL answers the song(id) query of the music gateway. Other
// queries get a GraphQL error.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := graphqlResponse{Data: map[string]any{}}
	id, _ := req.Variables["id"].(string)
	switch {
	case !strings.Contains(req.Query, "song("):
		resp.Errors = []graphqlError{{Message: "unsupported query"}}
	case id == "":
		resp.Errors = []graphqlError{{Message: "variable \"$id\" of required type \"ID!\" was not provided"}}
	default:
		if t, ok := s.catalog.Get(id); ok {
			resp.Data["song"] = toPayload(t)
		} else {
			resp.Data["song"] = (*protocol.SongPayload)(nil)
		}
	}
	s.logger.Debug("graphql", zap.String("id", id), zap.Int("errors", len(resp.Errors)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
