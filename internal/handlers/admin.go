// internal/handlers/admin.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"partyhub/internal/host"
)

// AdminStateHandler serves the active module's full introspection
// snapshot. Admin only; the snapshot never contains private hands.
func AdminStateHandler(h *host.Host) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := requireAdmin(r.Context(), r); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"activeModule": h.ActiveID(),
			"state":        h.State(),
		})
	}
}

// AdminStatsHandler serves the active module's live-metrics snapshot plus
// gateway connection counts.
func AdminStatsHandler(h *host.Host, connections func() int) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := requireAdmin(r.Context(), r); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"activeModule": h.ActiveID(),
			"connections":  connections(),
			"stats":        h.AdminStats(),
		})
	}
}

type loadModuleRequest struct {
	Module string `json:"module"`
}

// AdminLoadModuleHandler switches the active game module. The previous
// module is unloaded first, dropping all of its rooms.
func AdminLoadModuleHandler(h *host.Host) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := requireAdmin(r.Context(), r); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var req loadModuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if !h.Load(req.Module) {
			http.Error(w, "no such module", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"activeModule": req.Module})
	}
}
