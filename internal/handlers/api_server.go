// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"partyhub/internal/host"
	"partyhub/internal/middleware"
	"partyhub/internal/ws"
)

// APIServer bundles the dependencies the HTTP surface needs.
type APIServer struct {
	Logger    *logrus.Logger
	Host      *host.Host
	Gateway   *ws.Gateway
	Directory RoomDirectory
	PublicURL string
}

// Router assembles the full route table. The WebSocket endpoint skips the
// logging middleware because its response recorder breaks hijacking.
func (s *APIServer) Router() http.Handler {
	router := httprouter.New()

	router.POST("/user/create", CreateUserHandler)
	router.POST("/user/login", LoginHandler)
	router.POST("/user/claim", ClaimHandler)
	router.GET("/user/me", MeHandler)

	router.GET("/rooms", ListRoomsHandler(s.Directory))
	router.GET("/rooms/:id", GetRoomHandler(s.Directory))
	router.GET("/rooms/:id/qr", RoomQRHandler(s.Directory, s.PublicURL))

	router.GET("/admin/state", AdminStateHandler(s.Host))
	router.GET("/admin/stats", AdminStatsHandler(s.Host, s.Gateway.ConnectionCount))
	router.POST("/admin/module", AdminLoadModuleHandler(s.Host))

	router.GET("/healthz", HealthHandler(s.Host, s.Gateway.ConnectionCount))

	logged := middleware.LogMiddleware(s.Logger)(router)

	// httprouter treats the WS path like any other, but hijacking must
	// bypass the status-recording middleware.
	mux := http.NewServeMux()
	mux.Handle("/game/ws", s.Gateway.Handler(EnsureIdentity))
	mux.Handle("/", logged)
	return mux
}

// HealthHandler reports liveness plus a couple of cheap gauges.
func HealthHandler(h *host.Host, connections func() int) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "ok",
			"activeModule": h.ActiveID(),
			"connections":  connections(),
		})
	}
}
