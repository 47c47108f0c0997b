// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"partyhub/internal/uno"
)

// RoomDirectory is the read-only view of live rooms the HTTP layer
// exposes. The uno registry satisfies it.
type RoomDirectory interface {
	Summaries() []uno.RoomSummary
	Get(id uuid.UUID) *uno.Room
}

// ListRoomsHandler serves the lobby directory as JSON.
func ListRoomsHandler(dir RoomDirectory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rooms": dir.Summaries(),
		})
	}
}

// GetRoomHandler serves one room's public projection.
func GetRoomHandler(dir RoomDirectory) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := uuid.Parse(ps.ByName("id"))
		if err != nil {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}
		room := dir.Get(roomID)
		if room == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(room.Snapshot())
	}
}

// RoomQRHandler serves a PNG QR code pointing at the room's join URL, for
// sharing a room with players in the same physical space.
func RoomQRHandler(dir RoomDirectory, publicURL string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID, err := uuid.Parse(ps.ByName("id"))
		if err != nil {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}
		if dir.Get(roomID) == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		base := publicURL
		if base == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
				scheme = proto
			}
			base = scheme + "://" + r.Host
		}
		joinURL := strings.TrimSuffix(base, "/") + "/rooms/" + roomID.String()

		const qrSize = 320
		png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}
