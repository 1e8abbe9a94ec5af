package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Authorizer resolves the family a dashboard request may watch.
type Authorizer func(r *http.Request) (familyID int64, err error)

// HandleWebSocket upgrades authorised requests and runs them as hub clients.
func HandleWebSocket(hub *Hub, authorize Authorizer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID, err := authorize(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("dashboard connected", "family_id", familyID)
		NewClient(hub, conn, familyID).Run(r.Context())
		logger.Debug("dashboard disconnected", "family_id", familyID)
	}
}
