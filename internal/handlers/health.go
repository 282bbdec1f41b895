package handlers

import (
	"database/sql"
	"net/http"
)

// Health always answers ok; it only proves the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Ready pings the database so load balancers stop routing when the store is down.
func Ready(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		JSON(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}
