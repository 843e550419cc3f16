package main

import (
	"encoding/json"
	"net/http"
	"time"

	"vaulthook/internal/metrics"
)

func handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"metrics":   metrics.GetAllMetrics(),
		})
	}
}
