package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"vaulthook/internal/constants"
	"vaulthook/internal/database"
	"vaulthook/internal/middleware"
	"vaulthook/internal/models"
	"vaulthook/internal/service"
)

func newServer(cfg *models.Config, admission *service.AdmissionService, db *database.Database, logger *logrus.Logger) *http.Server {
	router := mux.NewRouter()
	router.Use(middleware.Observability(logger))

	router.HandleFunc("/webhook/twilio", handleWebhook(cfg, admission, logger)).Methods(http.MethodPost)
	router.HandleFunc("/health", handleHealth(db)).Methods(http.MethodGet)
	router.HandleFunc("/metrics", handleMetrics()).Methods(http.MethodGet)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}
}

func handleWebhook(cfg *models.Config, admission *service.AdmissionService, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			// The provider signed a form body we cannot decode. There is no
			// payload to preserve, so this routes through the failure path
			// with nothing but the error itself.
			result := admission.HandleInbound(r.Context(), signedRequestURL(cfg, r), r.Header.Get(constants.SignatureHeader), nil)
			writeJSON(w, result.Status, result.Body, logger)
			return
		}

		form := make(map[string]string, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				form[key] = values[0]
			}
		}

		result := admission.HandleInbound(r.Context(), signedRequestURL(cfg, r), r.Header.Get(constants.SignatureHeader), form)
		writeJSON(w, result.Status, result.Body, logger)
	}
}

// signedRequestURL reconstructs the URL the provider used when computing the
// request signature. Behind a proxy the server-visible URL differs from the
// public one, so a configured public URL always wins.
func signedRequestURL(cfg *models.Config, r *http.Request) string {
	if cfg.Twilio.PublicURL != "" {
		return strings.TrimSuffix(cfg.Twilio.PublicURL, "/") + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func handleHealth(db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}, logger *logrus.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Failed to write response")
	}
}
