package controllers

import (
	"net/http"

	"github.com/angelmondragon/artx-bot/api/responses"
	"github.com/angelmondragon/artx-bot/pkg/config"
)

const rootBanner = "Artx bot is running ✅"

const envHeader = "X-Artx-Env"

// Root is the plain-text liveness probe hosting platforms hit on "/".
func Root(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg != nil {
			w.Header().Set(envHeader, cfg.App.Env)
		}
		responses.WriteText(w, http.StatusOK, rootBanner)
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg != nil {
			w.Header().Set(envHeader, cfg.App.Env)
		}
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}
