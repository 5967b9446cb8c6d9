package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelenv/internal/store"
	"modelenv/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *store.Store satisfies this interface.
type Service interface {
	List() ([]types.InstalledModel, error)
	Get(name string) (types.InstalledModel, error)
	Aliases() ([]types.Alias, error)
	Resolve(alias string) (string, error)
}

// NewMux builds the inventory API router.
//
// Routes:
//
//	GET /healthz          liveness probe
//	GET /models           installed model packages
//	GET /models/{name}    one installed model
//	GET /aliases          registered aliases
//	GET /aliases/{name}   resolve one alias
//	GET /metrics          Prometheus metrics
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger)

	// ListModels godoc
	// @Summary List installed model packages
	// @Produce json
	// @Success 200 {object} types.ModelsResponse
	// @Router /models [get]
	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.List()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if models == nil {
			models = []types.InstalledModel{}
		}
		writeJSON(w, types.ModelsResponse{Models: models})
	})

	// GetModel godoc
	// @Summary Get one installed model package
	// @Produce json
	// @Param name path string true "package name"
	// @Success 200 {object} types.InstalledModel
	// @Failure 404 {object} types.ErrorResponse
	// @Router /models/{name} [get]
	r.Get("/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Get(chi.URLParam(r, "name"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, m)
	})

	// ListAliases godoc
	// @Summary List registered aliases
	// @Produce json
	// @Success 200 {object} types.AliasesResponse
	// @Router /aliases [get]
	r.Get("/aliases", func(w http.ResponseWriter, r *http.Request) {
		aliases, err := svc.Aliases()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if aliases == nil {
			aliases = []types.Alias{}
		}
		writeJSON(w, types.AliasesResponse{Aliases: aliases})
	})

	// ResolveAlias godoc
	// @Summary Resolve an alias to its package
	// @Produce json
	// @Param name path string true "alias"
	// @Success 200 {object} types.Alias
	// @Failure 404 {object} types.ErrorResponse
	// @Router /aliases/{name} [get]
	r.Get("/aliases/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		pkg, err := svc.Resolve(name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, types.Alias{Name: name, Package: pkg})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// writeServiceError maps store sentinels to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotInstalled), errors.Is(err, store.ErrAliasNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
