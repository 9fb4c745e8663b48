package meshserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/config"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
)

// MeshingPath is the meshing route.
const MeshingPath = "/meshing"

const msgContentType = "Content-Type not supported!"

// meshRequest is the wire body. Limits is decoded as a number so that a
// client sending 10.0 is accepted.
type meshRequest struct {
	VisualizationFunction *string  `json:"visualizationFunction"`
	Limits                *float64 `json:"limits"`
	Algorithm             *string  `json:"algorithm"`
}

type meshResponse struct {
	Mesh string `json:"mesh"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (req meshRequest) generation() (params.Generation, error) {
	if req.VisualizationFunction == nil || req.Limits == nil || req.Algorithm == nil {
		return params.Generation{}, errors.New("visualizationFunction, limits and algorithm are required")
	}
	alg, err := params.ParseAlgorithm(*req.Algorithm)
	if err != nil {
		return params.Generation{}, err
	}
	l := *req.Limits
	if l != math.Trunc(l) || l < math.MinInt32 || l > math.MaxInt32 {
		return params.Generation{}, fmt.Errorf("limits must be an integer, got %g", l)
	}
	return params.Generation{
		Formula:   *req.VisualizationFunction,
		Limits:    int(l),
		Algorithm: alg,
	}, nil
}

// NewHandler returns the service router. ctx bounds background work such as
// rate limiter eviction.
func NewHandler(ctx context.Context, s *Server, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestID(),
		Recovery(s.logger),
		Instrument(s.metrics, s.logger),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Accept", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         86400,
		}),
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(RateLimiter(ctx, cfg.RateLimit, cfg.RateBurst))
		}
		r.Post(MeshingPath, s.handleMeshing(cfg.MaxBodyBytes))
	})
	return r
}

func (s *Server) handleMeshing(maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))

		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, msgContentType)
			return
		}

		if maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		var req meshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid request body")
			log.Warn("meshing: invalid request body", zap.Error(err))
			return
		}
		p, err := req.generation()
		if err != nil {
			s.metrics.rejections.WithLabelValues(ReasonParameters).Inc()
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s: %v", ReasonParameters, err))
			return
		}

		doc, err := s.Mesh(r.Context(), p)
		if err != nil {
			var rej *RejectError
			if errors.As(err, &rej) {
				log.Info("meshing rejected", zap.String("formula", p.Formula), zap.Error(err))
				writeError(w, http.StatusUnprocessableEntity, rej.Error())
				return
			}
			log.Error("meshing failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, meshResponse{Mesh: doc.Text()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
