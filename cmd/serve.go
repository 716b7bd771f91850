package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gip-inclusion/directory-cli/internal/matcher"
	"github.com/gip-inclusion/directory-cli/internal/model"
	"github.com/gip-inclusion/directory-cli/internal/notify"
	"github.com/gip-inclusion/directory-cli/internal/search"
	"github.com/gip-inclusion/directory-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the directory HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine := search.New(st, search.Options{
			DefaultLimit: cfg.Search.DefaultLimit,
			MaxLimit:     cfg.Search.MaxLimit,
		})
		match := matcher.New(st)
		dispatcher := notify.NewDispatcher(st, logSender{}, cfg.Notify.RatePerSecond, cfg.Notify.Burst)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/providers/search", func(w http.ResponseWriter, r *http.Request) {
			q, err := queryFromParams(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			result, err := engine.Search(r.Context(), q)
			if err != nil {
				if eris.Is(err, search.ErrInvalidQuery) {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				zap.L().Error("search failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, eris.New("search failed"))
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/api/requests", func(w http.ResponseWriter, r *http.Request) {
			var req model.Request
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
				return
			}
			if req.Title == "" || len(req.RequiredSectors) == 0 {
				writeError(w, http.StatusBadRequest, eris.New("title and required_sectors are required"))
				return
			}
			if _, err := req.TargetMode(); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err := notify.Publish(r.Context(), st, &req); err != nil {
				zap.L().Error("publish failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, eris.New("publish failed"))
				return
			}
			writeJSON(w, http.StatusCreated, &req)
		})

		r.Post("/api/requests/{id}/dispatch", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			n, err := dispatcher.Dispatch(r.Context(), id)
			if err != nil {
				if eris.Is(err, store.ErrRequestNotFound) {
					writeError(w, http.StatusNotFound, err)
					return
				}
				zap.L().Error("dispatch failed", zap.String("request", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, eris.New("dispatch failed"))
				return
			}
			writeJSON(w, http.StatusOK, map[string]int{"notified": n})
		})

		r.Get("/api/requests/{id}/providers", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			req, err := st.GetRequest(r.Context(), id)
			if err != nil {
				if eris.Is(err, store.ErrRequestNotFound) {
					writeError(w, http.StatusNotFound, err)
					return
				}
				writeError(w, http.StatusInternalServerError, eris.New("load request failed"))
				return
			}
			ids, err := match.MatchingProviders(r.Context(), req)
			if err != nil {
				zap.L().Error("match failed", zap.String("request", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, eris.New("match failed"))
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"provider_ids": ids, "total": len(ids)})
		})

		r.Post("/api/requests/{id}/providers/{providerID}/interest", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			providerID := chi.URLParam(r, "providerID")
			if err := st.MarkInterested(r.Context(), id, providerID, time.Now()); err != nil {
				zap.L().Error("mark interested failed",
					zap.String("request", id), zap.String("provider", providerID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, eris.New("mark interested failed"))
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// logSender is the default notification transport: it only logs. Real
// delivery (email fan-out) lives outside this service.
type logSender struct{}

func (logSender) Send(_ context.Context, r *model.Request, providerID string) error {
	zap.L().Info("notify provider",
		zap.String("request", r.ID),
		zap.String("provider", providerID),
	)
	return nil
}

// queryFromParams maps URL query parameters onto a SearchQuery.
func queryFromParams(r *http.Request) (*model.SearchQuery, error) {
	params := r.URL.Query()
	q := &model.SearchQuery{
		Text:                params.Get("q"),
		SectorIDs:           splitParam(params.Get("sectors")),
		ZoneIDs:             splitParam(params.Get("zones")),
		Territories:         splitParam(params.Get("territories")),
		NetworkIDs:          splitParam(params.Get("networks")),
		LegalForms:          splitParam(params.Get("legal_forms")),
		ClientReferenceName: params.Get("client_reference_name"),
		RequestID:           params.Get("request_id"),
		InterestStatus:      model.InterestStatus(params.Get("interest_status")),
		SavedListID:         params.Get("saved_list_id"),
	}

	for _, k := range splitParam(params.Get("kinds")) {
		q.Kinds = append(q.Kinds, model.ProviderKind(k))
	}
	for _, t := range splitParam(params.Get("service_types")) {
		q.ServiceTypes = append(q.ServiceTypes, model.ServiceType(t))
	}

	var err error
	if v := params.Get("radius_km"); v != "" {
		if q.RadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, eris.Errorf("invalid radius_km %q", v)
		}
	}
	if v := params.Get("revenue"); v != "" {
		if q.Revenue, err = model.ParseRevenueBracket(v); err != nil {
			return nil, err
		}
	}
	if q.HasClientReferences, err = boolParam(params.Get("has_client_references")); err != nil {
		return nil, err
	}
	if q.HasGroups, err = boolParam(params.Get("has_groups")); err != nil {
		return nil, err
	}
	if v := params.Get("offset"); v != "" {
		if q.Offset, err = strconv.Atoi(v); err != nil {
			return nil, eris.Errorf("invalid offset %q", v)
		}
	}
	if v := params.Get("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			return nil, eris.Errorf("invalid limit %q", v)
		}
	}
	return q, nil
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolParam(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, eris.Errorf("invalid boolean %q", s)
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
