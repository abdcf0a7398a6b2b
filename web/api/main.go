package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/devguard-labs/devguard/internal/backend"
	"github.com/devguard-labs/devguard/internal/render"
	"github.com/devguard-labs/devguard/internal/resolver"
	"github.com/devguard-labs/devguard/internal/session"
	"github.com/devguard-labs/devguard/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// scanRequest mirrors the browser scan form. At most one field wins,
// resolved by the same priority rules as the CLI.
type scanRequest struct {
	URL     string  `json:"url"`
	File    *string `json:"file"`
	OpenAPI string  `json:"openapi"`
	Demo    bool    `json:"demo"`
}

type applyRequest struct {
	IDs []string `json:"ids"`
}

const backendTimeout = 90 * time.Second

// demoSpecimen is served to the browser for the Quick Demo flow so the user
// can inspect and edit it before scanning.
var demoSpecimen = map[string]interface{}{
	"endpoints": []map[string]interface{}{
		{"path": "/users", "auth": "none", "returns": []string{"email", "name"}},
		{"path": "/search", "auth": "none", "cors": "*"},
		{"path": "/bundle.js", "leaks": []string{"X-API-Key"}},
	},
}

func newRouter(st *store.Store, ctrl *session.Controller) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))
	r.Use(middleware.Logger)

	// Run a scan
	r.Post("/api/scan", func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		inputs := resolver.Inputs{URL: req.URL, OpenAPI: req.OpenAPI}
		if req.File != nil {
			inputs.File = []byte(*req.File)
		}
		if err := ctrl.RunScan(r.Context(), inputs); err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Scan failed: %v", err))
			return
		}
		writeView(w, ctrl)
	})

	// Current results view, optionally filtered by severity
	r.Get("/api/results", func(w http.ResponseWriter, r *http.Request) {
		if sev := r.URL.Query().Get("severity"); sev != "" {
			if err := ctrl.SetFilter(sev); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		writeView(w, ctrl)
	})

	// Apply fixes and re-score
	r.Post("/api/apply", func(w http.ResponseWriter, r *http.Request) {
		var req applyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if len(req.IDs) == 0 {
			writeError(w, http.StatusBadRequest, "Missing finding ids")
			return
		}
		if err := ctrl.ApplyFix(r.Context(), req.IDs...); err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Apply failed: %v", err))
			return
		}
		writeView(w, ctrl)
	})

	// PDF report artifact
	r.Get("/api/report.pdf", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := ctrl.ExportReport(r.Context(), &buf); err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Could not fetch PDF: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="devguard-report.pdf"`)
		w.Write(buf.Bytes())
	})

	// Scan another app
	r.Post("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Reset(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to reset session")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Edit the backend base URL mid-session
	r.Post("/api/backend-url", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		st.SetBackendURL(req.URL)
		ctrl.SetBackend(backend.New(st.BackendURL(), backendTimeout))
		w.WriteHeader(http.StatusNoContent)
	})

	// Demo specimen for the Quick Demo flow
	r.Get("/api/demo-specimen", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(demoSpecimen)
	})

	return r
}

func writeView(w http.ResponseWriter, ctrl *session.Controller) {
	result, findings, filter, err := ctrl.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to load results"})
		return
	}
	json.NewEncoder(w).Encode(render.Build(result, findings, filter))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func main() {
	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8000"
	}

	st, err := store.New()
	if err != nil {
		log.Fatalf("FATAL: Failed to open session store: %v", err)
	}
	defer st.Close()
	st.SetBackendURL(backendURL)

	ctrl := session.New(st, backend.New(st.BackendURL(), backendTimeout))

	log.Printf("INFO: Scanning backend is %s", st.BackendURL())
	log.Println("INFO: Server is running and listening on port 3000")
	http.ListenAndServe(":3000", newRouter(st, ctrl))
}
