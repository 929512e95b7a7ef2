package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/engine"
	"github.com/sells-group/geocore/internal/gisio"
	"github.com/sells-group/geocore/internal/layer"
	"github.com/sells-group/geocore/internal/render"
)

var servePort int

// renderCacheSize bounds the memoized composites; entries are invalidated
// by stack revision, so stale frames age out naturally.
const renderCacheSize = 32

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the layer stack and job API over HTTP",
	Long:  "Hosts an in-memory layer stack. Layers load synchronously; geoprocessing and raster analysis run as asynchronous jobs that publish results back into the stack. Composites are memoized per (revision, viewport).",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stack := layer.NewLayerStack()
		mgr := engine.NewManager(stack, cfg.Engine.Workers)

		cache, err := lru.New[renderKey, []byte](renderCacheSize)
		if err != nil {
			return eris.Wrap(err, "serve: render cache")
		}

		api := &apiServer{stack: stack, mgr: mgr, cache: cache}

		r := chi.NewRouter()
		r.Use(chimw.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/metrics", promhttp.Handler().ServeHTTP)

		r.Route("/layers", func(r chi.Router) {
			r.Get("/", api.listLayers)
			r.Post("/vector", api.addVector)
			r.Post("/raster", api.addRaster)
			r.Patch("/{id}", api.patchLayer)
			r.Delete("/{id}", api.removeLayer)
		})
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", api.listJobs)
			r.Post("/{operation}", api.submitJob)
			r.Get("/{id}", api.getJob)
			r.Delete("/{id}", api.cancelJob)
		})
		r.Get("/render", api.renderComposite)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
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

type renderKey struct {
	revision      uint64
	width, height int
}

type apiServer struct {
	stack *layer.LayerStack
	mgr   *engine.Manager
	cache *lru.Cache[renderKey, []byte]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type layerInfo struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	CRS     string    `json:"crs"`
	Visible bool      `json:"visible"`
}

func (a *apiServer) listLayers(w http.ResponseWriter, r *http.Request) {
	entries, revision := a.stack.Snapshot()
	infos := make([]layerInfo, len(entries))
	for i, e := range entries {
		kind := "vector"
		if _, ok := e.Layer.(*layer.RasterLayer); ok {
			kind = "raster"
		}
		infos[i] = layerInfo{
			ID:      e.ID,
			Name:    e.Layer.LayerName(),
			Kind:    kind,
			CRS:     e.Layer.LayerCRS().Code,
			Visible: e.Visible,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"revision": revision, "layers": infos})
}

type addLayerRequest struct {
	Path string `json:"path"`
	CRS  string `json:"crs"`
}

func (a *apiServer) addVector(w http.ResponseWriter, r *http.Request) {
	var req addLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, eris.New("path is required"))
		return
	}
	l, err := gisio.LoadShapefile(req.Path, layerCRS(req.CRS))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	id := a.stack.Add(l)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "features": l.NumFeatures()})
}

func (a *apiServer) addRaster(w http.ResponseWriter, r *http.Request) {
	var req addLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, eris.New("path is required"))
		return
	}
	l, err := gisio.LoadASCIIGrid(req.Path, layerCRS(req.CRS))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	id := a.stack.Add(l)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "width": l.Width, "height": l.Height})
}

func (a *apiServer) patchLayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.New("bad layer id"))
		return
	}
	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Visible == nil {
		writeError(w, http.StatusBadRequest, eris.New("visible is required"))
		return
	}
	if !a.stack.SetVisible(id, *req.Visible) {
		writeError(w, http.StatusNotFound, eris.New("layer not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) removeLayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.New("bad layer id"))
		return
	}
	if !a.stack.Remove(id) {
		writeError(w, http.StatusNotFound, eris.New("layer not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type jobStatus struct {
	ID        uuid.UUID     `json:"id"`
	Operation string        `json:"operation"`
	Status    engine.Status `json:"status"`
	Done      int           `json:"done"`
	Total     int           `json:"total"`
	Error     string        `json:"error,omitempty"`
	Layer     uuid.UUID     `json:"layer,omitempty"`
}

func jobToStatus(j *engine.Job) jobStatus {
	done, total := j.Progress()
	s := jobStatus{
		ID:        j.ID,
		Operation: j.Operation,
		Status:    j.Status(),
		Done:      done,
		Total:     total,
	}
	if err := j.Err(); err != nil {
		s.Error = err.Error()
	}
	if _, entryID := j.Layer(); entryID != uuid.Nil {
		s.Layer = entryID
	}
	return s
}

func (a *apiServer) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs := a.mgr.Jobs()
	out := make([]jobStatus, len(jobs))
	for i, j := range jobs {
		out[i] = jobToStatus(j)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.New("bad job id"))
		return
	}
	j, ok := a.mgr.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, eris.New("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, jobToStatus(j))
}

func (a *apiServer) cancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.New("bad job id"))
		return
	}
	if !a.mgr.Cancel(id) {
		writeError(w, http.StatusNotFound, eris.New("job not found"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (a *apiServer) submitJob(w http.ResponseWriter, r *http.Request) {
	operation := chi.URLParam(r, "operation")
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}

	op, err := a.buildOp(operation, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	j := a.mgr.Submit(operation, op)
	writeJSON(w, http.StatusAccepted, jobToStatus(j))
}

func (a *apiServer) renderComposite(w http.ResponseWriter, r *http.Request) {
	width, height := cfg.Render.Width, cfg.Render.Height
	if v := r.URL.Query().Get("width"); v != "" {
		fmt.Sscanf(v, "%d", &width)
	}
	if v := r.URL.Query().Get("height"); v != "" {
		fmt.Sscanf(v, "%d", &height)
	}
	if width <= 0 || height <= 0 || width > 8192 || height > 8192 {
		writeError(w, http.StatusBadRequest, eris.New("bad dimensions"))
		return
	}

	entries, revision := a.stack.Snapshot()
	key := renderKey{revision: revision, width: width, height: height}
	if png, ok := a.cache.Get(key); ok {
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
		return
	}

	bounds := combinedBounds(entries)
	if bounds == nil {
		writeError(w, http.StatusUnprocessableEntity, eris.New("stack has no extent"))
		return
	}
	vp := render.FitBounds(bounds, width, height, cfg.Render.Margin)
	img, err := render.Composite(entries, vp)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	var buf bytes.Buffer
	if err := gisio.EncodePNG(img, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.cache.Add(key, buf.Bytes())

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
