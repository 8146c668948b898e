package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fractalscope/fractalscope/pkg/cache"
	"github.com/fractalscope/fractalscope/pkg/colormap"
	"github.com/fractalscope/fractalscope/pkg/engine"
	fserrors "github.com/fractalscope/fractalscope/pkg/errors"
	"github.com/fractalscope/fractalscope/pkg/fractal"
	"github.com/fractalscope/fractalscope/pkg/observability"
	"github.com/fractalscope/fractalscope/pkg/plane"
	"github.com/fractalscope/fractalscope/pkg/preset"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	addr     string
	size     string
	redis    string
	mongoURI string
	noCache  bool
}

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve fractal frames over HTTP",
		Long: `Serve runs an HTTP API around a shared interactive engine.

Navigation endpoints (pan, zoom, params) mutate the engine and trigger
re-renders; GET /api/frame returns the latest published frame as PNG
with an ETag per generation, and GET /api/live streams frames over a
websocket as they are published.

Without --redis the one-shot render cache is file-based; without
--mongo presets are stored in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.size, "size", defaultSize, "initial render resolution as WIDTHxHEIGHT")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for the shared frame cache (host:port)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB connection URI for the preset store")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the one-shot render cache")

	return cmd
}

// runServe wires the engine, stores, and router, then serves until ctx ends.
func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	width, height, err := parseSize(opts.size)
	if err != nil {
		return err
	}

	eng, err := engine.New(plane.Default(width, height), fractal.DefaultParams(), colormap.Default(),
		engine.WithLogger(c.Logger))
	if err != nil {
		return err
	}
	defer eng.Close()

	frameCache, err := c.newServeCache(ctx, opts)
	if err != nil {
		return err
	}
	defer frameCache.Close()

	presets, cleanup, err := c.newPresetStore(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	c.setRenderHooks()
	defer observability.Reset()

	srv := &server{
		eng:    eng,
		frames: frameCache,
		keyer:  cache.NewScopedKeyer(cache.NewDefaultKeyer(), "serve:"),
		store:  presets,
		cli:    c,
	}

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	// First frame before the first client asks for one.
	eng.Request()

	c.Logger.Info("serving", "addr", opts.addr, "size", opts.size)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newServeCache picks the frame cache backend from flags.
func (c *CLI) newServeCache(ctx context.Context, opts serveOptions) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redis != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redis})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("frame cache", "backend", "redis", "addr", opts.redis)
		return rc, nil
	}
	return newCache(false)
}

// newPresetStore picks the preset store backend from flags.
func (c *CLI) newPresetStore(ctx context.Context, opts serveOptions) (preset.Store, func(), error) {
	if opts.mongoURI == "" {
		return preset.NewMemoryStore(), func() {}, nil
	}
	ms, err := preset.NewMongoStore(ctx, preset.MongoConfig{URI: opts.mongoURI})
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	c.Logger.Info("preset store", "backend", "mongodb")
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ms.Close(closeCtx)
	}
	return ms, cleanup, nil
}

// setRenderHooks routes engine and cache events into the server log.
func (c *CLI) setRenderHooks() {
	observability.SetRenderHooks(logRenderHooks{logger: c.Logger})
	observability.SetCacheHooks(logCacheHooks{logger: c.Logger})
}

// logRenderHooks logs render generation events.
type logRenderHooks struct {
	observability.NoopRenderHooks
	logger *log.Logger
}

func (h logRenderHooks) OnGenerationStart(ctx context.Context, gen uint64, width, height int) {
	h.logger.Debug("generation start", "generation", gen, "size", fmt.Sprintf("%dx%d", width, height))
}

func (h logRenderHooks) OnGenerationPublish(ctx context.Context, gen uint64, d time.Duration) {
	h.logger.Info("generation published", "generation", gen, "duration", d.Round(time.Millisecond))
}

func (h logRenderHooks) OnGenerationDiscard(ctx context.Context, gen, latest uint64) {
	h.logger.Debug("generation discarded", "generation", gen, "latest", latest)
}

// logCacheHooks logs frame cache events.
type logCacheHooks struct {
	logger *log.Logger
}

func (h logCacheHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.logger.Debug("cache hit", "key", keyType)
}

func (h logCacheHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.logger.Debug("cache miss", "key", keyType)
}

func (h logCacheHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "key", keyType, "bytes", size)
}

// =============================================================================
// Server
// =============================================================================

// server holds the HTTP API state: one shared engine, the frame cache for
// stateless renders, and the preset store.
type server struct {
	eng    *engine.Engine
	frames cache.Cache
	keyer  cache.Keyer
	store  preset.Store
	cli    *CLI

	// mu guards the ETag, regenerated whenever a new generation publishes.
	mu       sync.Mutex
	etag     string
	etagGen  uint64
	lastPNG  []byte
	lastPNGG uint64
}

// routes builds the chi router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/frame", s.handleFrame)
		r.Get("/live", s.handleLive)
		r.Get("/render", s.handleRender)

		r.Post("/pan", s.handlePan)
		r.Post("/zoom", s.handleZoom)
		r.Post("/resize", s.handleResize)
		r.Post("/params", s.handleParams)
		r.Post("/scheme", s.handleScheme)
		r.Post("/randomize", s.handleRandomize)

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", s.handlePresetList)
			r.Post("/", s.handlePresetSave)
			r.Get("/{name}", s.handlePresetGet)
			r.Delete("/{name}", s.handlePresetDelete)
			r.Post("/{name}/apply", s.handlePresetApply)
		})
	})

	return r
}

// requestLogger attaches a request-scoped logger with a request id.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		l := s.cli.Logger.With("req", reqID[:8], "method", r.Method, "path", r.URL.Path)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(withLogger(r.Context(), l)))
		l.Debug("request done", "duration", time.Since(start).Round(time.Microsecond))
	})
}

// =============================================================================
// State & navigation handlers
// =============================================================================

// stateResponse is the JSON shape of the engine's current inputs.
type stateResponse struct {
	Generation uint64  `json:"generation"`
	CenterRe   float64 `json:"center_re"`
	CenterIm   float64 `json:"center_im"`
	Scale      float64 `json:"scale"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`

	Variant      string  `json:"variant"`
	Power        float64 `json:"power"`
	ShapeRe      float64 `json:"shape_re"`
	ShapeIm      float64 `json:"shape_im"`
	MaxIter      int     `json:"max_iter"`
	EscapeRadius float64 `json:"escape_radius"`

	Scheme string `json:"scheme"`
}

func (s *server) currentState() stateResponse {
	vp := s.eng.Viewport()
	params := s.eng.Params()
	return stateResponse{
		Generation:   s.eng.Generation(),
		CenterRe:     real(vp.Center),
		CenterIm:     imag(vp.Center),
		Scale:        vp.Scale,
		Width:        vp.Width,
		Height:       vp.Height,
		Variant:      params.Variant.String(),
		Power:        params.Power,
		ShapeRe:      real(params.Shape),
		ShapeIm:      imag(params.Shape),
		MaxIter:      params.MaxIter,
		EscapeRadius: params.EscapeRadius,
		Scheme:       s.eng.Scheme().Name,
	}
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *server) handleFrame(w http.ResponseWriter, r *http.Request) {
	fb := s.eng.PollFramebuffer()
	if fb == nil {
		writeError(w, engine.ErrNoFrame)
		return
	}

	etag := s.frameETag(fb.Generation)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := s.encodeFrame(fb)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Generation", strconv.FormatUint(fb.Generation, 10))
	_, _ = w.Write(data)
}

// frameETag returns a stable opaque tag per published generation.
func (s *server) frameETag(gen uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.etagGen != gen || s.etag == "" {
		s.etag = `"` + uuid.NewString() + `"`
		s.etagGen = gen
	}
	return s.etag
}

// encodeFrame PNG-encodes a framebuffer, memoizing the latest generation so
// polling clients don't re-encode the same frame.
func (s *server) encodeFrame(fb *engine.Framebuffer) ([]byte, error) {
	s.mu.Lock()
	if s.lastPNGG == fb.Generation && s.lastPNG != nil {
		data := s.lastPNG
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, fb.ToRGBA()); err != nil {
		return nil, fserrors.Wrap(fserrors.ErrCodeInternal, err, "failed to encode frame")
	}

	s.mu.Lock()
	s.lastPNG = buf.Bytes()
	s.lastPNGG = fb.Generation
	s.mu.Unlock()
	return buf.Bytes(), nil
}

func (s *server) handlePan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.eng.Pan(req.DX, req.DY)
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Factor float64 `json:"factor"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.eng.Zoom(req.Factor, req.X, req.Y); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.eng.Resize(req.Width, req.Height); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *server) handleParams(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variant      string  `json:"variant"`
		Power        float64 `json:"power"`
		ShapeRe      float64 `json:"shape_re"`
		ShapeIm      float64 `json:"shape_im"`
		MaxIter      int     `json:"max_iter"`
		EscapeRadius float64 `json:"escape_radius"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	variant, err := fractal.ParseVariant(req.Variant)
	if err != nil {
		writeError(w, err)
		return
	}
	params := fractal.Params{
		Variant:      variant,
		Power:        req.Power,
		Shape:        complex(req.ShapeRe, req.ShapeIm),
		MaxIter:      req.MaxIter,
		EscapeRadius: req.EscapeRadius,
	}
	if err := s.eng.SetParams(params); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *server) handleScheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	scheme, err := colormap.Lookup(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.eng.SetColorScheme(scheme); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *server) handleRandomize(w http.ResponseWriter, r *http.Request) {
	s.eng.RandomizeParams()
	writeJSON(w, http.StatusOK, s.currentState())
}

// =============================================================================
// Live streaming
// =============================================================================

// handleLive streams PNG frames over a websocket as generations publish.
func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	logger := loggerFromContext(ctx)
	logger.Info("live stream opened")

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case <-ticker.C:
			fb := s.eng.PollFramebuffer()
			if fb == nil || fb.Generation == sent {
				continue
			}
			data, err := s.encodeFrame(fb)
			if err != nil {
				logger.Error("live encode failed", "err", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageBinary, data); err != nil {
				logger.Info("live stream closed", "err", err)
				return
			}
			sent = fb.Generation
		}
	}
}

// =============================================================================
// Stateless render
// =============================================================================

// handleRender renders a preset without touching the shared engine,
// answering from the frame cache when possible.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("preset")
	if name == "" {
		name = "home"
	}

	width, height := 1280, 960
	if v := q.Get("width"); v != "" {
		width, _ = strconv.Atoi(v)
	}
	if v := q.Get("height"); v != "" {
		height, _ = strconv.Atoi(v)
	}

	p, err := s.lookupPreset(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	vp, err := p.Viewport(width, height)
	if err != nil {
		writeError(w, err)
		return
	}
	params, err := p.Params()
	if err != nil {
		writeError(w, err)
		return
	}
	scheme, err := p.ColorScheme()
	if err != nil {
		writeError(w, err)
		return
	}

	key := frameKey(s.keyer, vp, params, scheme)

	// Cache lookups retry transient backend failures; a persistent failure
	// just falls through to a fresh render.
	var data []byte
	var hit bool
	lookupErr := cache.RetryWithBackoff(r.Context(), func() error {
		var err error
		data, hit, err = s.frames.Get(r.Context(), key)
		return err
	})
	if lookupErr == nil && hit {
		observability.Cache().OnCacheHit(r.Context(), key)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
		return
	}
	observability.Cache().OnCacheMiss(r.Context(), key)

	fb, err := engine.Render(r.Context(), vp, params, scheme)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, fb.ToRGBA()); err != nil {
		writeError(w, fserrors.Wrap(fserrors.ErrCodeInternal, err, "failed to encode frame"))
		return
	}
	storeErr := cache.RetryWithBackoff(r.Context(), func() error {
		return s.frames.Set(r.Context(), key, buf.Bytes(), cache.TTLFrame)
	})
	if storeErr == nil {
		observability.Cache().OnCacheSet(r.Context(), key, buf.Len())
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// lookupPreset checks the store first, then the built-ins.
func (s *server) lookupPreset(ctx context.Context, name string) (*preset.Preset, error) {
	p, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fserrors.Wrap(fserrors.ErrCodeInternal, err, "preset store unavailable")
	}
	if p == nil {
		p = preset.Builtin(name)
	}
	if p == nil {
		return nil, fserrors.New(fserrors.ErrCodePresetNotFound, "unknown preset %q", name)
	}
	return p, nil
}

// =============================================================================
// Preset handlers
// =============================================================================

func (s *server) handlePresetList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, fserrors.Wrap(fserrors.ErrCodeInternal, err, "preset store unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handlePresetGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPreset(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePresetSave captures the engine's current state under a new name.
func (s *server) handlePresetSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p := preset.FromState(req.Name, s.eng.Viewport(), s.eng.Params(), s.eng.Scheme())
	p.Description = req.Description
	if err := s.store.Set(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handlePresetDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, fserrors.Wrap(fserrors.ErrCodeInternal, err, "preset store unavailable"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePresetApply points the shared engine at a stored view.
func (s *server) handlePresetApply(w http.ResponseWriter, r *http.Request) {
	p, err := s.lookupPreset(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}

	cur := s.eng.Viewport()
	vp, err := p.Viewport(cur.Width, cur.Height)
	if err != nil {
		writeError(w, err)
		return
	}
	params, err := p.Params()
	if err != nil {
		writeError(w, err)
		return
	}
	scheme, err := p.ColorScheme()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.eng.SetParams(params); err != nil {
		writeError(w, err)
		return
	}
	if err := s.eng.SetColorScheme(scheme); err != nil {
		writeError(w, err)
		return
	}
	if err := s.eng.SetViewport(vp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

// =============================================================================
// JSON helpers
// =============================================================================

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fserrors.Wrap(fserrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fserrors.GetCode(err) {
	case fserrors.ErrCodeInvalidInput, fserrors.ErrCodeInvalidParams,
		fserrors.ErrCodeInvalidScheme, fserrors.ErrCodeInvalidPreset,
		fserrors.ErrCodeDegenerateViewport:
		status = http.StatusBadRequest
	case fserrors.ErrCodePrecisionLimit:
		status = http.StatusUnprocessableEntity
	case fserrors.ErrCodeNotFound, fserrors.ErrCodePresetNotFound:
		status = http.StatusNotFound
	}

	writeJSON(w, status, map[string]string{
		"code":  string(fserrors.GetCode(err)),
		"error": fserrors.UserMessage(err),
	})
}
