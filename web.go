package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/saveugene/pulsedash/internal/config"
	"github.com/saveugene/pulsedash/internal/dashboard"
	"github.com/saveugene/pulsedash/internal/export"
	"github.com/saveugene/pulsedash/internal/metrics"
	"github.com/saveugene/pulsedash/internal/render"
	"github.com/saveugene/pulsedash/internal/render/svg"
)

const webPoll = 500 * time.Millisecond

// webControls records which session buttons the page should enable.
type webControls struct {
	Start  bool `json:"start"`
	Stop   bool `json:"stop"`
	Export bool `json:"export"`
}

func (c *webControls) SetEnabled(start, stop, export bool) {
	c.Start, c.Stop, c.Export = start, stop, export
}

// webHost serves the dashboard. Everything touching the controller or the
// surface runs on the loop goroutine via Do.
type webHost struct {
	loop     *dashboard.Loop
	surface  *dashboard.Snapshot
	controls *webControls
	filename string
	logger   *zap.Logger
	// session is the lifetime of streams started from HTTP requests.
	session context.Context
}

type hintJSON struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type sampleJSON struct {
	Seq   int     `json:"seq"`
	Value float64 `json:"value"`
}

type stateJSON struct {
	Active    bool              `json:"active"`
	Session   string            `json:"session"`
	Timer     string            `json:"timer"`
	Stats     map[string]string `json:"stats"`
	Alert     string            `json:"alert,omitempty"`
	Empty     bool              `json:"empty"`
	Hint      *hintJSON         `json:"hint,omitempty"`
	Selection *render.Range     `json:"selection,omitempty"`
	Controls  webControls       `json:"controls"`
	Window    []sampleJSON      `json:"window"`
	Records   int               `json:"records"`
}

func (h *webHost) state(c *dashboard.Controller) stateJSON {
	st := c.State()
	out := stateJSON{
		Active:  st.Phase == dashboard.Active,
		Session: st.Session,
		Timer:   dashboard.FormatTimer(st.Timer),
		Stats: map[string]string{
			"current": st.Stats.Current.String(),
			"avg":     st.Stats.Average.String(),
			"min":     st.Stats.Min.String(),
			"max":     st.Stats.Max.String(),
		},
		Empty:     h.surface.Empty,
		Selection: c.Display().Selection(),
		Controls:  *h.controls,
		Window:    make([]sampleJSON, 0, len(st.Window)),
		Records:   st.Records,
	}
	if st.Alert.Active {
		out.Alert = st.Alert.Message
	}
	if h.surface.HintOn {
		hint := h.surface.Hint
		out.Hint = &hintJSON{Source: hint.Source, Text: hint.Text, X: hint.X, Y: hint.Y}
	}
	for _, s := range st.Window {
		out.Window = append(out.Window, sampleJSON{Seq: s.Seq, Value: s.Value})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func formFloat(r *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(r.FormValue(name), 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", name, err)
	}
	return v, nil
}

func formFloats(r *http.Request, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		v, err := formFloat(r, n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// do runs fn on the loop and replies with the resulting state.
func (h *webHost) do(w http.ResponseWriter, r *http.Request, fn func(c *dashboard.Controller) error) {
	var (
		st    stateJSON
		fnErr error
	)
	err := h.loop.Do(r.Context(), func(c *dashboard.Controller) {
		fnErr = fn(c)
		st = h.state(c)
	})
	switch {
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(fnErr, dashboard.ErrSessionActive):
		writeError(w, http.StatusConflict, fnErr)
	case fnErr != nil:
		writeError(w, http.StatusBadRequest, fnErr)
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("%s requires POST", r.URL.Path))
			return
		}
		next(w, r)
	}
}

func (h *webHost) serveSVG(region dashboard.Region) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		var encErr error
		err := h.loop.Do(r.Context(), func(*dashboard.Controller) {
			f, ok := h.surface.Frames[region]
			if !ok {
				encErr = fmt.Errorf("region %s not drawn yet", region)
				return
			}
			encErr = svg.Encode(&buf, f)
		})
		if err == nil {
			err = encErr
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}

func (h *webHost) serveExport(w http.ResponseWriter, r *http.Request) {
	var (
		records []dashboard.Record
		recErr  error
	)
	if err := h.loop.Do(r.Context(), func(c *dashboard.Controller) {
		records, recErr = c.Records()
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	switch {
	case errors.Is(recErr, dashboard.ErrSessionActive):
		writeError(w, http.StatusConflict, recErr)
		return
	case recErr != nil:
		writeError(w, http.StatusInternalServerError, recErr)
		return
	case len(records) == 0:
		writeError(w, http.StatusNotFound, dashboard.ErrNoData)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.filename))
	w.Write(buf.Bytes())
	h.logger.Info("session downloaded", zap.Int("rows", len(records)))
}

func (h *webHost) routes(gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p != "/" && p != "/index.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		fmt.Fprint(w, dashboardHTML(webPoll, h.filename))
	})

	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		h.do(w, r, func(*dashboard.Controller) error { return nil })
	})
	mux.HandleFunc("/chart.svg", h.serveSVG(dashboard.RegionChart))
	mux.HandleFunc("/bars.svg", h.serveSVG(dashboard.RegionBars))
	mux.HandleFunc("/api/export.csv", h.serveExport)

	mux.HandleFunc("/api/start", postOnly(func(w http.ResponseWriter, r *http.Request) {
		h.do(w, r, func(c *dashboard.Controller) error { return c.Start(h.session) })
	}))
	mux.HandleFunc("/api/stop", postOnly(func(w http.ResponseWriter, r *http.Request) {
		h.do(w, r, func(c *dashboard.Controller) error {
			c.Stop()
			return nil
		})
	}))
	mux.HandleFunc("/api/resize", postOnly(func(w http.ResponseWriter, r *http.Request) {
		v, err := formFloats(r, "chart_w", "chart_h", "bars_w", "bars_h")
		h.do(w, r, func(c *dashboard.Controller) error {
			if err != nil {
				return err
			}
			h.surface.Sizes[dashboard.RegionChart] = render.Size{W: v[0], H: v[1]}
			h.surface.Sizes[dashboard.RegionBars] = render.Size{W: v[2], H: v[3]}
			c.Display().Resize()
			return nil
		})
	}))
	mux.HandleFunc("/api/zoom", postOnly(func(w http.ResponseWriter, r *http.Request) {
		v, err := formFloats(r, "factor", "x", "y")
		h.do(w, r, func(c *dashboard.Controller) error {
			if err != nil {
				return err
			}
			c.Display().ZoomAt(v[0], v[1], v[2])
			return nil
		})
	}))
	mux.HandleFunc("/api/pan", postOnly(func(w http.ResponseWriter, r *http.Request) {
		v, err := formFloats(r, "dx", "dy")
		h.do(w, r, func(c *dashboard.Controller) error {
			if err != nil {
				return err
			}
			c.Display().Pan(v[0], v[1])
			return nil
		})
	}))
	mux.HandleFunc("/api/brush", postOnly(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("x0") == "" {
			h.do(w, r, func(c *dashboard.Controller) error {
				c.Display().ClearBrush()
				return nil
			})
			return
		}
		v, err := formFloats(r, "x0", "x1")
		h.do(w, r, func(c *dashboard.Controller) error {
			if err != nil {
				return err
			}
			c.Display().Brush(v[0], v[1])
			return nil
		})
	}))
	mux.HandleFunc("/api/reset", postOnly(func(w http.ResponseWriter, r *http.Request) {
		h.do(w, r, func(c *dashboard.Controller) error {
			c.Display().ResetView()
			return nil
		})
	}))
	mux.HandleFunc("/api/hover", postOnly(func(w http.ResponseWriter, r *http.Request) {
		v, err := formFloats(r, "x", "y")
		region := dashboard.Region(r.FormValue("region"))
		h.do(w, r, func(c *dashboard.Controller) error {
			if err != nil {
				return err
			}
			return c.Display().Hover(region, v[0], v[1])
		})
	}))
	mux.HandleFunc("/api/leave", postOnly(func(w http.ResponseWriter, r *http.Request) {
		h.do(w, r, func(c *dashboard.Controller) error {
			c.Display().Leave()
			return nil
		})
	}))

	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func runWeb(args []string) {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	opts := addCommonFlags(fs, "")
	host := fs.String("host", "127.0.0.1", "Host for the dashboard server")
	port := fs.Int("port", config.DefaultWebPort, "Port for the dashboard server")
	noOpen := fs.Bool("no-open-browser", false, "Do not auto-open browser")
	fs.Parse(args)

	cfg, err := loadConfig(fs, opts, func(cfg *config.Config, name string) {
		switch name {
		case "host":
			cfg.Web.Host = *host
		case "port":
			cfg.Web.Port = *port
		case "no-open-browser":
			cfg.Web.OpenBrowser = !*noOpen
		}
	})
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger("pulsedash-web", cfg)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	reg := prometheus.NewRegistry()
	controls := &webControls{}
	surface := dashboard.NewSnapshot(render.Size{W: 600, H: 400}, render.Size{W: 320, H: 300})
	ctrl := dashboard.New(dashboard.Options{
		Source:   cfg.NewSource(logger),
		Surface:  surface,
		Controls: controls,
		Logger:   logger,
		Metrics:  metrics.New(reg),
	})
	web := &webHost{
		loop:     dashboard.NewLoop(ctrl),
		surface:  surface,
		controls: controls,
		filename: filepath.Base(cfg.Export.Path),
		logger:   logger,
		session:  ctx,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{Addr: addr, Handler: web.routes(reg)}

	fmt.Printf("Dashboard: http://%s\n", addr)
	fmt.Printf("Source: %s\n", cfg.Source.Kind)
	fmt.Println("Press Ctrl+C to stop")
	logger.Info("web dashboard started", zap.String("addr", addr), zap.String("source", cfg.Source.Kind))

	go web.loop.Run(ctx)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	if cfg.Web.OpenBrowser {
		go func() {
			time.Sleep(300 * time.Millisecond)
			openBrowser(fmt.Sprintf("http://%s", addr))
		}()
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("web: %v", err)
	}
}

func dashboardHTML(poll time.Duration, filename string) string {
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Heart Rate Monitor</title>
  <style>
    body {
      margin: 0;
      padding: 16px;
      background: #f5f7fa;
      color: #222;
      font: 14px/1.4 -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
    }
    .row { display: flex; gap: 16px; flex-wrap: wrap; align-items: flex-start; }
    .card { background: #fff; border-radius: 8px; padding: 12px; box-shadow: 0 1px 3px rgba(0,0,0,.12); position: relative; }
    .stats span { display: inline-block; min-width: 110px; }
    .stats b { font-size: 1.3rem; }
    #alert { display: none; background: #fdecea; color: #d32f2f; padding: 8px 12px; border-radius: 6px; margin: 8px 0; font-weight: bold; }
    #empty { color: #b0bec5; text-align: center; padding: 8px 0; }
    #tooltip { position: absolute; display: none; pointer-events: none; background: #fff; border: 1px solid #1976d2;
      border-radius: 4px; padding: 4px 8px; white-space: pre; font-size: 12px; }
    img { display: block; user-select: none; -webkit-user-drag: none; }
    .legend span { margin-right: 1.5rem; }
    code { color: #1976d2; }
  </style>
</head>
<body>
  <div class="row">
    <button id="start">Start Session</button>
    <button id="stop">Stop Session</button>
    <button id="download">Download CSV</button>
    <button id="reset">Reset view</button>
    <span>Session: <code id="timer">00:00</code></span>
  </div>
  <div id="alert"></div>
  <div class="card stats">
    <span>Current: <b id="current">--</b> bpm</span>
    <span>Average: <b id="avg">--</b> bpm</span>
    <span>Min: <b id="min">--</b> bpm</span>
    <span>Max: <b id="max">--</b> bpm</span>
  </div>
  <div class="row" style="margin-top:12px">
    <div class="card"><img id="chart" data-region="chart" src="/chart.svg" />
      <div class="legend">
        <span style="color:#1976d2">&#9473;&#9473; Current Heart Rate</span>
        <span style="color:#1CA7A7">&#9679; Safe Zone</span>
        <span style="color:#d32f2f">&#9679; Out-of-Range</span>
      </div>
      <div id="empty">No session active. Click <b>Start Session</b> to begin real-time monitoring.</div>
      <div id="selection"></div>
    </div>
    <div class="card"><img id="bars" data-region="bars" src="/bars.svg" /></div>
  </div>
  <div id="tooltip"></div>
  <script>
    const POLL_MS = %d;
    const $ = (id) => document.getElementById(id);
    const post = (path, params) => fetch(path, {
      method: "POST",
      headers: { "Content-Type": "application/x-www-form-urlencoded" },
      body: new URLSearchParams(params || {})
    }).then((r) => r.json()).then(apply);

    function frameXY(img, e) {
      const r = img.getBoundingClientRect();
      const sx = img.naturalWidth / r.width || 1, sy = img.naturalHeight / r.height || 1;
      return { x: (e.clientX - r.left) * sx, y: (e.clientY - r.top) * sy, sx, sy, r };
    }

    function reload() {
      const ts = Date.now();
      $("chart").src = "/chart.svg?ts=" + ts;
      $("bars").src = "/bars.svg?ts=" + ts;
    }

    function apply(st) {
      if (!st || st.error) { return; }
      $("timer").textContent = st.timer;
      $("current").textContent = st.stats.current;
      $("avg").textContent = st.stats.avg;
      $("min").textContent = st.stats.min;
      $("max").textContent = st.stats.max;
      $("start").disabled = !st.controls.start;
      $("stop").disabled = !st.controls.stop;
      $("download").disabled = !st.controls.export;
      $("alert").style.display = st.alert ? "block" : "none";
      $("alert").textContent = st.alert ? "⚠️ " + st.alert : "";
      $("empty").style.display = st.empty ? "block" : "none";
      $("selection").textContent = st.selection
        ? "Selected: " + st.selection.Lo.toFixed(1) + " to " + st.selection.Hi.toFixed(1) : "";
      const tip = $("tooltip");
      if (st.hint) {
        const img = $(st.hint.source);
        const r = img.getBoundingClientRect();
        const sx = r.width / (img.naturalWidth || r.width), sy = r.height / (img.naturalHeight || r.height);
        tip.style.left = (window.scrollX + r.left + st.hint.x * sx) + "px";
        tip.style.top = (window.scrollY + r.top + st.hint.y * sy) + "px";
        tip.textContent = st.hint.text;
        tip.style.display = "block";
      } else {
        tip.style.display = "none";
      }
      reload();
    }

    $("start").onclick = () => post("/api/start");
    $("stop").onclick = () => post("/api/stop");
    $("reset").onclick = () => post("/api/reset");
    $("download").onclick = () => { window.location = "/api/export.csv"; };

    for (const img of [$("chart"), $("bars")]) {
      let pending = false;
      img.addEventListener("mousemove", (e) => {
        if (pending || drag) { return; }
        pending = true;
        const p = frameXY(img, e);
        post("/api/hover", { region: img.dataset.region, x: p.x, y: p.y }).finally(() => { pending = false; });
      });
      img.addEventListener("mouseleave", () => post("/api/leave"));
    }

    let drag = null;
    const chart = $("chart");
    chart.addEventListener("wheel", (e) => {
      e.preventDefault();
      const p = frameXY(chart, e);
      post("/api/zoom", { factor: e.deltaY < 0 ? 1.2 : 1 / 1.2, x: p.x, y: p.y });
    }, { passive: false });
    chart.addEventListener("mousedown", (e) => { drag = { start: frameXY(chart, e), last: frameXY(chart, e), brush: e.shiftKey }; });
    window.addEventListener("mouseup", (e) => {
      if (!drag) { return; }
      const p = frameXY(chart, e);
      if (drag.brush) {
        post("/api/brush", Math.abs(p.x - drag.start.x) < 1 ? {} : { x0: drag.start.x, x1: p.x });
      } else {
        post("/api/pan", { dx: p.x - drag.last.x, dy: p.y - drag.last.y });
      }
      drag = null;
    });

    function resize() {
      const w = Math.max(320, Math.floor(window.innerWidth * 0.6));
      post("/api/resize", { chart_w: w, chart_h: Math.floor(w * 0.6), bars_w: Math.floor(w * 0.5), bars_h: Math.floor(w * 0.6) });
    }

    async function poll() {
      try {
        const response = await fetch("/api/state?ts=" + Date.now(), { cache: "no-store" });
        if (response.ok) { apply(await response.json()); }
      } catch (error) {}
    }

    resize();
    setInterval(poll, POLL_MS);
    window.addEventListener("resize", resize);
  </script>
  <p><small>Export file: <code>%s</code> | shift+drag to select a range, drag to pan, wheel to zoom</small></p>
</body>
</html>`, poll.Milliseconds(), html.EscapeString(filename))
}
