package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/mager/species/auth"
	"github.com/mager/species/config"
	"github.com/mager/species/database"
	"github.com/mager/species/firestore"
	"github.com/mager/species/grader"
	"github.com/mager/species/handler/analyze"
	"github.com/mager/species/handler/health"
	reportHandler "github.com/mager/species/handler/report"
	"github.com/mager/species/handler/rules"
	"github.com/mager/species/handler/stream"
	"github.com/mager/species/logger"
	"github.com/mager/species/metrics"
	"github.com/mager/species/species"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string
}

// Routes anyone may call without a token.
var publicPatterns = map[string]bool{
	"/health": true,
	"/rules":  true,
}

//	@title			Species
//	@version		1.0
//	@description	Species counterpoint analysis API

// @host		localhost:8080
// @BasePath	/
func main() {
	fx.New(
		fx.Provide(
			fx.Annotate(NewHTTPServer, fx.ParamTags(``, ``, ``, ``, ``, `group:"routes"`)),
			config.Options,
			logger.Options,
			database.Options,
			database.ProvideReportRepository,
			firestore.Options,
			firestore.ProvideArchive,
			auth.ProvideVerifier,
			metrics.Options,
			ProvideSettings,
			grader.Options,

			AsRoute(health.NewHealthHandler),
			AsRoute(analyze.NewAnalyzeHandler),
			AsRoute(reportHandler.NewGetReportHandler),
			AsRoute(stream.NewStreamHandler),
			AsRoute(rules.NewRulesHandler),
		),
		fx.WithLogger(func(log *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Desugar()}
		}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}

// ProvideSettings loads the analysis settings overrides, if any.
func ProvideSettings(cfg config.Config, log *zap.SugaredLogger) (species.SettingsTable, error) {
	if cfg.SettingsPath == "" {
		return species.DefaultSettingsTable(), nil
	}
	f, err := os.Open(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := species.LoadSettingsTable(f)
	if err != nil {
		return nil, err
	}
	log.Infow("Loaded analysis settings", "path", cfg.SettingsPath)
	return table, nil
}

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg config.Config,
	logger *zap.SugaredLogger,
	verifier *auth.Verifier,
	m *metrics.Metrics,
	routes []Route,
) *http.Server {
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: NewRouter(verifier, m, routes)}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Infow("Starting HTTP server", "addr", srv.Addr, "routes", len(routes))
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

// NewRouter mounts every route, guarding the non-public ones with the
// bearer token check.
func NewRouter(verifier *auth.Verifier, m *metrics.Metrics, routes []Route) *mux.Router {
	r := mux.NewRouter()
	r.Use(jsonMiddleware)
	for _, route := range routes {
		var h http.Handler = route
		if !publicPatterns[route.Pattern()] {
			h = verifier.Middleware(h)
		}
		r.Handle(route.Pattern(), h)
	}
	if m != nil {
		r.Handle(m.Pattern(), m)
	}
	return r
}

// AsRoute annotates the given constructor to state that
// it provides a route to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
