package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/xquti/mdb-backend/auth"
	"github.com/xquti/mdb-backend/forum"
	"github.com/xquti/mdb-backend/internal/config"
	"github.com/xquti/mdb-backend/kvstore"
	"github.com/xquti/mdb-backend/ratelimit"
	"github.com/xquti/mdb-backend/realtime"
	"github.com/xquti/mdb-backend/search"
	"github.com/xquti/mdb-backend/server"
	"github.com/xquti/mdb-backend/token"
	"github.com/xquti/mdb-backend/tutorials"
	"github.com/xquti/mdb-backend/users"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("server exited")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	handler, cleanup, err := buildServer(c)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildServer wires every component explicitly: store, repos, token
// core, services, and the HTTP surface.
func buildServer(c config.Config) (http.Handler, func(), error) {
	store := kvstore.NewRedisStore(c.GetRedisAddr(), c.GetRedisPassword())

	db, err := sqlx.Connect("postgres", c.GetDatabaseURL())
	if err != nil {
		store.Close()
		return nil, nil, errors.Wrap(err, "[buildServer] database connect")
	}

	searchIndex, err := search.Open(c.GetSearchIndexPath())
	if err != nil {
		store.Close()
		db.Close()
		return nil, nil, errors.Wrap(err, "[buildServer] search index")
	}

	codec, err := token.NewCodec(c.GetSigningSecret(), c.GetIssuer(), c.GetAudience())
	if err != nil {
		store.Close()
		db.Close()
		searchIndex.Close()
		return nil, nil, errors.Wrap(err, "[buildServer] token codec")
	}
	blacklist := token.NewBlacklist(store)

	userRepo := users.NewPostgresRepo(db)
	authService, err := auth.NewService(codec, blacklist, users.NewResolver(userRepo),
		c.GetAccessTokenTTL(), c.GetRefreshTokenTTL())
	if err != nil {
		store.Close()
		db.Close()
		searchIndex.Close()
		return nil, nil, errors.Wrap(err, "[buildServer] auth service")
	}

	hub := realtime.NewHub()
	go hub.Run()

	forumService, err := forum.NewService(forum.NewPostgresRepo(db), searchIndex, hub)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[buildServer] forum service")
	}
	tutorialService, err := tutorials.NewService(tutorials.NewPostgresRepo(db))
	if err != nil {
		return nil, nil, errors.Wrap(err, "[buildServer] tutorial service")
	}

	options := []server.Option{}
	oidcConfig, err := buildOIDC(c)
	if err != nil {
		log.Warn().Err(err).Msg("identity provider unavailable, login disabled")
	} else if oidcConfig != nil {
		options = append(options, server.WithOIDC(oidcConfig))
	}

	srv, err := server.New(c, authService, ratelimit.NewLimiter(store),
		userRepo, forumService, tutorialService, searchIndex, hub, options...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[buildServer] server")
	}

	cleanup := func() {
		hub.Stop()
		searchIndex.Close()
		db.Close()
		store.Close()
	}
	return srv, cleanup, nil
}

// buildOIDC discovers the upstream provider. A missing client ID means
// login is deliberately unconfigured, which is not an error.
func buildOIDC(c config.Config) (*server.OidcConfig, error) {
	clientID := c.GetOIDCClientID()
	if clientID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, c.GetOIDCIssuerURL())
	if err != nil {
		return nil, errors.Wrap(err, "[buildOIDC] provider discovery")
	}

	return &server.OidcConfig{
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: c.GetOIDCClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  c.GetBaseURL() + "/oauth2/callback",
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("listen and serve")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
