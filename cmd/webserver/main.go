package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fsptrainer"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

func main() {
	log := fsptrainer.Logger()

	cfg, err := fsptrainer.LoadConfig(os.Getenv("FSPTRAINER_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	fsptrainer.ConfigureLogger(cfg.Log)

	// A missing or broken term bank is not fatal: the UI shows a banner
	// and every quiz comes out empty.
	bank, loadErr := fsptrainer.LoadTermBank(cfg.TermBank.Path)
	if loadErr != nil {
		log.WithError(loadErr).Error("Term bank unavailable, serving empty quizzes")
	} else if report := bank.Audit(); !report.OK() {
		log.Warnf("Term bank has %d infeasible term/direction pairs; run 'fsptrainer check'", len(report.Infeasible))
	}

	history, err := openHistory(cfg.History.DSN)
	if err != nil {
		log.WithError(err).Error("Attempt history disabled")
	} else {
		defer history.CloseDB()
	}

	cookies := newCookieStore(cfg.Server)

	server, err := NewServer(cfg, bank, loadErr, fsptrainer.NewContextGenerator(cfg.LLM), history, cookies)
	if err != nil {
		log.Fatalf("Failed to set up server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go server.pruneLoop(ctx, cfg.Server.SessionTTL)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	server.Close()
}

// newCookieStore builds the session cookie store. Without a configured secret a
// random key is used and sessions do not survive a restart.
func newCookieStore(cfg fsptrainer.ServerConfig) *sessions.CookieStore {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		fsptrainer.Logger().Warn("No session secret configured, generating one; sessions end on restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	cookies := sessions.NewCookieStore(secret)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return cookies
}

func openHistory(dsn string) (*fsptrainer.DB, error) {
	db, err := fsptrainer.OpenDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		db.CloseDB()
		return nil, err
	}
	return db, nil
}
