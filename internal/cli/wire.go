package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/parisxmas/vacancyform/internal/auth"
	"github.com/parisxmas/vacancyform/internal/config"
	"github.com/parisxmas/vacancyform/internal/db"
	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/handler"
	"github.com/parisxmas/vacancyform/internal/notify"
	"github.com/parisxmas/vacancyform/internal/render"
	"github.com/parisxmas/vacancyform/internal/repository"
	"github.com/parisxmas/vacancyform/internal/router"
	"github.com/parisxmas/vacancyform/internal/service"
	"github.com/parisxmas/vacancyform/internal/storage"
)

// app holds everything built from a Config.
type app struct {
	cfg       *config.Config
	def       *form.Definition
	pool      *db.Pool
	documents storage.DocumentStore
	log       storage.LogStore
	notifier  notify.Notifier
	subSvc    *service.SubmissionService
	docSvc    *service.DocumentService
	authSvc   *service.AuthService
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	def, err := form.Load(cfg.Form.Path)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, def: def}
	if cfg.UsesOxiDB() {
		a.pool, err = db.NewPool(ctx, cfg.OxiDB.Addr, cfg.OxiDB.PoolSize, cfg.OxiDB.Keepalive)
		if err != nil {
			return nil, fmt.Errorf("connect to OxiDB: %w", err)
		}
		log.Printf("Connected to OxiDB at %s (pool size: %d)", cfg.OxiDB.Addr, cfg.OxiDB.PoolSize)
	}

	a.documents = newDocumentStore(cfg, a.pool)
	logStore, err := newLogStore(cfg, a.pool)
	if err != nil {
		a.close()
		return nil, err
	}
	a.log = logStore
	a.notifier = newNotifier(cfg, def)

	hash := cfg.Auth.AdminPasswordHash
	if hash == "" && cfg.Auth.AdminPassword != "" {
		if hash, err = auth.HashPassword(cfg.Auth.AdminPassword); err != nil {
			a.close()
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	}
	if hash == "" {
		log.Printf("Warning: no admin password configured, admin API login disabled")
	}

	sink := &storage.Sink{Documents: a.documents, Log: a.log}
	a.subSvc = service.NewSubmissionService(def, service.NewRecordBuilder(def), render.NewRenderer(def), sink, a.log, a.notifier).
		WithEnvCredential(notify.EnvCredential{UsernameVar: cfg.Notify.UsernameEnv, SecretVar: cfg.Notify.SecretEnv})
	a.docSvc = service.NewDocumentService(a.documents)
	a.authSvc = service.NewAuthService(cfg.Auth.AdminUser, hash, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.LinkTTL)
	return a, nil
}

func newDocumentStore(cfg *config.Config, pool *db.Pool) storage.DocumentStore {
	if cfg.Storage.Documents == "oxidb" {
		return repository.NewDocumentRepo(pool)
	}
	return storage.NewFSDocuments(cfg.Storage.DocumentsDir)
}

func newLogStore(cfg *config.Config, pool *db.Pool) (storage.LogStore, error) {
	switch cfg.Storage.Log {
	case "oxidb":
		return repository.NewSubmissionRepo(pool), nil
	case "sqlite", "postgres":
		l, err := storage.OpenGormLog(cfg.Storage.Log, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if cfg.Storage.Log == "xlsx" {
		return storage.NewXLSXLog(cfg.Storage.LogPath), nil
	}
	return storage.NewCSVLog(cfg.Storage.LogPath), nil
}

// newNotifier returns nil when no remote delivery is configured.
func newNotifier(cfg *config.Config, def *form.Definition) notify.Notifier {
	n := cfg.Notify
	switch n.Kind {
	case "smtp":
		return notify.NewSMTP(n.SMTP.Host, n.SMTP.Port, notify.NewComposer(def, n.Recipient))
	case "gmail":
		return notify.NewGmail(n.Gmail.Endpoint, notify.NewComposer(def, n.Recipient))
	case "github":
		return notify.NewGitHub(n.GitHub.APIURL, n.GitHub.Repo, n.GitHub.Branch, n.GitHub.Dir)
	case "sharepoint":
		s := n.SharePoint
		return notify.NewSharePoint(s.GraphURL, s.TokenURL, s.TenantID, s.ClientID, s.SiteID, s.Folder)
	}
	return nil
}

// askSecret reports whether the form page should collect the sender's
// password: only mail transports use it, and only when the environment does
// not supply one.
func (a *app) askSecret() bool {
	n := a.cfg.Notify
	return (n.Kind == "smtp" || n.Kind == "gmail") && n.SecretEnv == ""
}

func (a *app) handler() http.Handler {
	subH := handler.NewSubmissionHandler(a.subSvc, a.authSvc, a.cfg.HTTP.BaseURL)

	checks := map[string]handler.Check{
		"documents": a.documents.Ensure,
	}
	if a.pool != nil {
		checks["oxidb"] = a.pool.Ping
	}

	return router.New(a.cfg.Auth.JWTSecret, router.Handlers{
		Page:       handler.NewPageHandler(subH, a.askSecret()),
		Form:       handler.NewFormHandler(a.def),
		Submission: subH,
		Document:   handler.NewDocumentHandler(a.docSvc, a.cfg.Auth.JWTSecret),
		Auth:       handler.NewAuthHandler(a.authSvc),
		Admin:      handler.NewAdminHandler(a.subSvc),
		Search:     handler.NewSearchHandler(a.subSvc),
		Dashboard:  handler.NewDashboardHandler(a.subSvc),
		Health:     handler.NewHealthHandler(checks),
	})
}

// ensureIndexes prepares OxiDB collections. Index builds on a large log can
// take a while, so it runs on its own connection.
func (a *app) ensureIndexes() {
	log.Printf("Background init: starting")
	initPool, err := db.NewPool(context.Background(), a.cfg.OxiDB.Addr, 1, 0)
	if err != nil {
		log.Printf("Warning: init pool connect failed, using main pool: %v", err)
		initPool = a.pool
	}
	defer func() {
		if initPool != a.pool {
			initPool.Close()
		}
	}()

	ctx := context.Background()
	if a.cfg.Storage.Documents == "oxidb" {
		log.Printf("Background init: ensuring document bucket and indexes...")
		if err := repository.NewDocumentRepo(initPool).Ensure(ctx); err != nil {
			log.Printf("Warning: document store init failed: %v", err)
		}
	}
	if a.cfg.Storage.Log == "oxidb" {
		log.Printf("Background init: creating submission indexes...")
		start := time.Now()
		if err := repository.NewSubmissionRepo(initPool).EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: submission index creation failed: %v", err)
		} else {
			log.Printf("Background init: submission indexes ready (%s)", time.Since(start).Round(time.Millisecond))
		}
	}
	log.Printf("Background init: all done")
}

func (a *app) close() {
	if a.log != nil {
		if err := a.log.Close(); err != nil {
			log.Printf("Warning: close log: %v", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
