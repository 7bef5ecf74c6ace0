package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Mathiasric/snaptosize-app/internal/analytics"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/export"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
	"github.com/Mathiasric/snaptosize-app/internal/jobstate"
	"github.com/Mathiasric/snaptosize-app/internal/middleware"
	"github.com/Mathiasric/snaptosize-app/internal/storage"
	"github.com/Mathiasric/snaptosize-app/internal/workerapi"
)

const maxParallelDownloads = 3

func main() {
	os.Exit(run())
}

func run() int {
	var (
		fileFlag    string
		gatewayFlag bool
		sel         selectionFlags
	)
	flag.StringVar(&fileFlag, "file", "", "image to export")
	flag.StringVar(&sel.packs, "packs", "", "comma separated packs (2x3,3x4,4x5,iso,extras)")
	flag.StringVar(&sel.size, "size", "", "single size id, e.g. 12x18 or A4")
	flag.StringVar(&sel.group, "group", "2x3", "group the single size belongs to")
	flag.StringVar(&sel.orientation, "orientation", "portrait", "portrait, landscape or square")
	flag.BoolVar(&gatewayFlag, "gateway", false, "WORKER_BASE_URL points at the authenticated gateway")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fail(err)
	}
	logger := infra.NewLoggerTo(cfg.AppEnv, os.Stderr).With().Str("cmd", "export").Logger()

	if strings.TrimSpace(fileFlag) == "" {
		return fail(errors.New("-file is required"))
	}
	actions, err := sel.actions()
	if err != nil {
		return fail(err)
	}
	source, err := readSource(fileFlag)
	if err != nil {
		return fail(err)
	}
	session, err := sessionFromEnv()
	if err != nil {
		return fail(err)
	}

	opts := workerapi.Options{
		BaseURL: cfg.WorkerBaseURL,
		Token:   session.Token,
		UserID:  session.UserID,
		Timeout: cfg.WorkerTimeout,
		Logger:  &logger,
	}
	if gatewayFlag {
		opts.Routes = &workerapi.GatewayRoutes
	}
	client, err := workerapi.NewClient(opts)
	if err != nil {
		return fail(err)
	}

	events := analytics.NewPostHog(analytics.Options{APIKey: cfg.PostHogAPIKey, Host: cfg.PostHogHost, Logger: &logger})
	defer events.Flush()

	store := jobstate.NewStore(jobstate.Initial())
	store.Dispatch(jobstate.SetFile{File: source})
	for _, a := range actions {
		store.Dispatch(a)
	}

	orch, err := export.New(export.Options{
		Worker:       client,
		Store:        store,
		Events:       events,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
		Logger:       &logger,
	})
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, unsubscribe := store.Subscribe(0)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printTransitions(os.Stdout, updates)
	}()

	err = orch.Generate(ctx, session)
	unsubscribe()
	<-printed
	if err != nil {
		return fail(err)
	}

	final := store.State()
	if ctx.Err() != nil {
		fmt.Println("Export canceled.")
		return 130
	}
	if len(final.RecentDownloads) > 0 {
		sink, err := newSink(context.Background(), cfg)
		if err != nil {
			return fail(err)
		}
		if err := saveArchives(context.Background(), client, sink, final); err != nil {
			logger.Error().Err(err).Msg("export: saving archives failed")
			return fail(err)
		}
		printRecent(os.Stdout, final.RecentDownloads, time.Now())
	}
	if final.GlobalError != "" {
		fmt.Fprintln(os.Stderr, describeGlobalError(final.GlobalError))
	}
	return exitCode(final)
}

func readSource(path string) (*jobstate.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &jobstate.SourceFile{Name: filepath.Base(path), ContentType: contentType, Data: data}, nil
}

// sessionFromEnv reads the bearer token without verifying it; the worker
// does that. No token means an anonymous free session.
func sessionFromEnv() (domain.Session, error) {
	token := strings.TrimSpace(os.Getenv("SNAPTOSIZE_TOKEN"))
	if token == "" {
		return domain.Session{Plan: domain.UserPlanFree}, nil
	}
	claims, err := middleware.ReadClaims(token)
	if err != nil {
		return domain.Session{}, fmt.Errorf("SNAPTOSIZE_TOKEN: %w", err)
	}
	return claims.Session(token), nil
}

func newSink(ctx context.Context, cfg *infra.Config) (storage.Sink, error) {
	if cfg.MinIO.Enabled() {
		return storage.NewMinIOStore(ctx, storage.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	}
	return storage.NewFileStore(cfg.ExportDir)
}

// saveArchives copies every finished archive into sink.
func saveArchives(ctx context.Context, client *workerapi.Client, sink storage.Sink, s jobstate.State) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)
	for _, job := range s.OrderedJobs() {
		if job.Status != domain.JobStatusDone || job.JobID == "" {
			continue
		}
		g.Go(func() error {
			dl, err := client.Download(ctx, job.JobID)
			if err != nil {
				return fmt.Errorf("download %s: %w", job.JobID, err)
			}
			defer dl.Body.Close()
			where, err := sink.Put(ctx, dl.Filename, dl.Body, -1, dl.ContentType)
			if err != nil {
				return fmt.Errorf("store %s: %w", job.JobID, err)
			}
			fmt.Printf("saved %s\n", where)
			return nil
		})
	}
	return g.Wait()
}

func printTransitions(w io.Writer, updates <-chan jobstate.Update) {
	var phase domain.Phase
	jobs := map[string]domain.Job{}
	for u := range updates {
		if u.State.Phase != phase {
			phase = u.State.Phase
			fmt.Fprintf(w, "phase: %s\n", phase)
		}
		for _, j := range u.State.OrderedJobs() {
			prev, seen := jobs[j.Key]
			if seen && prev.Status == j.Status {
				continue
			}
			jobs[j.Key] = j
			line := fmt.Sprintf("  %-28s %s", j.Key, j.Status)
			switch {
			case j.Error != "":
				line += ": " + j.Error
			case j.Status == domain.JobStatusLocked:
				line += " (upgrade to export every pack)"
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printRecent(w io.Writer, recent []domain.RecentDownload, now time.Time) {
	if len(recent) == 0 {
		return
	}
	fmt.Fprintln(w, "Recent downloads:")
	for _, d := range recent {
		fmt.Fprintf(w, "  %-32s %-10s %s\n", d.Label, domain.FormatRelativeTime(d.CompletedAt, now), d.DownloadURL)
	}
}

func describeGlobalError(msg string) string {
	switch msg {
	case domain.QuotaFreeBatchLimit:
		return "Free plan limit reached for pack exports. Upgrade to continue."
	case domain.QuotaFreeQuickLimit:
		return "Free plan limit reached for single size exports. Upgrade to continue."
	}
	return "Export failed: " + msg
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}
