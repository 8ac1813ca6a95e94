package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/lectern/internal/eventbridge"
	"github.com/kingrea/lectern/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	quiet := fs.Bool("quiet", false, "do not print the change feed")
	_ = fs.Parse(args)

	router := eventbridge.NewRouter()
	project, err := tracker.Open(resolveProject(*projectDir), tracker.WithPublisher(router))
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	defer project.Close()

	settings := eventbridge.SettingsFromConfig(project.Config)
	server := eventbridge.NewServer(settings, project.Tracker,
		eventbridge.WithRouter(router),
		eventbridge.WithLogger(project.Logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if err := server.Start(gctx); err != nil {
		if errors.Is(err, eventbridge.ErrServerDisabled) {
			return fmt.Errorf("bridge is disabled; set bridge.enabled in %s or LECTERN_BRIDGE_ENABLED=true", project.Config.ProjectConfigPath())
		}
		project.Logger.Error("bridge start failed", "error", err)
		return fmt.Errorf("start bridge: %w", err)
	}
	project.Journal.Info("bridge listening on %s", server.BaseURL())
	fmt.Printf("lectern bridge listening on %s (Ctrl+C to stop)\n", server.BaseURL())

	if !*quiet {
		feed := router.Subscribe(eventbridge.Wildcard)
		g.Go(func() error {
			defer feed.Close()
			for {
				select {
				case <-gctx.Done():
					return nil
				case change, ok := <-feed.Changes:
					if !ok {
						return nil
					}
					fmt.Println(formatChange(change))
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown bridge: %w", err)
		}
		project.Journal.Info("bridge stopped")
		return nil
	})

	return g.Wait()
}

func formatChange(change tracker.Change) string {
	at := change.At.Format("15:04:05")
	switch change.Kind {
	case tracker.ChangeApplied:
		return fmt.Sprintf("%s  %-10s %s %q %s → %s (rev %d)", at, change.Actor.Name, change.Event, change.TopicName, change.From.Label(), change.To.Label(), change.Revision)
	case tracker.ChangeRejected:
		return fmt.Sprintf("%s  %-10s %s %q rejected: %s", at, change.Actor.Name, change.Event, change.TopicName, change.Detail)
	default:
		return fmt.Sprintf("%s  %-10s %s (rev %d)", at, change.Actor.Name, change.Detail, change.Revision)
	}
}
