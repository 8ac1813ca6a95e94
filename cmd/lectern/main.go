// cmd/lectern/main.go
//
// This is the entry point for the lectern CLI.
// Running `lectern` in a project directory opens the terminal dashboard;
// subcommands cover the HTTP bridge, reports and one-off transitions.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/lectern/internal/config"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/tui"
)

const usage = `usage: lectern [command] [flags]

Commands:
  (none)   open the terminal dashboard
  init     create .lectern and optionally record the acting identity
  serve    run the HTTP bridge until interrupted
  report   print course and degree progress
  apply    fire one transition on a topic

Run "lectern <command> -h" for command flags.`

func main() {
	args := os.Args[1:]
	command := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}
	var err error
	switch command {
	case "":
		err = runDashboard(args)
	case "init":
		runInit(args)
	case "serve":
		err = runServe(args)
	case "report":
		err = runReport(args)
	case "apply":
		err = runApply(args)
	case "help":
		fmt.Println(usage)
	default:
		die("unknown command %q\n\n%s", command, usage)
	}
	if err != nil {
		die("%v", err)
	}
}

// runDashboard returns instead of exiting so the deferred Close flushes the
// project logs before main reports the error.
func runDashboard(args []string) error {
	fs := flag.NewFlagSet("lectern", flag.ExitOnError)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	_ = fs.Parse(args)

	app, err := tui.NewApp(resolveProject(*projectDir))
	if err != nil {
		return fmt.Errorf("open dashboard: %w", err)
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	name := fs.String("actor", "", "acting staff member name to record in config.yaml")
	role := fs.String("role", "", "acting role: teacher, editor or admin")
	_ = fs.Parse(args)

	project := resolveProject(*projectDir)
	if err := config.InitLecternDir(project); err != nil {
		die("init .lectern: %v", err)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		die("load config: %v", err)
	}
	if strings.TrimSpace(*name) != "" {
		parsed, err := lifecycle.ParseRole(*role)
		if err != nil {
			die("%v", err)
		}
		if err := cfg.SetActor(lifecycle.Actor{Name: strings.TrimSpace(*name), Role: parsed}); err != nil {
			die("save actor: %v", err)
		}
	}
	fmt.Printf("Initialized %s\n", cfg.LecternProjectDir)
	fmt.Printf("  config:  %s\n", cfg.ProjectConfigPath())
	fmt.Printf("  catalog: %s\n", cfg.CatalogPath())
	fmt.Printf("  staff:   %s\n", cfg.StaffPath())
}

// resolveProject returns an absolute project directory, defaulting to cwd.
func resolveProject(dir string) string {
	project := dir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absolute, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	return absolute
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
