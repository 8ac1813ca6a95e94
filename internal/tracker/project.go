package tracker

import (
	"errors"
	"fmt"
	"os"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/config"
	"github.com/kingrea/lectern/internal/logbook"
	"github.com/kingrea/lectern/internal/logging"
)

// Project is a tracker opened against a .lectern directory together with
// the journal and logger it writes to.
type Project struct {
	Config  *config.Config
	Tracker *Tracker
	Journal *logbook.Logbook
	Logger  *logging.Logger
	Staff   []catalog.StaffEntry
}

// Open initializes .lectern under projectDir, loads config and staff, and
// seeds the snapshot from the catalog file when no snapshot exists yet.
// A missing catalog or staff file is not an error.
func Open(projectDir string, opts ...Option) (*Project, error) {
	if err := config.InitLecternDir(projectDir); err != nil {
		return nil, fmt.Errorf("tracker: init project dir: %w", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(projectDir)
	if err != nil {
		return nil, err
	}
	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("tracker: open journal: %w", err)
	}
	staff, err := catalog.LoadStaff(cfg.StaffPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = logger.Close()
		return nil, fmt.Errorf("tracker: load staff: %w", err)
	}

	base := []Option{WithJournal(journal), WithLogger(logger), WithStaff(staff)}
	tr, err := New(NewRepository(cfg.SnapshotPath()), append(base, opts...)...)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	seed, err := catalog.LoadCatalogFile(cfg.CatalogPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		seed = catalog.Catalog{}
	case err != nil:
		_ = logger.Close()
		return nil, fmt.Errorf("tracker: load catalog: %w", err)
	}
	if _, err := tr.Seed(seed); err != nil {
		_ = logger.Close()
		return nil, err
	}
	return &Project{Config: cfg, Tracker: tr, Journal: journal, Logger: logger, Staff: staff}, nil
}

// Close flushes the logger.
func (p *Project) Close() error {
	if p == nil {
		return nil
	}
	return p.Logger.Close()
}
