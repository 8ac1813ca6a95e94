// internal/config/config.go
//
// This package handles configuration and the .lectern directory structure.
// Every project tracked by lectern gets a .lectern/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/lectern/internal/lifecycle"
)

const (
	// LecternDir is the name of the directory we create in each project
	LecternDir = ".lectern"

	defaultCatalogFile   = "catalog.yaml"
	defaultStaffFile     = "staff.json"
	defaultPercentPlaces = 2
	maxPercentPlaces     = 6
)

const defaultProjectConfigYAML = `# lectern project configuration
version: 1

# Catalog of degrees, courses, units and topics. Relative paths resolve
# against the project directory.
catalog:
  path: .lectern/catalog.yaml

# Staff roster used for actor lookup and the admin overview.
staff:
  path: .lectern/staff.json

display:
  percent_places: 2

# Identity used by the terminal dashboard and "lectern apply". Override with
# LECTERN_ACTOR / LECTERN_ROLE.
actor:
  name: ""
  role: teacher

# HTTP bridge served by "lectern serve".
bridge:
  enabled: true
  host: 127.0.0.1
  port: 8765
  allow_origins: []
`

// PathRef points at a file on disk.
type PathRef struct {
	Path string `yaml:"path"`
}

// DisplayConfig controls how numbers are presented.
type DisplayConfig struct {
	PercentPlaces *int `yaml:"percent_places,omitempty"`
}

// ActorConfig names the default acting identity.
type ActorConfig struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// BridgeConfig captures the HTTP bridge section.
type BridgeConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Host         string   `yaml:"host,omitempty"`
	Port         int      `yaml:"port,omitempty"`
	AllowOrigins []string `yaml:"allow_origins,omitempty"`
}

// ProjectConfig models .lectern/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Catalog PathRef       `yaml:"catalog"`
	Staff   PathRef       `yaml:"staff"`
	Display DisplayConfig `yaml:"display"`
	Actor   ActorConfig   `yaml:"actor"`
	Bridge  BridgeConfig  `yaml:"bridge"`
}

// Config holds the runtime configuration for lectern.
type Config struct {
	// ProjectDir is the directory where the user ran `lectern` from
	ProjectDir string

	// LecternProjectDir is ProjectDir/.lectern
	LecternProjectDir string

	Project ProjectConfig
}

// InitLecternDir creates the .lectern directory structure in the given
// project directory and writes a default config.yaml when none exists.
//
// Structure created:
// .lectern/
// ├── logs/      <- structured application log
// ├── journal/   <- human-readable production journal
// └── state/     <- persisted catalog snapshot
func InitLecternDir(projectDir string) error {
	lecternDir := filepath.Join(projectDir, LecternDir)
	dirs := []string{
		filepath.Join(lecternDir, "logs"),
		filepath.Join(lecternDir, "journal"),
		filepath.Join(lecternDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(lecternDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
// Values from .lectern/.env are loaded into the environment first; variables
// already set in the process win.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		LecternProjectDir: filepath.Join(projectDir, LecternDir),
		Project:           defaultProjectConfig(),
	}
	if err := cfg.loadEnvFile(); err != nil {
		return nil, err
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	cfg.Project.normalize(projectDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.LecternProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.LecternProjectDir, "state")
}

// SnapshotPath returns the path of the persisted catalog snapshot.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.StateDir(), "catalog.json")
}

// JournalPath returns the production journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LecternProjectDir, "journal", "production.log")
}

// EnvPath returns the optional dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.LecternProjectDir, ".env")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.LecternProjectDir, "config.yaml")
}

// CatalogPath returns the resolved catalog file path.
func (c *Config) CatalogPath() string {
	return c.Project.Catalog.Path
}

// StaffPath returns the resolved staff roster path.
func (c *Config) StaffPath() string {
	return c.Project.Staff.Path
}

// PercentPlaces returns how many decimals percentages are rounded to.
func (c *Config) PercentPlaces() int {
	if c == nil || c.Project.Display.PercentPlaces == nil {
		return defaultPercentPlaces
	}
	return *c.Project.Display.PercentPlaces
}

// Actor returns the configured acting identity.
func (c *Config) Actor() (lifecycle.Actor, error) {
	role, err := lifecycle.ParseRole(c.Project.Actor.Role)
	if err != nil {
		return lifecycle.Actor{}, fmt.Errorf("config: actor: %w", err)
	}
	actor := lifecycle.Actor{Name: c.Project.Actor.Name, Role: role}
	if err := actor.Validate(); err != nil {
		return lifecycle.Actor{}, fmt.Errorf("config: %w", err)
	}
	return actor, nil
}

// SetActor updates the acting identity and persists it to config.yaml.
func (c *Config) SetActor(actor lifecycle.Actor) error {
	if err := actor.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.Actor = ActorConfig{Name: actor.Name, Role: string(actor.Role)}
	return c.saveProjectConfig()
}

func (c *Config) loadEnvFile() error {
	path := c.EnvPath()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Catalog.Path) == "" {
		pc.Catalog.Path = filepath.Join(LecternDir, defaultCatalogFile)
	}
	if strings.TrimSpace(pc.Staff.Path) == "" {
		pc.Staff.Path = filepath.Join(LecternDir, defaultStaffFile)
	}
	if pc.Display.PercentPlaces == nil {
		places := defaultPercentPlaces
		pc.Display.PercentPlaces = &places
	}
	if strings.TrimSpace(pc.Actor.Role) == "" {
		pc.Actor.Role = string(lifecycle.RoleTeacher)
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if name := strings.TrimSpace(os.Getenv("LECTERN_ACTOR")); name != "" {
		pc.Actor.Name = name
	}
	if role := strings.TrimSpace(os.Getenv("LECTERN_ROLE")); role != "" {
		pc.Actor.Role = role
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Catalog.Path = resolvePath(base, pc.Catalog.Path)
	pc.Staff.Path = resolvePath(base, pc.Staff.Path)
	pc.Actor.Name = strings.TrimSpace(pc.Actor.Name)
	pc.Actor.Role = strings.ToLower(strings.TrimSpace(pc.Actor.Role))
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
	origins := pc.Bridge.AllowOrigins[:0:0]
	for _, origin := range pc.Bridge.AllowOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" && !contains(origins, trimmed) {
			origins = append(origins, trimmed)
		}
	}
	pc.Bridge.AllowOrigins = origins
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if places := pc.Display.PercentPlaces; places != nil && (*places < 0 || *places > maxPercentPlaces) {
		return fmt.Errorf("display.percent_places must be between 0 and %d", maxPercentPlaces)
	}
	if _, err := lifecycle.ParseRole(pc.Actor.Role); err != nil {
		return fmt.Errorf("actor.role: %w", err)
	}
	if pc.Bridge.Port != 0 && (pc.Bridge.Port < 0 || pc.Bridge.Port > 65535) {
		return fmt.Errorf("bridge.port must be between 1 and 65535")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.LecternProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure lectern dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
