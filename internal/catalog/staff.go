package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/lectern/internal/lifecycle"
)

// StaffEntry is one person in the staff roster (staff.json).
type StaffEntry struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
	Email      string         `json:"email,omitempty"`
	Role       lifecycle.Role `json:"role"`
	Department string         `json:"department,omitempty"`
}

// LoadStaff reads the staff roster from disk.
func LoadStaff(path string) ([]StaffEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var staff []StaffEntry
	if err := json.Unmarshal(data, &staff); err != nil {
		return nil, fmt.Errorf("failed to parse staff roster: %w", err)
	}
	for i := range staff {
		normalized, err := staff[i].Normalize()
		if err != nil {
			return nil, fmt.Errorf("staff[%d]: %w", i, err)
		}
		staff[i] = normalized
	}
	return staff, nil
}

// SaveStaff writes the roster to disk, preserving directory structure.
func SaveStaff(path string, staff []StaffEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(staff, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Normalize ensures essential fields are present.
func (s StaffEntry) Normalize() (StaffEntry, error) {
	trimmed := strings.TrimSpace(s.Name)
	if trimmed == "" {
		return StaffEntry{}, errors.New("staff entry missing name")
	}
	s.Name = trimmed
	role, err := lifecycle.ParseRole(string(s.Role))
	if err != nil {
		return StaffEntry{}, err
	}
	s.Role = role
	s.Department = strings.TrimSpace(s.Department)
	return s, nil
}

// Actor converts the entry into a workflow actor.
func (s StaffEntry) Actor() lifecycle.Actor {
	return lifecycle.Actor{Name: s.Name, Role: s.Role}
}

// FindStaff returns the first entry whose name matches (case-insensitive).
func FindStaff(staff []StaffEntry, name string) (StaffEntry, bool) {
	for _, entry := range staff {
		if strings.EqualFold(entry.Name, strings.TrimSpace(name)) {
			return entry, true
		}
	}
	return StaffEntry{}, false
}

// CountByRole tallies the roster per role.
func CountByRole(staff []StaffEntry) map[lifecycle.Role]int {
	counts := map[lifecycle.Role]int{}
	for _, entry := range staff {
		counts[entry.Role]++
	}
	return counts
}
