package fighter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one fighter as written in a roster file.
type Entry struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Archetype   string    `yaml:"archetype"`
	WeightClass string    `yaml:"weight_class"`
	Stats       StatsSpec `yaml:"stats"`
	Record      Record    `yaml:"record"`
}

// Build converts the entry into a fighter. Stats are clamped to [0, 100].
func (e Entry) Build() (*Fighter, error) {
	a, err := ParseArchetype(e.Archetype)
	if err != nil {
		return nil, err
	}
	wc, err := ParseWeightClass(e.WeightClass)
	if err != nil {
		return nil, err
	}
	f, err := New(e.ID, e.Name, a, wc, e.Stats.Resolve(a))
	if err != nil {
		return nil, err
	}
	if e.Record.Wins < 0 || e.Record.Losses < 0 || e.Record.Draws < 0 {
		return nil, fmt.Errorf("%w: %q: negative record", ErrInvalidFighter, e.Name)
	}
	f.Record = e.Record
	return f, nil
}

type rosterFile struct {
	Fighters []Entry `yaml:"fighters"`
}

// LoadRosterFromBytes parses a roster document.
//
// Postcondition: returns every fighter in document order, or the first error.
// Duplicate ids are rejected.
func LoadRosterFromBytes(data []byte) ([]*Fighter, error) {
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	seen := make(map[string]bool, len(rf.Fighters))
	out := make([]*Fighter, 0, len(rf.Fighters))
	for i, e := range rf.Fighters {
		f, err := e.Build()
		if err != nil {
			return nil, fmt.Errorf("roster entry %d: %w", i, err)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("roster entry %d: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out, nil
}

// LoadRoster reads every .yaml file in dir (or a single file) and returns the
// concatenated fighters.
func LoadRoster(path string) ([]*Fighter, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}
	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading roster dir %s: %w", path, err)
		}
		files = files[:0]
		for _, e := range entries {
			if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	var all []*Fighter
	ids := make(map[string]string)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		fs, err := LoadRosterFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for _, f := range fs {
			if prev, dup := ids[f.ID]; dup {
				return nil, fmt.Errorf("%s: id %q already defined in %s", file, f.ID, prev)
			}
			ids[f.ID] = file
		}
		all = append(all, fs...)
	}
	return all, nil
}
