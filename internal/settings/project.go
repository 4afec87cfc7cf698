package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"stagehand/internal/services"
)

// Project is the persisted form of a working session: global context, every
// settings bag, and the staged stage names in execution order.
type Project struct {
	Global   Global                    `toml:"global" yaml:"global" json:"global"`
	Sections map[string]map[string]any `toml:"sections" yaml:"sections" json:"sections"`
	Staged   []string                  `toml:"staged" yaml:"staged" json:"staged"`
}

// Snapshot captures the store and staged names as a project document.
func Snapshot(store *Store, staged []string) Project {
	return Project{
		Global:   store.Global(),
		Sections: store.Sections(),
		Staged:   append([]string(nil), staged...),
	}
}

// Apply loads the project's global context and bags into store. Existing
// bags for sections not mentioned in the project are left untouched.
func (p Project) Apply(store *Store) {
	store.SetGlobal(p.Global)
	for name, bag := range p.Sections {
		for key, value := range bag {
			store.Set(name, key, value)
		}
	}
}

type codec struct {
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return codec{marshal: toml.Marshal, unmarshal: toml.Unmarshal}, nil
	case ".yaml", ".yml":
		return codec{marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}, nil
	case ".json":
		return codec{
			marshal: func(v any) ([]byte, error) {
				return json.MarshalIndent(v, "", "  ")
			},
			unmarshal: json.Unmarshal,
		}, nil
	default:
		return codec{}, services.Wrap(services.ErrValidation, "settings", "project format",
			fmt.Sprintf("unsupported project extension %q (use .toml, .yaml, or .json)", filepath.Ext(path)), nil)
	}
}

// LoadProject reads a project document. The format follows the extension.
func LoadProject(path string) (Project, error) {
	c, err := codecFor(path)
	if err != nil {
		return Project{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Project{}, services.Wrap(services.ErrNotFound, "settings", "load project",
				"project file not found: "+path, err)
		}
		return Project{}, fmt.Errorf("read project: %w", err)
	}
	var project Project
	if err := c.unmarshal(data, &project); err != nil {
		return Project{}, services.Wrap(services.ErrValidation, "settings", "load project",
			"parse project "+path, err)
	}
	if project.Sections == nil {
		project.Sections = make(map[string]map[string]any)
	}
	return project, nil
}

// SaveProject writes a project document atomically next to path.
func SaveProject(path string, project Project) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	if project.Sections == nil {
		project.Sections = make(map[string]map[string]any)
	}
	data, err := c.marshal(project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create project directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace project: %w", err)
	}
	return nil
}
