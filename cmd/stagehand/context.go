package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stagehand/internal/config"
	"stagehand/internal/logging"
	"stagehand/internal/registry"
	"stagehand/internal/services"
	"stagehand/internal/settings"
	"stagehand/internal/stage"
	"stagehand/internal/stages"
	"stagehand/internal/staging"
)

type commandContext struct {
	configFlag  *string
	projectFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, projectFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		projectFlag: projectFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) projectPath() (string, error) {
	path := defaultProjectFile
	if c.projectFlag != nil && strings.TrimSpace(*c.projectFlag) != "" {
		path = strings.TrimSpace(*c.projectFlag)
	}
	return config.ExpandPath(path)
}

// session is the in-memory state rebuilt from the project document on every
// invocation.
type session struct {
	path     string
	store    *settings.Store
	registry *registry.Registry
	list     *staging.List
}

// openSession builds the catalog and applies the project document. A missing
// document yields an empty session.
func (c *commandContext) openSession() (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	path, err := c.projectPath()
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}

	store := settings.NewStore()
	project, err := settings.LoadProject(path)
	switch {
	case err == nil:
		project.Apply(store)
	case errors.Is(err, services.ErrNotFound):
	default:
		return nil, err
	}

	reg, err := stages.DefaultCatalog(store, stages.ToolsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	list := staging.NewList(reg)
	for _, name := range project.Staged {
		s, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("project %s: %w: %s", path, staging.ErrUnknownStage, name)
		}
		if err := list.Toggle(s, true); err != nil {
			return nil, fmt.Errorf("project %s: stage %s: %w", path, name, err)
		}
	}
	return &session{path: path, store: store, registry: reg, list: list}, nil
}

func (s *session) save() error {
	return settings.SaveProject(s.path, settings.Snapshot(s.store, s.list.Names()))
}

func (s *session) resolve(name string) (stage.Stage, error) {
	st, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (see `stagehand catalog`)", staging.ErrUnknownStage, name)
	}
	return st, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
