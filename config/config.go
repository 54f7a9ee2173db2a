// Package config defines the structures to configure an odometry setup and the means to read
// them from JSON files.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/viam-labs/arcodom/utils"
)

// Config describes every component of a setup: the encoders and gyros the odometry reads and
// the odometry itself.
type Config struct {
	ConfigFilePath string      `json:"-"`
	Components     []Component `json:"components,omitempty"`
}

// A Component describes the configuration of a single component.
type Component struct {
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	Model      string       `json:"model"`
	Attributes AttributeMap `json:"attributes,omitempty"`
	DependsOn  []string     `json:"depends_on,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *Component) Validate(path string) error {
	if c.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if c.Type == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	}
	if c.Model == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	return nil
}

// Validate returns every problem found in the config. Component names must be unique.
func (c *Config) Validate() error {
	var errs error
	seen := make(map[string]struct{}, len(c.Components))
	for idx := range c.Components {
		path := fmt.Sprintf("components.%d", idx)
		if err := c.Components[idx].Validate(path); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		name := c.Components[idx].Name
		if _, ok := seen[name]; ok {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("duplicate component name %q", name)))
			continue
		}
		seen[name] = struct{}{}
	}
	return errs
}

// FindComponent finds a particular component by name.
func (c *Config) FindComponent(name string) *Component {
	for i := range c.Components {
		if c.Components[i].Name == name {
			return &c.Components[i]
		}
	}
	return nil
}

// ComponentsOfType returns the components of the given type in config order.
func (c *Config) ComponentsOfType(typ string) []Component {
	var out []Component
	for _, comp := range c.Components {
		if comp.Type == typ {
			out = append(out, comp)
		}
	}
	return out
}
