package tool

import (
	"context"
	"fmt"

	"medminer/internal/models"
)

// Tool is a capability an agent may call. Args arrive as the decoded JSON
// object the model produced; the returned string is fed back to the model.
type Tool interface {
	Name() string
	Description() string
	InputSchema() models.ToolSchema
	Call(ctx context.Context, args map[string]any) (string, error)
}

// SettingType is the expected value type of a tool setting.
type SettingType string

const (
	TypeString SettingType = "string"
	TypePath   SettingType = "path"
)

// UISetting carries presentation metadata for a setting: which tasks
// depend on it (filled by the registry) and widget parameters such as
// {"type": "password"}.
type UISetting struct {
	Dependent []string          `json:"dependent,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

// Setting declares one configurable value a tool needs at construction.
type Setting struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Type  SettingType `json:"type"`
	UI    UISetting   `json:"ui"`
}

// Settings is the flat key/value mapping supplied at task instantiation.
type Settings map[string]any

// ConfigError reports a missing or mistyped required setting. It is raised
// at tool construction, before any network or agent call.
type ConfigError struct {
	SettingID string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("setting %q: %s", e.SettingID, e.Reason)
}

// Descriptor is a tagged variant binding a tool into a task: either a
// ready instance, or a constructor plus the settings it requires, resolved
// at task instantiation.
type Descriptor struct {
	instance Tool
	settings []Setting
	build    func(values map[string]string) (Tool, error)
}

// Ready wraps an already-configured tool instance.
func Ready(t Tool) Descriptor {
	return Descriptor{instance: t}
}

// Configurable wraps a constructor that needs the declared settings. The
// build function receives the resolved values keyed by setting id.
func Configurable(settings []Setting, build func(values map[string]string) (Tool, error)) Descriptor {
	return Descriptor{settings: settings, build: build}
}

// Settings returns the settings this descriptor requires. Ready instances
// require none.
func (d Descriptor) Settings() []Setting {
	return d.settings
}

// Resolve produces the tool, extracting and validating the declared
// settings from the provided mapping. Missing or mistyped settings fail
// here with a *ConfigError.
func (d Descriptor) Resolve(provided Settings) (Tool, error) {
	if d.instance != nil {
		return d.instance, nil
	}

	values, err := resolveSettings(d.settings, provided)
	if err != nil {
		return nil, err
	}
	return d.build(values)
}

func resolveSettings(declared []Setting, provided Settings) (map[string]string, error) {
	values := make(map[string]string, len(declared))
	for _, setting := range declared {
		raw, ok := provided[setting.ID]
		if !ok || raw == nil {
			return nil, &ConfigError{SettingID: setting.ID, Reason: "missing required setting"}
		}
		value, ok := raw.(string)
		if !ok {
			return nil, &ConfigError{
				SettingID: setting.ID,
				Reason:    fmt.Sprintf("expected %s, got %T", setting.Type, raw),
			}
		}
		values[setting.ID] = value
	}
	return values, nil
}

// prop builds a JSON-schema fragment for one input property.
func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// arrayProp builds a JSON-schema fragment for an array property.
func arrayProp(itemType, description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": itemType},
		"description": description,
	}
}
