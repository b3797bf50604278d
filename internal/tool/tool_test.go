package tool

import (
	"context"
	"errors"
	"testing"

	"medminer/internal/models"
)

type staticTool struct{ name string }

func (t *staticTool) Name() string                  { return t.name }
func (t *staticTool) Description() string           { return "static" }
func (t *staticTool) InputSchema() models.ToolSchema { return models.ToolSchema{} }
func (t *staticTool) Call(ctx context.Context, args map[string]any) (string, error) {
	return "ok", nil
}

func TestReadyDescriptorIgnoresSettings(t *testing.T) {
	d := Ready(&staticTool{name: "echo"})
	if len(d.Settings()) != 0 {
		t.Fatalf("ready descriptor declares settings: %v", d.Settings())
	}
	resolved, err := d.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Name() != "echo" {
		t.Errorf("resolved tool = %q", resolved.Name())
	}
}

func TestConfigurableDescriptorResolvesValues(t *testing.T) {
	settings := []Setting{
		{ID: "endpoint", Label: "Endpoint", Type: TypeString},
	}
	d := Configurable(settings, func(values map[string]string) (Tool, error) {
		return &staticTool{name: values["endpoint"]}, nil
	})

	resolved, err := d.Resolve(Settings{"endpoint": "https://example.test", "unrelated": 7})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Name() != "https://example.test" {
		t.Errorf("constructor did not receive the setting value: %q", resolved.Name())
	}
}

func TestConfigurableDescriptorFailsFastOnMissingSetting(t *testing.T) {
	d := Configurable([]Setting{{ID: "api_key", Label: "API key", Type: TypeString}},
		func(values map[string]string) (Tool, error) {
			t.Fatal("constructor must not run when a setting is missing")
			return nil, nil
		})

	_, err := d.Resolve(Settings{})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if cfgErr.SettingID != "api_key" {
		t.Errorf("SettingID = %q, want %q", cfgErr.SettingID, "api_key")
	}
}

func TestConfigurableDescriptorFailsFastOnWrongType(t *testing.T) {
	d := Configurable([]Setting{{ID: "base_dir", Label: "Directory", Type: TypePath}},
		func(values map[string]string) (Tool, error) { return &staticTool{}, nil })

	_, err := d.Resolve(Settings{"base_dir": 42})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if cfgErr.SettingID != "base_dir" {
		t.Errorf("SettingID = %q", cfgErr.SettingID)
	}
}

func TestEchoToolReturnsRecordsVerbatim(t *testing.T) {
	echo := NewEchoTool("extract_medication_data", "stage extracted medications", "One extracted medication.")
	out, err := echo.Call(context.Background(), map[string]any{"data": []any{
		map[string]any{"medication_reference": "Aspirin 100mg"},
	}})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	want := `[{"medication_reference":"Aspirin 100mg"}]`
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}
