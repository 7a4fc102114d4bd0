package pkgconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestViperConfigValues(t *testing.T) {
	path := writeConfigFile(t, "int: 42\nbool: true\nstring: hi\n")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	if got := cfg.GetInt("int"); got != 42 {
		t.Fatalf("GetInt: expected 42, got %d", got)
	}
	if got := cfg.GetBool("bool"); got != true {
		t.Fatalf("GetBool: expected true, got %v", got)
	}
	if got := cfg.GetString("string"); got != "hi" {
		t.Fatalf("GetString: expected hi, got %q", got)
	}
}

func TestViperSetOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "server:\n  address:\n    http: \":3000\"\n")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	cfg.Set("server.address.http", ":4000")

	if got := cfg.GetString("server.address.http"); got != ":4000" {
		t.Fatalf("expected override, got %q", got)
	}
}

func TestViperUnmarshalSection(t *testing.T) {
	path := writeConfigFile(t, "modules:\n  rest:\n    enabled: true\n    id_field: key\n    read_only: \"true\"\n")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	var section struct {
		Enabled  bool   `mapstructure:"enabled"`
		IDField  string `mapstructure:"id_field"`
		ReadOnly bool   `mapstructure:"read_only"`
	}
	if err := cfg.Unmarshal("modules.rest", &section); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !section.Enabled {
		t.Fatal("expected enabled")
	}
	if section.IDField != "key" {
		t.Fatalf("expected id_field key, got %q", section.IDField)
	}
	if !section.ReadOnly {
		t.Fatal("expected weakly typed read_only to decode as true")
	}
}
