package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oictools/oictl/pkg/errors"
)

func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	return New(os.Stderr, LogInfo)
}

func TestRootCommandStructure(t *testing.T) {
	root := newTestCLI(t).RootCommand()

	if root.Use != "oictl" {
		t.Errorf("Use = %q, want oictl", root.Use)
	}
	if !root.SilenceUsage {
		t.Error("SilenceUsage should be true")
	}

	want := map[string]bool{"export": false, "import": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestExportSubcommands(t *testing.T) {
	root := newTestCLI(t).RootCommand()

	subs := map[string]bool{}
	for _, cmd := range root.Commands() {
		if cmd.Name() != "export" {
			continue
		}
		for _, sub := range cmd.Commands() {
			subs[sub.Name()] = true
		}
	}
	if len(subs) == 0 {
		t.Fatal("export command not registered")
	}
	for _, name := range []string{"connections", "integrations"} {
		if !subs[name] {
			t.Errorf("export subcommand %q not registered", name)
		}
	}
}

func TestConnectMissingConfig(t *testing.T) {
	opts := connectOpts{config: filepath.Join(t.TempDir(), "missing.toml"), env: "dev"}
	_, err := opts.connect()
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}

func TestConnectUnknownEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := `
base_url = "https://design.example.com"
region = "eu-frankfurt-1"

[api_uris]
retrieve_connections = "/ic/api/integration/v1/connections"
retrieve_integrations = "/ic/api/integration/v1/integrations"
import_integration = "/ic/api/integration/v1/integrations/archive"

[environments.dev]
instance = "acme-dev"
[environments.dev.authorization]
bearer_token = "tok"
`
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := connectOpts{config: path, env: "staging"}
	_, err := opts.connect()
	if !errors.Is(err, errors.ErrCodeEnvNotFound) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeEnvNotFound)
	}
}

func TestDefaultExtractPath(t *testing.T) {
	tests := []struct {
		env  string
		kind string
		want string
	}{
		{"dev", "conn", filepath.Join("conn_inventory_dev", "oic_dev_conn_extract.csv")},
		{"prod", "int", filepath.Join("int_inventory_prod", "oic_prod_int_extract.csv")},
	}
	for _, tt := range tests {
		if got := defaultExtractPath(tt.env, tt.kind); got != tt.want {
			t.Errorf("defaultExtractPath(%q, %q) = %q, want %q", tt.env, tt.kind, got, tt.want)
		}
	}
}
