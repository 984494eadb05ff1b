package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir moves into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestResolveConfigPath(t *testing.T) {
	base := t.TempDir()
	xdgFile := writeFile(t, filepath.Join(base, "xdg", "newsclaw", "newsclaw.yaml"), "version: \"1\"\n")
	envFile := writeFile(t, filepath.Join(base, "explicit.yaml"), "version: \"1\"\n")
	workDir := filepath.Join(base, "work")
	writeFile(t, filepath.Join(workDir, "newsclaw.yaml"), "version: \"1\"\n")

	tests := []struct {
		name    string
		env     string
		xdg     string
		cwd     string
		want    string
		wantErr string
	}{
		{name: "explicit env wins", env: envFile, xdg: filepath.Join(base, "xdg"), want: envFile},
		{name: "explicit env missing", env: filepath.Join(base, "gone.yaml"), wantErr: EnvConfigPath},
		{name: "xdg config home", xdg: filepath.Join(base, "xdg"), cwd: base, want: xdgFile},
		{name: "working directory", xdg: filepath.Join(base, "empty"), cwd: workDir, want: "newsclaw.yaml"},
		{name: "nothing found", xdg: filepath.Join(base, "empty"), cwd: base, wantErr: "no configuration file found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigPath, tt.env)
			t.Setenv("XDG_CONFIG_HOME", tt.xdg)
			if tt.cwd != "" {
				chdir(t, tt.cwd)
			}

			got, err := ResolveConfigPath()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveConfigPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultDataDir(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name, env, xdg, want string
	}{
		{"explicit env", "/srv/newsclaw", "/custom/data", "/srv/newsclaw"},
		{"xdg data home", "", "/custom/data", "/custom/data/newsclaw"},
		{"home fallback", "", "", filepath.Join(home, ".local", "share", "newsclaw")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			t.Setenv("XDG_DATA_HOME", tt.xdg)
			if got := DefaultDataDir(); got != tt.want {
				t.Errorf("DefaultDataDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_RejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"missing file":   filepath.Join(dir, "absent.yaml"),
		"broken yaml":    writeFile(t, filepath.Join(dir, "broken.yaml"), "modules: [\n"),
		"no version":     writeFile(t, filepath.Join(dir, "noversion.yaml"), "modules:\n  kvstore.sqlite: {}\n"),
		"unknown module": writeFile(t, filepath.Join(dir, "unknown.yaml"), "version: \"1\"\nmodules:\n  channel.fax: {}\n"),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			if err := Run(RunParams{ConfigPath: path, DataDir: dir}); err == nil {
				t.Error("Run succeeded on a bad configuration")
			}
		})
	}
}

func TestBootstrap_RegistersSharedServices(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "newsclaw.yaml"), "version: \"1\"\n")

	rt, err := Bootstrap(RunParams{ConfigPath: path, DataDir: dir})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if rt.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", rt.ConfigPath, path)
	}
	if rt.App.Context().DataDir != dir {
		t.Errorf("DataDir = %q, want %q", rt.App.Context().DataDir, dir)
	}
	for _, name := range []string{"security.redactor", "config.path"} {
		if _, ok := rt.App.Context().Service(name); !ok {
			t.Errorf("service %q not registered", name)
		}
	}
	if err := rt.LoadModules("kvstore"); err != nil {
		t.Fatalf("LoadModules: %v", err)
	}
	if n := len(rt.App.Modules()); n != 0 {
		t.Errorf("loaded %d modules, want 0", n)
	}
}
