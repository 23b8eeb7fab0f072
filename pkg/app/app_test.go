package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	cliflag "k8s.io/component-base/cli/flag"
)

type testOptions struct {
	Drive struct {
		Speed int           `mapstructure:"speed"`
		Hold  time.Duration `mapstructure:"hold"`
	} `mapstructure:"drive"`
	Name string `mapstructure:"name"`

	validateErr error
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("drive")
	fs.IntVar(&o.Drive.Speed, "drive.speed", 750, "")
	fs.DurationVar(&o.Drive.Hold, "drive.hold", 800*time.Millisecond, "")
	fss.FlagSet("misc").StringVar(&o.Name, "name", "car", "")
	return fss
}

func (o *testOptions) Complete() error { return nil }
func (o *testOptions) Validate() error { return o.validateErr }

func TestEnvPrefix(t *testing.T) {
	for in, want := range map[string]string{
		"bcicar-agent": "BCICAR",
		"bcicarctl":    "BCICARCTL",
	} {
		if got := envPrefix(in); got != want {
			t.Errorf("envPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "agent.yaml")
	if err := os.WriteFile(cfg, []byte("drive:\n  speed: 600\n  hold: 1s\nname: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := &testOptions{}
	ran := false
	a := NewApp("bcicar-test", "test",
		WithOptions(opts),
		WithRunFunc(func() error { ran = true; return nil }),
	)
	a.Command().SetArgs([]string{"--config", cfg, "--name", "from-flag"})
	if err := a.Command().Execute(); err != nil {
		t.Fatal(err)
	}

	if !ran {
		t.Fatal("run func not called")
	}
	if opts.Drive.Speed != 600 || opts.Drive.Hold != time.Second {
		t.Errorf("file values not applied: %+v", opts.Drive)
	}
	if opts.Name != "from-flag" {
		t.Errorf("flag did not override file: %q", opts.Name)
	}
}

func TestValidateStopsRun(t *testing.T) {
	opts := &testOptions{validateErr: errors.New("bad speed")}
	a := NewApp("bcicar-test", "test",
		WithOptions(opts),
		WithNoConfig(),
		WithRunFunc(func() error { t.Fatal("run func called with invalid options"); return nil }),
	)
	a.Command().SetArgs([]string{})
	if err := a.Command().Execute(); err == nil || err.Error() != "bad speed" {
		t.Fatalf("Execute() = %v, want validation error", err)
	}
}

func TestDefaultValidArgs(t *testing.T) {
	a := NewApp("bcicar-test", "test",
		WithOptions(&testOptions{}),
		WithDefaultValidArgs(),
		WithRunFunc(func() error { return nil }),
	)
	a.Command().SetArgs([]string{"extra"})
	if err := a.Command().Execute(); err == nil {
		t.Fatal("positional argument accepted")
	}
}
