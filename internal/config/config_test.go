package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestFlagNames(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		KeyServerAddress:       "address",
		KeyServerDecayLifespan: "decay-lifespan",
		KeyServerDebugEnabled:  "debug-enabled",
		KeyDemoItems:           "items",
	}
	for key, want := range cases {
		if got := flag(key); got != want {
			t.Errorf("flag(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	conf, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := conf.ServerAddress(); got != ":8080" {
		t.Errorf("ServerAddress = %q", got)
	}
	if got := conf.ServerDecayLifespan(); got != 30*time.Second {
		t.Errorf("ServerDecayLifespan = %s", got)
	}
	if got := conf.ServerDecaySteps(); got != 0 {
		t.Errorf("ServerDecaySteps = %d", got)
	}
	if got := conf.DemoLifespan(); got != 3*time.Second {
		t.Errorf("DemoLifespan = %s", got)
	}
	if got := conf.DemoSteps(); got != 3 {
		t.Errorf("DemoSteps = %d", got)
	}
	if got := conf.DemoItems(); got != 5 {
		t.Errorf("DemoItems = %d", got)
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("DECAYING_SERVER_DECAY_STEPS", "12")
	t.Setenv("DECAYING_DEMO_LIFESPAN", "750ms")

	conf, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := conf.ServerDecaySteps(); got != 12 {
		t.Errorf("ServerDecaySteps = %d, want 12", got)
	}
	if got := conf.DemoLifespan(); got != 750*time.Millisecond {
		t.Errorf("DemoLifespan = %s, want 750ms", got)
	}
}

func TestBindFlags_FlagWins(t *testing.T) {
	conf, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := conf.BindFlags(fs, ServerOptions); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := fs.Parse([]string{"--address=127.0.0.1:9999", "--decay-lifespan=2m", "--debug-enabled"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := conf.ServerAddress(); got != "127.0.0.1:9999" {
		t.Errorf("ServerAddress = %q", got)
	}
	if got := conf.ServerDecayLifespan(); got != 2*time.Minute {
		t.Errorf("ServerDecayLifespan = %s", got)
	}
	if !conf.ServerDebugEnabled() {
		t.Error("ServerDebugEnabled = false, want true")
	}
}

func TestBindFlags_UnsupportedType(t *testing.T) {
	t.Parallel()

	conf, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err = conf.BindFlags(fs, []ConfigOption{{Key: "x.y", Flag: "y", Default: 1.5}})
	if err == nil {
		t.Fatal("expected error for float default")
	}
}
