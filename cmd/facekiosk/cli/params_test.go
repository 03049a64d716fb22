// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Category string        `flag:"category" desc:"record category"`
		Force    bool          `flag:"force,f" desc:"overwrite existing files"`
		Port     int           `flag:"port" desc:"listen port"`
		Delay    time.Duration `flag:"delay" desc:"browser delay"`
		Groups   []string      `flag:"groups" desc:"model groups"`
		Untagged string        // no flag tag, should be skipped
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"--category", "attendance",
		"-f",
		"--port", "9000",
		"--delay", "5s",
		"--groups", "tiny_face_detector,face_recognition",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Category != "attendance" {
		t.Errorf("Category = %q, want %q", p.Category, "attendance")
	}
	if !p.Force {
		t.Error("Force = false, want true")
	}
	if p.Port != 9000 {
		t.Errorf("Port = %d, want 9000", p.Port)
	}
	if p.Delay != 5*time.Second {
		t.Errorf("Delay = %v, want 5s", p.Delay)
	}
	if len(p.Groups) != 2 || p.Groups[0] != "tiny_face_detector" {
		t.Errorf("Groups = %v, want the two parsed groups", p.Groups)
	}
	if p.Untagged != "" {
		t.Errorf("Untagged = %q, want empty (should be skipped)", p.Untagged)
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Host  string        `flag:"host" desc:"server host" default:"localhost"`
		Port  int           `flag:"port" desc:"server port" default:"8000"`
		Delay time.Duration `flag:"delay" desc:"delay" default:"2s"`
		Open  bool          `flag:"open" desc:"open browser" default:"true"`
		Tags  []string      `flag:"tags" desc:"tags" default:"x,y"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Host != "localhost" {
		t.Errorf("Host = %q, want %q", p.Host, "localhost")
	}
	if p.Port != 8000 {
		t.Errorf("Port = %d, want 8000", p.Port)
	}
	if p.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", p.Delay)
	}
	if !p.Open {
		t.Error("Open = false, want default true")
	}
	if len(p.Tags) != 2 || p.Tags[0] != "x" || p.Tags[1] != "y" {
		t.Errorf("Tags = %v, want [x y]", p.Tags)
	}
}

func TestBindFlags_EmbeddedJSONOutput(t *testing.T) {
	type params struct {
		JSONOutput
		Category string `flag:"category" desc:"record category"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--json", "--category", "punch-in"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !p.OutputJSON {
		t.Error("OutputJSON = false, want true after --json")
	}
	if p.Category != "punch-in" {
		t.Errorf("Category = %q, want %q", p.Category, "punch-in")
	}
}

func TestBindFlags_FlagBinder(t *testing.T) {
	type params struct {
		ConfigFlag
		Force bool `flag:"force" desc:"force"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--config", "/tmp/facekiosk.yaml"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.ConfigFlag.Path != "/tmp/facekiosk.yaml" {
		t.Errorf("ConfigFlag.Path = %q, want the parsed path", p.ConfigFlag.Path)
	}
}

func TestBindFlags_UnsupportedType(t *testing.T) {
	type params struct {
		Rate float64 `flag:"rate" desc:"unsupported"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := BindFlags(&p, flagSet)
	if err == nil {
		t.Fatal("BindFlags() = nil, want error for unsupported field type")
	}
	if !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("error = %q, want 'unsupported type'", err.Error())
	}
}

func TestBindFlags_RejectsNonPointer(t *testing.T) {
	type params struct {
		Name string `flag:"name"`
	}

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(params{}, flagSet); err == nil {
		t.Fatal("BindFlags(non-pointer) = nil, want error")
	}
}

func TestBindFlags_BadDefault(t *testing.T) {
	type params struct {
		Port int `flag:"port" default:"not-a-number"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := BindFlags(&p, flagSet)
	if err == nil {
		t.Fatal("BindFlags() = nil, want error for unparseable default")
	}
	if !strings.Contains(err.Error(), "default for --port") {
		t.Errorf("error = %q, want context naming the flag", err.Error())
	}
}

func TestFlagsFromParams(t *testing.T) {
	type params struct {
		Keep int `flag:"keep" desc:"backups to retain" default:"2"`
	}

	var p params
	flagSet := FlagsFromParams("backup", &p)
	if err := flagSet.Parse([]string{"--keep", "5"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Keep != 5 {
		t.Errorf("Keep = %d, want 5", p.Keep)
	}
}

func TestEmitJSON_NotRequested(t *testing.T) {
	var output JSONOutput
	done, err := output.EmitJSON([]string{"a"})
	if done {
		t.Error("EmitJSON() done = true without --json")
	}
	if err != nil {
		t.Errorf("EmitJSON() error: %v", err)
	}
}
