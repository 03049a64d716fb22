// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package doctor implements 'facekiosk doctor': checking a kiosk
// deployment end-to-end and repairing what it safely can.
package doctor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli/doctor"
	"github.com/facekiosk/facekiosk/lib/certgen"
	"github.com/facekiosk/facekiosk/lib/config"
	"github.com/facekiosk/facekiosk/lib/launchguard"
	"github.com/facekiosk/facekiosk/lib/modelpack"
	"github.com/facekiosk/facekiosk/lib/netutil"
	"github.com/facekiosk/facekiosk/lib/recordstore"
	"github.com/facekiosk/facekiosk/lib/secret"
	"github.com/facekiosk/facekiosk/lib/webapp"
)

// certExpiryWindow is how close to NotAfter the certificate check
// starts warning.
const certExpiryWindow = 30 * 24 * time.Hour

// commandParams holds the parameters for the doctor command.
type commandParams struct {
	cli.JSONOutput
	cli.ConfigFlag
	Fix    bool `flag:"fix" desc:"repair fixable problems"`
	DryRun bool `flag:"dry-run" desc:"show what --fix would repair without applying it"`
}

// Command returns the "facekiosk doctor" command for diagnosing a
// kiosk deployment.
func Command() *cli.Command {
	var params commandParams

	return &cli.Command{
		Name:    "doctor",
		Summary: "Diagnose the kiosk deployment end-to-end",
		Description: `Check everything a working kiosk needs: configuration, the python
runtime for the double-click launcher, web root files, record and
backup directories, a bindable server port, the TLS certificate,
model weights, and the backup encryption key. Requires no flags and
changes nothing unless --fix is given.

This is the "I'm lost" command. Missing directories, a missing or
broken certificate, and missing model weights are repairable; run
with --fix to repair them, or --dry-run to see what --fix would do.`,
		Usage: "facekiosk doctor [flags]",
		Examples: []cli.Example{
			{
				Description: "Check kiosk health",
				Command:     "facekiosk doctor",
			},
			{
				Description: "Repair what can be repaired",
				Command:     "facekiosk doctor --fix",
			},
			{
				Description: "Preview repairs without applying them",
				Command:     "facekiosk doctor --dry-run",
			},
			{
				Description: "Machine-readable output",
				Command:     "facekiosk doctor --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("doctor", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runDoctor(ctx, params, logger)
		},
	}
}

// checkState accumulates discovered state across checks so later
// checks can use results from earlier ones without repeating work.
type checkState struct {
	// cfg is set once the configuration loads and validates. Checks
	// that need it skip themselves while it is nil.
	cfg *config.Config

	// recordsReady and backupsReady record that the respective
	// directory exists and is a writable directory. The record file
	// check opens the store only when both are set, because opening
	// the store creates missing directories as a side effect and
	// doctor must not repair anything without --fix.
	recordsReady bool
	backupsReady bool
}

func runDoctor(ctx context.Context, params commandParams, logger *slog.Logger) error {
	var state checkState
	var results []doctor.Result

	// Section 1: Configuration.
	results = append(results, checkConfiguration(&state, params.Path)...)

	// Section 2: Launcher prerequisites.
	results = append(results, checkRuntime(ctx, &state)...)

	// Section 3: Web root.
	results = append(results, checkWebRoot(&state)...)

	// Section 4: Data directories.
	results = append(results, checkDataDirectories(&state)...)

	// Section 5: Record files.
	results = append(results, checkRecordFiles(&state, logger)...)

	// Section 6: Server port.
	results = append(results, checkPort(&state)...)

	// Section 7: TLS certificate.
	results = append(results, checkCertificate(&state)...)

	// Section 8: Model weights.
	results = append(results, checkModels(&state, logger)...)

	// Section 9: Backup encryption.
	results = append(results, checkBackupKey(&state)...)

	outcome := doctor.Outcome{}
	if params.Fix || params.DryRun {
		outcome = doctor.ExecuteFixes(ctx, results, params.DryRun)
	}

	if done, err := params.EmitJSON(doctor.BuildJSON(results, params.DryRun, outcome)); done {
		if err != nil {
			return err
		}
		for _, result := range results {
			if result.Status == doctor.StatusFail {
				return &cli.ExitError{Code: 1}
			}
		}
		return nil
	}

	return doctor.PrintChecklist(results, params.Fix, params.DryRun, outcome)
}

// --- Section 1: Configuration ---

func checkConfiguration(state *checkState, path string) []doctor.Result {
	var cfg *config.Config
	source := "built-in defaults"

	if path == "" {
		cfg = config.Default()
		cfg.Finalize()
	} else {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return []doctor.Result{doctor.Fail("configuration",
				fmt.Sprintf("cannot load %s: %v", path, err))}
		}
		cfg = loaded
		source = path
	}

	if err := cfg.Validate(); err != nil {
		return []doctor.Result{doctor.Fail("configuration",
			fmt.Sprintf("%s: %v", source, err))}
	}

	state.cfg = cfg
	return []doctor.Result{doctor.Pass("configuration",
		fmt.Sprintf("%s (root: %s)", source, cfg.Paths.Root))}
}

// --- Section 2: Launcher prerequisites ---

func checkRuntime(ctx context.Context, state *checkState) []doctor.Result {
	if state.cfg == nil {
		return []doctor.Result{
			doctor.Skip("python runtime", "skipped: configuration not loaded"),
			doctor.Skip("launcher entry", "skipped: configuration not loaded"),
		}
	}
	cfg := state.cfg

	var results []doctor.Result

	runtimePath, err := launchguard.PathLocator().Resolve(ctx, cfg.Launch.Runtime)
	if err != nil {
		results = append(results, doctor.Fail("python runtime",
			fmt.Sprintf("%v. Install it from %s", err, cfg.Launch.RuntimeURL)))
	} else {
		results = append(results, doctor.Pass("python runtime", runtimePath))
	}

	// The guard resolves a relative entry against its own executable
	// directory; doctor approximates that with the kiosk root.
	entry := cfg.Launch.Entry
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(cfg.Paths.Root, entry)
	}
	if _, err := os.Stat(entry); err != nil {
		results = append(results, doctor.Warn("launcher entry",
			fmt.Sprintf("%s not found. The double-click launcher needs it; 'facekiosk serve' does not", entry)))
	} else {
		results = append(results, doctor.Pass("launcher entry", entry))
	}

	return results
}

// --- Section 3: Web root ---

func checkWebRoot(state *checkState) []doctor.Result {
	if state.cfg == nil {
		return []doctor.Result{doctor.Skip("web root", "skipped: configuration not loaded")}
	}
	webRoot := state.cfg.Paths.Web

	if err := webapp.CheckWebRoot(webRoot); err != nil {
		return []doctor.Result{doctor.Fail("web root", err.Error())}
	}
	return []doctor.Result{doctor.Pass("web root", webRoot)}
}

// --- Section 4: Data directories ---

func checkDataDirectories(state *checkState) []doctor.Result {
	if state.cfg == nil {
		return []doctor.Result{
			doctor.Skip("records directory", "skipped: configuration not loaded"),
			doctor.Skip("backups directory", "skipped: configuration not loaded"),
		}
	}
	return []doctor.Result{
		checkDirectory("records directory", state.cfg.Paths.Records, &state.recordsReady),
		checkDirectory("backups directory", state.cfg.Paths.Backups, &state.backupsReady),
	}
}

func checkDirectory(name, dir string, ready *bool) doctor.Result {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return doctor.FailWithFix(name, fmt.Sprintf("%s does not exist", dir),
			fmt.Sprintf("create %s", dir),
			func(ctx context.Context) error {
				return os.MkdirAll(dir, 0o755)
			})
	}
	if err != nil {
		return doctor.Fail(name, fmt.Sprintf("cannot stat %s: %v", dir, err))
	}
	if !info.IsDir() {
		return doctor.Fail(name, fmt.Sprintf("%s exists but is not a directory", dir))
	}

	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return doctor.Fail(name, fmt.Sprintf("%s is not writable: %v", dir, err))
	}
	probe.Close()
	os.Remove(probe.Name())

	*ready = true
	return doctor.Pass(name, dir)
}

// --- Section 5: Record files ---

func checkRecordFiles(state *checkState, logger *slog.Logger) []doctor.Result {
	if state.cfg == nil || !state.recordsReady || !state.backupsReady {
		return []doctor.Result{doctor.Skip("record files",
			"skipped: records or backups directory not ready")}
	}
	cfg := state.cfg

	// No sealer: this check only reads category files, never backups,
	// and must work even when the backup key is missing.
	store, err := recordstore.Open(recordstore.Options{
		RecordsDir:  cfg.Paths.Records,
		BackupsDir:  cfg.Paths.Backups,
		Keep:        cfg.Backup.Keep,
		Compression: cfg.Backup.Compression,
		Logger:      logger,
	})
	if err != nil {
		return []doctor.Result{doctor.Fail("record files",
			fmt.Sprintf("cannot open store: %v", err))}
	}
	defer store.Close()

	var total, categories int
	var corrupt []string
	for _, status := range store.Status() {
		if !status.Exists {
			continue
		}
		if status.Count < 0 {
			corrupt = append(corrupt, string(status.Category))
			continue
		}
		categories++
		total += status.Count
	}

	if len(corrupt) > 0 {
		return []doctor.Result{doctor.Fail("record files",
			fmt.Sprintf("%d corrupt file(s): %v. Restore from a backup with 'facekiosk records import' or inspect with 'facekiosk records backup'", len(corrupt), corrupt))}
	}
	if categories == 0 {
		return []doctor.Result{doctor.Pass("record files", "no records saved yet")}
	}
	return []doctor.Result{doctor.Pass("record files",
		fmt.Sprintf("%d record(s) in %d category file(s)", total, categories))}
}

// --- Section 6: Server port ---

func checkPort(state *checkState) []doctor.Result {
	if state.cfg == nil {
		return []doctor.Result{doctor.Skip("server port", "skipped: configuration not loaded")}
	}
	cfg := state.cfg

	port, err := netutil.FindAvailablePort(cfg.Server.Bind, cfg.Server.Port, cfg.Server.ProbeSpan)
	if err != nil {
		return []doctor.Result{doctor.Fail("server port", err.Error())}
	}
	if port != cfg.Server.Port {
		return []doctor.Result{doctor.Warn("server port",
			fmt.Sprintf("%d is busy; serve would use %d", cfg.Server.Port, port))}
	}
	return []doctor.Result{doctor.Pass("server port",
		fmt.Sprintf("%d available on %s", port, cfg.Server.Bind))}
}

// --- Section 7: TLS certificate ---

func checkCertificate(state *checkState) []doctor.Result {
	if state.cfg == nil {
		return []doctor.Result{doctor.Skip("tls certificate", "skipped: configuration not loaded")}
	}
	cfg := state.cfg
	certPath, keyPath := cfg.Paths.Certificate, cfg.Paths.Key

	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	generate := func(overwrite bool) doctor.FixAction {
		return func(ctx context.Context) error {
			_, err := certgen.Generate(certgen.Options{
				CertPath:  certPath,
				KeyPath:   keyPath,
				Overwrite: overwrite,
			})
			return err
		}
	}

	switch {
	case certErr != nil && keyErr != nil:
		if loopbackBind(cfg.Server.Bind) {
			return []doctor.Result{doctor.Warn("tls certificate",
				"not generated; kiosk serves plain HTTP (the camera works on localhost only)")}
		}
		return []doctor.Result{doctor.FailWithFix("tls certificate",
			fmt.Sprintf("not generated and the server binds %s; browsers block the camera on insecure origins", cfg.Server.Bind),
			"generate a self-signed certificate",
			generate(false))}
	case certErr != nil || keyErr != nil:
		return []doctor.Result{doctor.FailWithFix("tls certificate",
			"certificate and key are out of step (one of the two files is missing)",
			"regenerate the keypair",
			generate(true))}
	}

	info, err := certgen.Inspect(certPath)
	if err != nil {
		return []doctor.Result{doctor.Fail("tls certificate",
			fmt.Sprintf("cannot parse %s: %v", certPath, err))}
	}
	now := time.Now()
	if info.NotAfter.Before(now) {
		return []doctor.Result{doctor.FailWithFix("tls certificate",
			fmt.Sprintf("expired %s", info.NotAfter.Format("2006-01-02")),
			"regenerate the keypair",
			generate(true))}
	}
	if info.ExpiresWithin(now, certExpiryWindow) {
		return []doctor.Result{doctor.Warn("tls certificate",
			fmt.Sprintf("expires %s (within 30 days). Regenerate with 'facekiosk cert --force'", info.NotAfter.Format("2006-01-02")))}
	}
	return []doctor.Result{doctor.Pass("tls certificate",
		fmt.Sprintf("valid until %s", info.NotAfter.Format("2006-01-02")))}
}

// loopbackBind reports whether the configured bind address only
// accepts local connections.
func loopbackBind(bind string) bool {
	if bind == "localhost" {
		return true
	}
	ip := net.ParseIP(bind)
	return ip != nil && ip.IsLoopback()
}

// --- Section 8: Model weights ---

func checkModels(state *checkState, logger *slog.Logger) []doctor.Result {
	if state.cfg == nil {
		return []doctor.Result{doctor.Skip("model weights", "skipped: configuration not loaded")}
	}
	cfg := state.cfg

	manifest, err := modelpack.Load(cfg.Models.Manifest)
	if err != nil {
		return []doctor.Result{doctor.Fail("model weights",
			fmt.Sprintf("manifest: %v", err))}
	}
	pack, err := modelpack.New(modelpack.Options{
		BaseURL:   cfg.Models.BaseURL,
		ModelsDir: cfg.Paths.Models,
		Manifest:  manifest,
		Logger:    logger,
	})
	if err != nil {
		return []doctor.Result{doctor.Fail("model weights",
			fmt.Sprintf("opening model pack: %v", err))}
	}

	statuses, err := pack.Verify()
	if err != nil {
		return []doctor.Result{doctor.Fail("model weights",
			fmt.Sprintf("verifying: %v", err))}
	}

	required, optional := modelpack.Problems(statuses)
	switch {
	case len(required) > 0:
		return []doctor.Result{doctor.FailWithFix("model weights",
			fmt.Sprintf("%d required file(s) missing or modified", len(required)),
			"download model weights from upstream",
			func(ctx context.Context) error {
				return pack.FetchAll(ctx, false)
			})}
	case len(optional) > 0:
		return []doctor.Result{doctor.Warn("model weights",
			fmt.Sprintf("required files verified; %d optional file(s) have problems", len(optional)))}
	default:
		return []doctor.Result{doctor.Pass("model weights",
			fmt.Sprintf("%d file(s) verified", len(statuses)))}
	}
}

// --- Section 9: Backup encryption ---

func checkBackupKey(state *checkState) []doctor.Result {
	if state.cfg == nil {
		return []doctor.Result{doctor.Skip("backup key", "skipped: configuration not loaded")}
	}
	cfg := state.cfg

	if !cfg.Backup.Encrypt {
		return []doctor.Result{doctor.Skip("backup key", "skipped: backup encryption disabled")}
	}

	key, err := secret.ReadKeyHex(cfg.Backup.KeyFile, recordstore.KeySize)
	if err != nil {
		return []doctor.Result{doctor.Fail("backup key", err.Error())}
	}
	key.Close()
	return []doctor.Result{doctor.Pass("backup key",
		fmt.Sprintf("%d-byte key at %s", recordstore.KeySize, cfg.Backup.KeyFile))}
}
