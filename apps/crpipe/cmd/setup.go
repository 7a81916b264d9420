package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/astrokit/crpipe/pkg/artifact"
	"github.com/astrokit/crpipe/pkg/clog"
	"github.com/astrokit/crpipe/pkg/config"
	"github.com/astrokit/crpipe/pkg/host"
	"github.com/astrokit/crpipe/pkg/kv"
	"github.com/astrokit/crpipe/pkg/params"
	"github.com/astrokit/crpipe/pkg/pipeline"
	"github.com/astrokit/crpipe/pkg/tool"
)

// buildRunner assembles the pipeline from file config and environment.
// The returned closer releases the lock backend's connection.
func buildRunner(cfg *config.Config) (*pipeline.Runner, func(), error) {
	env, err := config.ValidateEnv()
	if err != nil {
		return nil, nil, err
	}

	log := clog.NewDefault()
	if verbose {
		log = clog.NewVerbose()
	}

	tools := tool.NewRegistry()
	if err := cfg.ApplyToolOverrides(tools); err != nil {
		return nil, nil, err
	}

	var locks kv.Store
	switch cfg.Lock.Backend {
	case "", "memory":
		locks = kv.NewMemoryStore()
	case "valkey":
		locks, err = kv.NewValkeyStore(kv.ValkeyConfig{
			Addr:     cfg.Lock.Addr,
			Password: cfg.Lock.Password,
			DB:       cfg.Lock.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to valkey lock backend: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}

	var diag artifact.Store
	if cfg.Diagnostics.Enabled {
		diag, err = newDiagnosticsStore(cfg, env)
		if err != nil {
			locks.Close()
			return nil, nil, err
		}
		// Fail loudly here rather than losing every upload to a missing
		// bucket later, when failures are only warnings.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := diag.EnsureBucket(ctx); err != nil {
			locks.Close()
			return nil, nil, fmt.Errorf("ensuring diagnostics bucket %s: %w", cfg.Diagnostics.Bucket, err)
		}
	}

	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = env.Python
	}

	r := &pipeline.Runner{
		Workspace:   host.NewWorkspace(),
		Tools:       tools,
		Presets:     params.NewPresetStore(cfg.PresetsDir),
		Locks:       locks,
		Diagnostics: diag,
		ToolsDir:    cfg.ToolsDir,
		Interpreter: interpreter,
		TempDir:     cfg.TempDir,
		Timeout:     time.Duration(cfg.TimeoutMs) * time.Millisecond,
		Log:         log,
	}

	closer := func() {
		if err := locks.Close(); err != nil {
			log.Warn("failed to close lock backend", "error", err)
		}
	}
	return r, closer, nil
}

// newDiagnosticsStore builds the S3 client for the configured archive.
// Credentials come from the config file or, when absent there, the
// environment.
func newDiagnosticsStore(cfg *config.Config, env *config.EnvConfig) (artifact.Store, error) {
	accessKey := cfg.Diagnostics.AccessKey
	secretKey := cfg.Diagnostics.SecretKey
	if accessKey == "" {
		accessKey, secretKey = env.S3AccessKey, env.S3SecretKey
	}
	store, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Diagnostics.Endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    cfg.Diagnostics.Bucket,
		Region:    cfg.Diagnostics.Region,
		UseSSL:    cfg.Diagnostics.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to diagnostics store: %w", err)
	}
	return store, nil
}
