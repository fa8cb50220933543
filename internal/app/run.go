package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/buildweld/fetchgraph/internal/ctxlog"
	"github.com/buildweld/fetchgraph/internal/fetch"
	"github.com/buildweld/fetchgraph/internal/hclcfg"
	"github.com/buildweld/fetchgraph/internal/job"
	"github.com/buildweld/fetchgraph/internal/manifest"
	"github.com/buildweld/fetchgraph/internal/routes"
)

// Run compiles the configured job batch into task records and emits
// them as JSON. Every job is attempted: a failing job never aborts its
// siblings, and all failures come back together at the end.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	raws, err := a.loader.LoadJobs(ctx, cfg.JobsPath)
	if err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}

	var manifests []manifest.Manifest
	if cfg.ManifestsPath != "" {
		source := hclcfg.NewManifestFiles(a.loader, cfg.ManifestsPath)
		manifests, err = source.Manifests(ctx)
		if err != nil {
			return fmt.Errorf("failed to load manifests: %w", err)
		}
	}

	jobs := expandAll(raws, manifests)
	a.logger.Debug("Job set ready.", "declared", len(raws), "total", len(jobs))

	params := fetch.Params{Level: cfg.Level, Kind: cfg.Kind, Fast: cfg.Fast}
	routeParams := routes.Params{
		TrustDomain: cfg.TrustDomain,
		Project:     cfg.Project,
		Level:       cfg.Level,
		BuildDate:   cfg.BuildDate,
	}
	compiler := fetch.NewCompiler(a.keys)
	assembler := fetch.NewAssembler(a.opt)

	tasks := make([]*fetch.TaskRecord, 0, len(jobs))
	var failures []error

	for _, raw := range jobs {
		d, err := job.Validate(raw)
		if err != nil {
			a.logger.Error("Job failed validation.", "job", raw.Name, "source", raw.Source, "error", err)
			failures = append(failures, err)
			continue
		}

		cmd, err := compiler.Compile(d)
		if err != nil {
			a.logger.Error("Job failed to compile.", "job", d.Name, "error", err)
			failures = append(failures, fmt.Errorf("job %q: %w", d.Name, err))
			continue
		}

		task := assembler.Assemble(d, cmd, params)
		task.Routes = routes.SigningIndexes(routeParams, d.ManifestName)
		tasks = append(tasks, task)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d jobs failed: %w", len(failures), len(jobs), errors.Join(failures...))
	}

	if err := a.emit(tasks, cfg.OutPath); err != nil {
		return fmt.Errorf("failed to emit tasks: %w", err)
	}

	a.logger.Info("Task batch emitted.", "tasks", len(tasks), "cache_entries", len(a.opt.Registrations()))
	return nil
}

// expandAll fans template jobs out over the manifest sequence. Jobs
// carrying a literal url bypass expansion entirely.
func expandAll(raws []*job.RawJob, manifests []manifest.Manifest) []*job.RawJob {
	var out []*job.RawJob
	for _, raw := range raws {
		if raw.HasURL() || len(manifests) == 0 {
			out = append(out, raw)
			continue
		}
		out = append(out, manifest.Expand(raw, manifests)...)
	}
	return out
}

func (a *App) emit(tasks []*fetch.TaskRecord, outPath string) error {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if outPath == "" {
		_, err = a.outW.Write(data)
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
