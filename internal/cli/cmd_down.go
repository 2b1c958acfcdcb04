package cli

import (
	"context"
	"flag"

	"spuff/internal/cliutil"
	"spuff/internal/pipeline"
	"spuff/internal/provider"
)

// cmdDown runs the teardown pipeline. Grounded on down.rs's execute() flags.
func cmdDown(args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)

	fs := flag.NewFlagSet("down", flag.ExitOnError)
	snapshot := fs.Bool("snapshot", false, "snapshot the instance before destroying it")
	force := fs.Bool("force", false, "skip the confirmation prompt")
	fs.BoolVar(force, "f", false, "skip the confirmation prompt (shorthand)")
	_ = fs.Parse(args)

	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer ctx.Store.Close()

	instance, err := requireActiveInstance(ctx)
	if err != nil {
		cliutil.Fatal(err)
	}

	if !*force {
		confirmed, ok := cliutil.ConfirmYN(
			"Destroy "+instance.Name+" ("+instance.IP+")?", false)
		if !ok || !confirmed {
			cliutil.Infof("Cancelled.")
			return
		}
	}

	proj, err := currentProjectConfig()
	if err != nil {
		cliutil.Fatal(err)
	}

	deps := pipeline.TeardownDeps{
		AppConfig:     ctx.AppConfig,
		ProjectConfig: proj,
		Registry:      ctx.Registry,
		Store:         ctx.Store,
		Volumes:       ctx.Volumes,
		ActionTimeout: provider.DefaultTimeouts(),
	}
	opts := pipeline.TeardownOptions{CreateSnapshot: *snapshot}

	name, ip, err := renderProgress(pipeline.Teardown(context.Background(), deps, opts))
	if err != nil {
		cliutil.Fatal(err)
	}

	cliutil.PrintResult("Environment destroyed", map[string]interface{}{
		"name": name,
		"ip":   ip,
	}, jsonOut)
}
