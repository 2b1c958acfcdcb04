package cli

import (
	"context"
	"fmt"

	"spuff/internal/cliutil"
	"spuff/internal/volume"
)

// cmdVolume dispatches volume subcommands: list, status, mount, unmount,
// remount. Grounded on volume/mod.rs's CLI surface and spec.md §4.5.
func cmdVolume(args []string) {
	if len(args) == 0 {
		cliutil.Fatal(fmt.Errorf("usage: spuff volume {list|status|mount|unmount|remount} [args]"))
	}
	sub, rest := args[0], args[1:]

	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer ctx.Store.Close()

	switch sub {
	case "list":
		cmdVolumeList(ctx, rest)
	case "status":
		cmdVolumeStatus(ctx, rest)
	case "mount":
		cmdVolumeMount(ctx, rest)
	case "unmount":
		cmdVolumeUnmount(ctx, rest)
	case "remount":
		cmdVolumeRemount(ctx, rest)
	default:
		cliutil.PrintUnknown("volume", sub)
	}
}

func cmdVolumeList(ctx *appContext, args []string) {
	_, jsonOut := cliutil.ParseJSONFlag(args)
	mounts := ctx.Volumes.GetMounts()
	if jsonOut {
		cliutil.PrintResult("Volumes", map[string]interface{}{"mounts": mounts}, true)
		return
	}
	if len(mounts) == 0 {
		cliutil.Infof("No tracked volume mounts.")
		return
	}
	rows := make([][]string, 0, len(mounts))
	for _, m := range mounts {
		rows = append(rows, []string{m.Target, m.MountPoint, m.Driver, fmt.Sprintf("%t", m.ReadOnly)})
	}
	cliutil.PrintTable([]string{"remote", "local", "driver", "ro"}, rows, 2)
}

func cmdVolumeStatus(ctx *appContext, args []string) {
	_, jsonOut := cliutil.ParseJSONFlag(args)
	statuses := ctx.Volumes.StatusAll(context.Background())
	if jsonOut {
		cliutil.PrintResult("Volume status", map[string]interface{}{"status": statuses}, true)
		return
	}
	if len(statuses) == 0 {
		cliutil.Infof("No tracked volume mounts.")
		return
	}
	rows := make([][]string, 0, len(statuses))
	for path, s := range statuses {
		state := "not mounted"
		switch {
		case s.Mounted && s.Healthy:
			state = cliutil.StyleSuccess("healthy")
		case s.Mounted:
			state = cliutil.StyleError("unhealthy: " + s.Error)
		}
		rows = append(rows, []string{path, state})
	}
	cliutil.PrintTable([]string{"mount point", "status"}, rows, 2)
}

func cmdVolumeMount(ctx *appContext, args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	if len(args) == 0 {
		cliutil.Fatal(fmt.Errorf("usage: spuff volume mount <remote_path:local_mount[:ro]>"))
	}

	cfg, err := volume.ParseSpec(args[0])
	if err != nil {
		cliutil.Fatal(err)
	}

	instance, err := requireActiveInstance(ctx)
	if err != nil {
		cliutil.Fatal(err)
	}

	handle, err := ctx.Volumes.Mount(context.Background(), cfg, instance.Name, instance.IP, ctx.AppConfig.SSHUser, ctx.AppConfig.SSHKeyPath, 0)
	if err != nil {
		cliutil.Fatal(err)
	}
	cliutil.PrintResult("Mounted", map[string]interface{}{
		"remote": handle.Target,
		"local":  handle.MountPoint,
	}, jsonOut)
}

func cmdVolumeUnmount(ctx *appContext, args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	if len(args) == 0 {
		for _, err := range ctx.Volumes.UnmountAll(context.Background()) {
			cliutil.Warnf("%v", err)
		}
		cliutil.PrintResult("Unmounted all volumes", nil, jsonOut)
		return
	}
	if err := ctx.Volumes.Unmount(context.Background(), args[0]); err != nil {
		cliutil.Fatal(err)
	}
	cliutil.PrintResult("Unmounted", map[string]interface{}{"path": args[0]}, jsonOut)
}

func cmdVolumeRemount(ctx *appContext, args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	if len(args) == 0 {
		cliutil.Fatal(fmt.Errorf("usage: spuff volume remount <mount point>"))
	}
	path := args[0]

	var target volume.MountHandle
	found := false
	for _, h := range ctx.Volumes.GetMounts() {
		if h.MountPoint == path || h.Target == path {
			target, found = h, true
			break
		}
	}
	if !found {
		cliutil.Fatal(fmt.Errorf("no tracked volume mount for %q", path))
	}

	cfg := volume.NewConfig(target.Source, target.Target)
	cfg.MountPoint = target.MountPoint
	cfg.ReadOnly = target.ReadOnly

	driverType, err := volume.ParseType(target.Driver)
	if err != nil {
		driverType = volume.TypeSSHFS
	}
	cfg.DriverType = driverType

	driver, err := ctx.Volumes.GetDriver(driverType)
	if err != nil {
		cliutil.Fatal(err)
	}
	if err := volume.Remount(context.Background(), driver, cfg, target, ctx.AppConfig.SSHKeyPath); err != nil {
		cliutil.Fatal(err)
	}
	cliutil.PrintResult("Remounted", map[string]interface{}{"path": path}, jsonOut)
}
