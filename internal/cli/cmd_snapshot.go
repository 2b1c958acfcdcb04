package cli

import (
	"context"
	"flag"
	"fmt"

	"spuff/internal/cliutil"
	"spuff/internal/provider"
)

// cmdSnapshot dispatches the three snapshot operations the provider
// interface exposes (spec.md's "snapshot {create|list|delete}" table entry).
func cmdSnapshot(args []string) {
	if len(args) == 0 {
		cliutil.Fatal(fmt.Errorf("usage: spuff snapshot {create|list|delete} [args]"))
	}
	sub, rest := args[0], args[1:]

	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer ctx.Store.Close()

	bgCtx := context.Background()
	prov, err := resolveProvider(ctx, bgCtx)
	if err != nil {
		cliutil.Fatal(err)
	}

	switch sub {
	case "create":
		cmdSnapshotCreate(ctx, bgCtx, prov, rest)
	case "list":
		cmdSnapshotList(bgCtx, prov, rest)
	case "delete":
		cmdSnapshotDelete(bgCtx, prov, rest)
	default:
		cliutil.PrintUnknown("snapshot", sub)
	}
}

func resolveProvider(ctx *appContext, bgCtx context.Context) (provider.Provider, error) {
	return ctx.Registry.CreateByName(bgCtx, ctx.AppConfig.Provider, ctx.AppConfig.APIToken, provider.DefaultTimeouts())
}

func cmdSnapshotCreate(ctx *appContext, bgCtx context.Context, prov provider.Provider, args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	fs := flag.NewFlagSet("snapshot create", flag.ExitOnError)
	name := fs.String("name", "", "snapshot name (defaults to the instance name + timestamp)")
	_ = fs.Parse(args)

	instance, err := requireActiveInstance(ctx)
	if err != nil {
		cliutil.Fatal(err)
	}

	snapName := *name
	if snapName == "" {
		snapName = instance.Name + "-snapshot"
	}

	snap, err := prov.CreateSnapshot(bgCtx, instance.ID, snapName)
	if err != nil {
		cliutil.Fatal(err)
	}

	fields := map[string]interface{}{"id": snap.ID, "name": snap.Name}
	if snap.SizeGB != nil {
		fields["size_gb"] = *snap.SizeGB
	}
	cliutil.PrintResult("Snapshot created", fields, jsonOut)
}

func cmdSnapshotList(bgCtx context.Context, prov provider.Provider, args []string) {
	_, jsonOut := cliutil.ParseJSONFlag(args)

	snaps, err := prov.ListSnapshots(bgCtx)
	if err != nil {
		cliutil.Fatal(err)
	}

	if jsonOut {
		cliutil.PrintResult("Snapshots", map[string]interface{}{"snapshots": snaps}, true)
		return
	}
	if len(snaps) == 0 {
		cliutil.Infof("No snapshots found.")
		return
	}
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		created := ""
		if s.CreatedAt != nil {
			created = s.CreatedAt.Format("2006-01-02 15:04")
		}
		size := ""
		if s.SizeGB != nil {
			size = fmt.Sprintf("%.1f GB", *s.SizeGB)
		}
		rows = append(rows, []string{s.ID, s.Name, created, size})
	}
	cliutil.PrintTable([]string{"id", "name", "created", "size"}, rows, 2)
}

func cmdSnapshotDelete(bgCtx context.Context, prov provider.Provider, args []string) {
	args, jsonOut := cliutil.ParseJSONFlag(args)
	if len(args) == 0 {
		cliutil.Fatal(fmt.Errorf("usage: spuff snapshot delete <id>"))
	}
	id := args[0]

	if err := prov.DeleteSnapshot(bgCtx, id); err != nil {
		cliutil.Fatal(err)
	}
	cliutil.PrintResult("Snapshot deleted", map[string]interface{}{"id": id}, jsonOut)
}
