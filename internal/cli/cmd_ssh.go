package cli

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"spuff/internal/cliutil"
	"spuff/internal/config"
	"spuff/internal/sshcore"
)

const banner = `
╔═══════════════════════════════╗
║  s p u f f                    ║
║  ephemeral dev env            ║
╚═══════════════════════════════╝
`

func printBanner() {
	fmt.Println(cliutil.StyleInfo(banner))
}

func printTunnelInfo(ports []int) {
	if len(ports) == 0 {
		return
	}
	fmt.Println("  " + cliutil.StyleDim("SSH Tunnels (from spuff.yaml)"))
	for _, port := range ports {
		fmt.Printf("  localhost:%d -> vm:%d\n", port, port)
	}
	fmt.Println()
}

func projectPorts() []int {
	proj, err := currentProjectConfig()
	if err != nil || proj == nil {
		return nil
	}
	return proj.Ports
}

// cmdSSH opens an interactive shell to the active instance, forwarding any
// ports spuff.yaml declares for the session's lifetime. Grounded on
// ssh.rs's execute().
func cmdSSH(args []string) {
	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	defer ctx.Store.Close()

	instance, err := requireActiveInstance(ctx)
	if err != nil {
		cliutil.Fatal(err)
	}

	printBanner()
	fmt.Printf("  -> %s (%s)\n\n", cliutil.StyleCmd(instance.Name), cliutil.StyleDim(instance.IP))

	client, err := sshcore.Connect(instance.IP, 22, sshConfigFor(ctx.AppConfig))
	if err != nil {
		cliutil.Fatal(err)
	}
	defer client.Close()

	ports := projectPorts()
	if len(ports) > 0 {
		printTunnelInfo(ports)
		forwards, err := client.ForwardPorts(ports)
		if err != nil {
			cliutil.Warnf("tunnel setup failed: %v", err)
		} else {
			for _, f := range forwards {
				defer f.Stop()
			}
		}
	}

	if err := client.Shell(); err != nil {
		cliutil.Fatal(err)
	}
}

// tunnelChildEnvVar marks a re-exec'd spuff process as the detached tunnel
// worker, rather than the user-facing `spuff tunnel` invocation.
const tunnelChildEnvVar = "SPUFF_TUNNEL_CHILD"

func tunnelPIDPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tunnel.pid"), nil
}

// cmdTunnel forwards project ports in the background. Since sshcore.Client
// is an in-process library client rather than a wrapper around the system
// ssh binary (unlike the original's `ssh -N -L ...` subprocess), spuff
// backgrounds itself: it re-execs its own binary with a hidden env marker,
// detaches it (new session, closed stdio), and records the child's PID —
// `--stop` simply signals that PID.
func cmdTunnel(args []string) {
	fs := flag.NewFlagSet("tunnel", flag.ExitOnError)
	port := fs.Int("port", 0, "forward only this port")
	fs.IntVar(port, "p", 0, "forward only this port (shorthand)")
	stop := fs.Bool("stop", false, "stop the background tunnel")
	_ = fs.Parse(args)

	if *stop {
		stopTunnel()
		return
	}

	if os.Getenv(tunnelChildEnvVar) == "1" {
		runTunnelChild(*port)
		return
	}

	ctx, err := loadContext()
	if err != nil {
		cliutil.Fatal(err)
	}
	instance, err := requireActiveInstance(ctx)
	ctx.Store.Close()
	if err != nil {
		cliutil.Fatal(err)
	}

	var ports []int
	if *port != 0 {
		ports = []int{*port}
	} else {
		ports = projectPorts()
		if len(ports) == 0 {
			cliutil.Fatal(fmt.Errorf("no ports configured in spuff.yaml. Use --port to specify one"))
		}
	}

	printBanner()
	fmt.Printf("  -> Creating tunnels to %s (%s)\n\n", cliutil.StyleCmd(instance.Name), cliutil.StyleDim(instance.IP))
	printTunnelInfo(ports)

	portArgs := make([]string, len(ports))
	for i, p := range ports {
		portArgs[i] = strconv.Itoa(p)
	}

	exe, err := os.Executable()
	if err != nil {
		cliutil.Fatal(err)
	}
	cmd := exec.Command(exe, append([]string{"tunnel", "--port", portArgs[0]}, flattenExtraPorts(portArgs)...)...)
	cmd.Env = append(os.Environ(), tunnelChildEnvVar+"=1", "SPUFF_TUNNEL_PORTS="+strings.Join(portArgs, ","))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		cliutil.Fatal(fmt.Errorf("failed to start background tunnel: %w", err))
	}

	pidPath, err := tunnelPIDPath()
	if err != nil {
		cliutil.Fatal(err)
	}
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(cmd.Process.Pid)), 0o600); err != nil {
		cliutil.Fatal(err)
	}

	cliutil.Successf("Tunnels running in background (PID: %d)", cmd.Process.Pid)
	fmt.Println()
	fmt.Printf("  Stop: %s\n", cliutil.StyleCmd("spuff tunnel --stop"))
}

// flattenExtraPorts is unused beyond the first port in the re-exec'd
// argv (the child reads the full set from SPUFF_TUNNEL_PORTS instead);
// it exists only so the child's argv is self-describing in `ps`.
func flattenExtraPorts(ports []string) []string {
	if len(ports) <= 1 {
		return nil
	}
	return ports[1:]
}

func runTunnelChild(_ int) {
	ctx, err := loadContext()
	if err != nil {
		os.Exit(1)
	}
	instance, err := requireActiveInstance(ctx)
	ctx.Store.Close()
	if err != nil {
		os.Exit(1)
	}

	var ports []int
	for _, s := range strings.Split(os.Getenv("SPUFF_TUNNEL_PORTS"), ",") {
		if s == "" {
			continue
		}
		if p, err := strconv.Atoi(s); err == nil {
			ports = append(ports, p)
		}
	}
	if len(ports) == 0 {
		os.Exit(1)
	}

	client, err := sshcore.Connect(instance.IP, 22, sshConfigFor(ctx.AppConfig))
	if err != nil {
		os.Exit(1)
	}
	defer client.Close()

	if _, err := client.ForwardPorts(ports); err != nil {
		os.Exit(1)
	}

	select {}
}

func stopTunnel() {
	pidPath, err := tunnelPIDPath()
	if err != nil {
		cliutil.Fatal(err)
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		cliutil.Infof("No active tunnels found.")
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err == nil && pid > 0 {
		if proc, err := os.FindProcess(pid); err == nil {
			_ = proc.Signal(syscall.SIGTERM)
		}
		cliutil.Successf("Stopped tunnel process (PID: %d)", pid)
	}
	_ = os.Remove(pidPath)
}
