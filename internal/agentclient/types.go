package agentclient

// AgentStatus is the response shape of the agent's GET /status endpoint.
// Reconstructed from its field usage in
// original_source/src/cli/commands/agent/status.rs, since the Rust type
// that originally defined it isn't present in this port's source tree.
type AgentStatus struct {
	AgentVersion    string `json:"agent_version"`
	Hostname        string `json:"hostname"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	IdleSeconds     int64  `json:"idle_seconds"`
	CloudInitDone   bool   `json:"cloud_init_done"`
	BootstrapStatus string `json:"bootstrap_status"`
}

// LoadAvg is the one/five/fifteen minute load average embedded in
// AgentMetrics.
type LoadAvg struct {
	One     float64 `json:"one"`
	Five    float64 `json:"five"`
	Fifteen float64 `json:"fifteen"`
}

// AgentMetrics is the response shape of the agent's GET /metrics endpoint.
// Reconstructed the same way as AgentStatus.
type AgentMetrics struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	CPUs          int     `json:"cpus"`
	CPUUsage      float64 `json:"cpu_usage"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskUsed      uint64  `json:"disk_used"`
	DiskTotal     uint64  `json:"disk_total"`
	DiskPercent   float64 `json:"disk_percent"`
	LoadAvg       LoadAvg `json:"load_avg"`
}

// ActivityEntry is one record in the agent's in-memory activity log: every
// command the agent itself executed, in the order it executed them.
type ActivityEntry struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Details   *string `json:"details"`
}

// ActivityLogResponse is the response shape of the agent's GET /activity
// endpoint.
type ActivityLogResponse struct {
	Entries []ActivityEntry `json:"entries"`
}

// ExecLogEntry is one record in the agent's persistent exec log, which
// survives agent restarts (unlike ActivityEntry).
type ExecLogEntry struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Details   string  `json:"details"`
	Stdout    *string `json:"stdout"`
	Stderr    *string `json:"stderr"`
}

// ExecLogResponse is the response shape of the agent's GET /exec-log
// endpoint.
type ExecLogResponse struct {
	Entries []ExecLogEntry `json:"entries"`
	Count   int            `json:"count"`
}

// ProcessInfo is one entry in the agent's GET /processes response: the top
// processes on the box ranked by CPU usage.
type ProcessInfo struct {
	PID      int32   `json:"pid"`
	Name     string  `json:"name"`
	CPUUsage float64 `json:"cpu_usage"`
	Memory   uint64  `json:"memory"`
}

// ExecResponse is the response shape of the agent's POST /exec endpoint.
type ExecResponse struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMs uint64 `json:"duration_ms"`
}

// LogEntry is one line of a whitelisted on-box log file.
type LogEntry struct {
	Line string `json:"line"`
}

// LogsResponse is the response shape of the agent's GET /logs endpoint.
type LogsResponse struct {
	File  string   `json:"file"`
	Lines []string `json:"lines"`
}

// DevToolEntry is one AI coding tool's install progress, as tracked by the
// agent's devtools install loop.
type DevToolEntry struct {
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Error  *string `json:"error,omitempty"`
}

const (
	DevToolPending    = "pending"
	DevToolInstalling = "installing"
	DevToolDone       = "done"
	DevToolFailed     = "failed"
	DevToolSkipped    = "skipped"
)

// DevToolsState is the response shape of the agent's GET /devtools
// endpoint.
type DevToolsState struct {
	Started   bool           `json:"started"`
	Completed bool           `json:"completed"`
	Tools     []DevToolEntry `json:"tools"`
}
