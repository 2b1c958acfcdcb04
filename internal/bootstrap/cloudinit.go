// Package bootstrap generates the cloud-config document every new spuff
// instance boots with: the managed SSH user, the spuff-agent systemd
// unit, the idle-shutdown cron job, and interactive-shell setup. Grounded
// on original_source/src/environment/cloud_init.rs.
package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"spuff/internal/config"
	"spuff/internal/sshcore"
)

// templateData is the context handed to cloudInitTemplate, mirroring the
// Tera context built in generate_cloud_init.
type templateData struct {
	Username          string
	HomeDir           string
	SSHPublicKey      string
	SpuffPublicKey    string
	Environment       string
	Dotfiles          string
	IdleTimeoutSeconds int64
	TailscaleEnabled  bool
	TailscaleAuthkey  string
	AgentToken        string
	HasProjectConfig  bool
	ProjectConfigJSON string
}

var tmpl = template.Must(
	template.New("cloud-init").Funcs(sprig.TxtFuncMap()).Funcs(template.FuncMap{
		"jsonOrNull": jsonOrNull,
	}).Parse(cloudInitTemplate),
)

// jsonOrNull renders an empty string as the literal `null`, matching the
// Tera template's `{% if x %}"{{ x }}"{% else %}null{% endif %}` idiom for
// AppConfig's optional string fields.
func jsonOrNull(s string) string {
	if s == "" {
		return "null"
	}
	data, _ := json.Marshal(s)
	return string(data)
}

// Generate renders the cloud-config document for a new instance. proj may
// be nil when the instance isn't associated with a declared project.
func Generate(cfg config.AppConfig, proj *config.ProjectConfig) (string, error) {
	sshPublicKey, err := readSSHPublicKey(cfg.SSHKeyPath)
	if err != nil {
		return "", err
	}

	spuffPublicKey, _ := sshcore.ManagedPublicKey()

	homeDir := "/home/" + cfg.SSHUser
	if cfg.SSHUser == "root" {
		homeDir = "/root"
	}

	data := templateData{
		Username:           cfg.SSHUser,
		HomeDir:            homeDir,
		SSHPublicKey:       sshPublicKey,
		SpuffPublicKey:     spuffPublicKey,
		Environment:        cfg.Environment,
		Dotfiles:           cfg.Dotfiles,
		IdleTimeoutSeconds: int64(cfg.ParseIdleTimeout().Seconds()),
		TailscaleEnabled:   cfg.TailscaleEnabled,
		TailscaleAuthkey:   cfg.TailscaleAuthkey,
		AgentToken:         cfg.AgentToken,
	}

	if proj != nil {
		projectJSON, err := json.MarshalIndent(proj, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to serialize project config: %w", err)
		}
		data.HasProjectConfig = true
		data.ProjectConfigJSON = string(projectJSON)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render cloud-init template: %w", err)
	}
	return buf.String(), nil
}

func readSSHPublicKey(privateKeyPath string) (string, error) {
	publicKeyPath := privateKeyPath + ".pub"
	data, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return "", fmt.Errorf("failed to read SSH public key %q: %w (make sure the key exists)", publicKeyPath, err)
	}
	return string(bytes.TrimSpace(data)), nil
}
