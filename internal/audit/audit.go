// Package audit logs CLI command invocations with the resolved configuration
// so operators can see which backends, paths and keys were in effect.
//
// Secrets are logged as presence or absence only, never their values.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// auditEntry is one env var included in the audit record.
type auditEntry struct {
	key    string
	secret bool
}

// auditKeys is the ordered list of env vars in every audit record.
var auditKeys = []auditEntry{
	{"MODEL_PROVIDER", false},
	{"GEMINI_MODEL", false},
	{"GOOGLE_API_KEY", true},
	{"GEMINI_API_KEY", true},
	{"OPENAI_MODEL", false},
	{"OPENAI_BASE_URL", false},
	{"OPENAI_API_KEY", true},
	{"AZURE_OPENAI_ENDPOINT", false},
	{"AZURE_OPENAI_DEPLOYMENT", false},
	{"AZURE_OPENAI_API_KEY", true},
	{"OLLAMA_HOST", false},
	{"OLLAMA_MODEL", false},
	{"ARK_MODEL", false},
	{"ARK_API_KEY", true},
	{"MODEL_TEMPERATURE", false},
	{"EMBEDDING_PROVIDER", false},
	{"EMBEDDING_MODEL", false},
	{"EMBEDDING_DIMENSIONS", false},
	{"EMBEDDING_API_KEY", true},
	{"CHUNKS_PATH", false},
	{"CHUNKS_CACHE", false},
	{"RETRIEVAL_TOP_K", false},
	{"POLICYAI_API_KEY", true},
	{"POLICYAI_HISTORY_DB", false},
	{"LOG_LEVEL", false},
	{"LOG_FORMAT", false},
	{"LANGFUSE_PUBLIC_KEY", true},
	{"LANGFUSE_SECRET_KEY", true},
}

// secretEnvKeys is derived from auditKeys.
var secretEnvKeys = func() map[string]bool {
	m := make(map[string]bool)
	for _, e := range auditKeys {
		if e.secret {
			m[e.key] = true
		}
	}
	return m
}()

// LogCommandStart emits one audit record when a CLI command begins.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := make([]slog.Attr, 0, len(auditKeys)+2)
	attrs = append(attrs,
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	)
	for _, entry := range auditKeys {
		attrs = append(attrs, slog.String(entry.key, SanitiseKey(entry.key, os.Getenv(entry.key))))
	}
	log.LogAttrs(context.Background(), slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns "set" or "unset" for secret keys and the value (or
// "unset") for everything else. Keys ending in _API_KEY or _SECRET_KEY are
// always treated as secrets.
func SanitiseKey(key, value string) string {
	if secretEnvKeys[key] || strings.HasSuffix(key, "_API_KEY") || strings.HasSuffix(key, "_SECRET_KEY") {
		return presence(value)
	}
	return valOrUnset(value)
}

func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// sanitiseConfigPath returns p with the home directory shortened to "~", or
// "none" when empty.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
