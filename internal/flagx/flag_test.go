package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "postgres://db", "-x", "1"},
			allowed: []string{"-d"},
			want:    []string{"-d", "postgres://db"},
		},
		{
			name:    "equals form",
			args:    []string{"-a=:9090", "-x", "1"},
			allowed: []string{"-a"},
			want:    []string{"-a=:9090"},
		},
		{
			name:    "order preserved across forms",
			args:    []string{"-a=:1", "-d", "dsn", "-z"},
			allowed: []string{"-a", "-d"},
			want:    []string{"-a=:1", "-d", "dsn"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-a"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-s"},
			allowed: []string{"-s"},
			want:    []string{"-s"},
		},
		{
			name:    "next argument is a flag",
			args:    []string{"-s", "-t", "5"},
			allowed: []string{"-s"},
			want:    []string{"-s"},
		},
		{
			name:    "equals value that looks like a flag",
			args:    []string{"-s=--weird"},
			allowed: []string{"-s"},
			want:    []string{"-s=--weird"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFilePath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "none", args: []string{"-a", ":8080"}, want: ""},
		{name: "short", args: []string{"-c", "cfg.json"}, want: "cfg.json"},
		{name: "long", args: []string{"-config", "cfg.json"}, want: "cfg.json"},
		{name: "long equals", args: []string{"--config=other.json", "-d", "x"}, want: "other.json"},
		{name: "mixed with other flags", args: []string{"-a", ":1", "-c", "c.json", "-r", "60"}, want: "c.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFilePath(tt.args))
		})
	}
}
