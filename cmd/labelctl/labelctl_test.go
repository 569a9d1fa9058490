package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labelbridge/backend/internal/domain/label"
	"github.com/labelbridge/backend/internal/infrastructure/auth"
	"github.com/labelbridge/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFooter(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    *label.FooterConfig
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"blank", "  ", nil, false},
		{"all", "product,title,date", &label.FooterConfig{IncludeProductNumber: true, IncludeTitle: true, IncludeDate: true}, false},
		{"spaces and case", " Date , product ", &label.FooterConfig{IncludeProductNumber: true, IncludeDate: true}, false},
		{"unknown field", "title,weight", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFooter(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "6ba7b811-9dad-11d1-80b4-00c04fd430c8"})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = parseIDs([]string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "nope"})
	assert.ErrorContains(t, err, `invalid id "nope"`)
}

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"prepare", "profiles", "print", "printers", "jobs", "migrate", "cleanup", "token"}, names)

	jobs, _, err := root.Find([]string{"jobs", "retry"})
	require.NoError(t, err)
	assert.Equal(t, "retry", jobs.Name())
	assert.NotNil(t, jobs.Flags().Lookup("printer"))
}

func TestTokenCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	secret := strings.Repeat("k", 32)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[auth]
secret = "`+secret+`"
issuer = "labelbridge"
`), 0o600))

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--config", cfgPath, "token", "packing-station-1", "--ttl", "1h"})

	require.NoError(t, root.ExecuteContext(t.Context()))

	token := strings.TrimSpace(stdout.String())
	claims, err := auth.NewJWTService(config.AuthConfig{Secret: secret, Issuer: "labelbridge"}).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "packing-station-1", claims.Subject)
	assert.Contains(t, stderr.String(), "expires")
}

func TestPrepareCmd_RejectsBadInput(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[database]\ndriver = \"sqlite\"\npath = \":memory:\"\n"), 0o600))

	for _, args := range [][]string{
		{"prepare", "not-a-uuid"},
		{"prepare", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "--footer", "weight"},
	} {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"--config", cfgPath}, args...))
		assert.Error(t, root.ExecuteContext(t.Context()), strings.Join(args, " "))
	}
}
