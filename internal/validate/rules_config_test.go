package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRulesFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    RulesConfig
		wantErr bool
	}{
		{
			name:    "full config",
			content: "policy: lenient\noverload_threshold: 5\n",
			want:    RulesConfig{Policy: PolicyLenient, OverloadThreshold: 5},
		},
		{
			name:    "omitted fields keep defaults",
			content: "policy: strict\n",
			want:    RulesConfig{Policy: PolicyStrict, OverloadThreshold: DefaultOverloadThreshold},
		},
		{
			name:    "empty file keeps defaults",
			content: "",
			want:    DefaultRulesConfig(),
		},
		{
			name:    "unknown policy rejected",
			content: "policy: aggressive\n",
			wantErr: true,
		},
		{
			name:    "non-positive threshold falls back to default",
			content: "overload_threshold: 0\n",
			want:    RulesConfig{Policy: PolicyStrict, OverloadThreshold: DefaultOverloadThreshold},
		},
		{
			name:    "malformed yaml",
			content: "policy: [not\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadRulesFile(writeRules(t, tt.content))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoadRulesFileMissing(t *testing.T) {
	_, err := LoadRulesFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestRulesConfigOptions(t *testing.T) {
	cfg := RulesConfig{Policy: PolicyLenient, OverloadThreshold: 4}
	e := New(cfg.Options()...)
	assert.Equal(t, PolicyLenient, e.policy)
	assert.Equal(t, 4, e.threshold)
}
