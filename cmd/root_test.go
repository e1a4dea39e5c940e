package cmd

import (
	"bytes"
	"testing"

	"gamenight/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"serve", "migrate", "consolidate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	consolidate, _, err := root.Find([]string{"consolidate"})
	require.NoError(t, err)
	assert.NotNil(t, consolidate.Flags().Lookup("dry-run"))
}

func TestMigrateDown_RejectsBadSteps(t *testing.T) {
	for _, arg := range []string{"abc", "0", "-2"} {
		_, err := executeCommand(t, "migrate", "down", "--", arg)
		require.Error(t, err, arg)
		assert.Contains(t, err.Error(), "invalid step count")
	}
}

func TestSetupLogging_RejectsUnknownLevel(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.LogLevel = "loud"
	assert.Error(t, setupLogging(cfg))

	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"
	assert.NoError(t, setupLogging(cfg))
}

func TestSubjectIDPrefix(t *testing.T) {
	tests := []struct {
		name   string
		cfgAny bool
		flags  map[string]string
		want   string
	}{
		{name: "config prefix by default", want: "user_"},
		{name: "config any id", cfgAny: true, want: ""},
		{name: "flag prefix", flags: map[string]string{subjectPrefixFlag: "usr_"}, want: "usr_"},
		{name: "explicit empty flag prefix", flags: map[string]string{subjectPrefixFlag: ""}, want: ""},
		{name: "any id flag", flags: map[string]string{anyIDFlag: "true"}, want: ""},
		{name: "flag overrides config any id", cfgAny: true, flags: map[string]string{anyIDFlag: "false"}, want: "user_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewTestConfig()
			cfg.SubjectIDAny = tt.cfgAny

			cmd := newConsolidateCmd()
			for name, value := range tt.flags {
				require.NoError(t, cmd.Flags().Set(name, value))
			}

			prefix := subjectIDPrefix(cmd, cfg)
			require.NotNil(t, prefix)
			assert.Equal(t, tt.want, *prefix)
		})
	}
}
