package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/ActiveState/termchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ConfigureSettings_Validate(t *testing.T) {
	tests := []struct {
		name         string
		settings     ConfigureSettings
		wantMissing  []string
		wantProblems int
		wantMsg      string
	}{
		{
			"Valid",
			ConfigureSettings{AccessKeyID: "AKIA", SecretAccessKey: "secret", Region: "us-west-2"},
			nil,
			0,
			"",
		},
		{
			"Everything missing",
			ConfigureSettings{},
			[]string{"accessKeyId", "secretAccessKey", "region"},
			0,
			"mandatory params accessKeyId secretAccessKey region are missing",
		},
		{
			"Secret missing",
			ConfigureSettings{AccessKeyID: "AKIA", Region: "us-east-1"},
			[]string{"secretAccessKey"},
			0,
			"mandatory params secretAccessKey are missing",
		},
		{
			"Blank values count as missing",
			ConfigureSettings{AccessKeyID: "  ", SecretAccessKey: "secret", Region: "us-east-1"},
			[]string{"accessKeyId"},
			0,
			"mandatory params accessKeyId are missing",
		},
		{
			"Unknown region",
			ConfigureSettings{AccessKeyID: "AKIA", SecretAccessKey: "secret", Region: "mars-north-1"},
			nil,
			1,
			`"mars-north-1" is not one of`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			require.ErrorIs(t, err, ErrConfig)
			assert.Equal(t, tt.wantMissing, cerr.Missing)
			assert.Len(t, cerr.Problems, tt.wantProblems)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func Test_ConfigureSettings_WithDefaults(t *testing.T) {
	s := ConfigureSettings{AccessKeyID: "AKIA", SecretAccessKey: "secret"}.WithDefaults()
	assert.Equal(t, "amplify-integ-test-user", s.ProfileName)
	assert.Equal(t, "us-east-2", s.Region)
	require.NoError(t, s.Validate())

	s = ConfigureSettings{ProfileName: "mine", Region: "eu-west-1"}.WithDefaults()
	assert.Equal(t, "mine", s.ProfileName)
	assert.Equal(t, "eu-west-1", s.Region)
}

func Test_ProjectSettings_Validate(t *testing.T) {
	require.NoError(t, ProjectSettings{Dir: t.TempDir()}.Validate())

	err := ProjectSettings{}.Validate()
	require.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, "mandatory params dir are missing", err.Error())
}

func Test_Configure_InvalidSettingsDoNotLaunch(t *testing.T) {
	err := Configure(context.Background(), unresolvable, ConfigureSettings{AccessKeyID: "AKIA"})

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"secretAccessKey"}, cerr.Missing, "region is defaulted")
	assert.False(t, errors.Is(err, termchain.ErrSpawn), "nothing was launched")

	err = ConfigureProject(context.Background(), unresolvable, ProjectSettings{})
	require.ErrorIs(t, err, ErrConfig)
	assert.False(t, errors.Is(err, termchain.ErrSpawn), "nothing was launched")
}
