package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlags(t *testing.T) {
	var level string
	var series []string
	var interval string
	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().StringVar(&level, "log-level", "info", "")
	cmd.Flags().StringSliceVar(&series, "series", []string{"cup"}, "")
	cmd.Flags().StringVar(&interval, "interval", "5s", "")
	require.NoError(t, cmd.Flags().Set("interval", "2s"))

	t.Setenv("GF_LOG_LEVEL", "debug")
	v := viper.New()
	v.Set("series", []any{"trucks", "xfinity"})
	v.Set("interval", "10s")

	bindFlags(cmd, v)
	assert.Equal(t, "debug", level)
	assert.Equal(t, []string{"trucks", "xfinity"}, series)
	assert.Equal(t, "2s", interval, "explicit flags win over config values")
}

func TestCommandsRegistered(t *testing.T) {
	names := []string{}
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"watch", "schedule", "snapshot"})
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("nats-url"))
}
