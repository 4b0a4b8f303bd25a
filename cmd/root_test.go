package main

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saferoute/internal/crime"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "load", "stats", "types", "route", "export", "analyze", "incidents"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "saferoute", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRouteCommand_Flags(t *testing.T) {
	for _, name := range []string{"from", "to", "period", "category", "hours", "format"} {
		assert.NotNil(t, routeCmd.Flags().Lookup(name), "route should have --%s flag", name)
	}
	assert.Equal(t, "all", routeCmd.Flags().Lookup("category").DefValue)
	assert.Equal(t, "table", routeCmd.Flags().Lookup("format").DefValue)
}

func TestAnalyzeCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range analyzeCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["region"])
	assert.True(t, names["route"])
	assert.NotNil(t, analyzeRouteCmd.Flags().Lookup("from"))
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "csv", flag.DefValue)
	assert.NotNil(t, exportCmd.Flags().Lookup("output"))
}

func TestLoadCommand_Flags(t *testing.T) {
	flag := loadCmd.Flags().Lookup("strict")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestFilterFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{statsCmd, incidentsCmd} {
		for _, name := range []string{"start", "end", "type", "region"} {
			assert.NotNil(t, cmd.Flags().Lookup(name), "%s should have --%s flag", cmd.Name(), name)
		}
	}
	assert.NotNil(t, incidentsCmd.Flags().Lookup("output"))
}

func TestFilterFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd)
	require.NoError(t, cmd.Flags().Set("start", "2023-06-01"))
	require.NoError(t, cmd.Flags().Set("type", "Theft, mischief"))
	require.NoError(t, cmd.Flags().Set("region", "Kits"))

	f, err := filterFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), f.Start)
	assert.True(t, f.End.IsZero())
	assert.Equal(t, []string{"theft", "mischief"}, f.Types)
	assert.Equal(t, "kits", f.Region)

	require.NoError(t, cmd.Flags().Set("end", "2023-05-01"))
	_, err = filterFromFlags(cmd)
	require.Error(t, err)
	assert.True(t, eris.Is(err, crime.ErrInvalidFilter))
}
