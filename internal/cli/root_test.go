package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "roast", cmd.Use)
	assert.Contains(t, cmd.Long, "luminosity")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"import", "normalize", "cutflow", "export", "inspect"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "", formatFlag.DefValue, "format defaults to the config value")

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestNormalizeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	normCmd, _, err := cmd.Find([]string{"normalize"})
	require.NoError(t, err)

	lumiFlag := normCmd.Flags().Lookup("lumi")
	require.NotNil(t, lumiFlag)
	assert.Equal(t, "l", lumiFlag.Shorthand)
	assert.Equal(t, "0", lumiFlag.DefValue)
}

func TestCutFlowCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	cfCmd, _, err := cmd.Find([]string{"cutflow"})
	require.NoError(t, err)

	normFlag := cfCmd.Flags().Lookup("normalized")
	require.NotNil(t, normFlag)
	assert.Equal(t, "n", normFlag.Shorthand)
	assert.Equal(t, "false", normFlag.DefValue)
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
	assert.Equal(t, []string{"true"}, outputFlag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestValidFormats(t *testing.T) {
	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("text"))
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
}

func TestSelectRecords(t *testing.T) {
	set := process.NewSet(
		process.NewRecord(process.Metadata{ShortName: "ttbar"}, process.Counters{}),
		process.NewRecord(process.Metadata{ShortName: "tth"}, process.Counters{}),
	)

	all, err := selectRecords(set, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	picked, err := selectRecords(set, []string{"tth", "ttbar"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "tth", picked[0].ShortName)

	_, err = selectRecords(set, []string{"wjets"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, ErrorKind(err))
}
