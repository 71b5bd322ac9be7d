package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/pesh/pkg/cliconfig"
	"github.com/getmockd/pesh/pkg/interp"
)

// syncBuffer is a bytes.Buffer safe for the logger and the loop to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// isolate points every per-user location at temporary directories.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, env := range []string{
		cliconfig.EnvAddress, cliconfig.EnvRefresh, cliconfig.EnvGraphite,
		cliconfig.EnvLogLevel, cliconfig.EnvLogFormat, cliconfig.EnvLogFile, cliconfig.EnvLogSource,
		cliconfig.EnvHistoryFile, cliconfig.EnvNoHistory, cliconfig.EnvConfig,
	} {
		t.Setenv(env, "")
	}
	t.Chdir(t.TempDir())
}

func testConfig() *cliconfig.CLIConfig {
	cfg := cliconfig.NewDefault()
	cfg.Address = "127.0.0.1:0"
	cfg.Refresh = 10 * time.Millisecond
	cfg.NoHistory = true
	return cfg
}

func runSession(t *testing.T, cfg *cliconfig.CLIConfig, input string) (stdout, stderr string) {
	t.Helper()
	var out, errOut syncBuffer
	err := Run(context.Background(), cfg, Streams{
		In:  strings.NewReader(input),
		Out: &out,
		Err: &errOut,
	})
	require.NoError(t, err)
	return out.String(), errOut.String()
}

func TestRun_Session(t *testing.T) {
	isolate(t)

	stdout, stderr := runSession(t, testConfig(), strings.Join([]string{
		`set temp[room="kitchen"] = 21.5`,
		`get temp[room="kitchen"]`,
		``,
		`sett temp = 1`,
		`get humidity`,
		`help`,
		`exit`,
		`get afterexit`,
	}, "\n")+"\n")

	assert.Contains(t, stdout, "21.5\n")
	assert.Contains(t, stdout, "Commands:")
	assert.Contains(t, stderr, "failed to parse")
	assert.Contains(t, stderr, "metric not found")
	assert.NotContains(t, stderr, "afterexit")
}

func TestRun_EndOfInput(t *testing.T) {
	isolate(t)

	stdout, stderr := runSession(t, testConfig(), "set x = 1\nget x")
	assert.Equal(t, "1\n", stdout)
	assert.Empty(t, stderr)
}

func TestRun_BindFailure(t *testing.T) {
	isolate(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Address = ln.Addr().String()
	err = Run(context.Background(), cfg, Streams{
		In:  strings.NewReader("help\n"),
		Out: &bytes.Buffer{},
		Err: &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot bind")
}

func TestRun_BindFailureKeepsHistory(t *testing.T) {
	isolate(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Address = ln.Addr().String()
	cfg.NoHistory = false
	cfg.HistoryFile = filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(cfg.HistoryFile, []byte("set a = 1\nget a\n"), 0o600))

	err = Run(context.Background(), cfg, Streams{
		In:  strings.NewReader("help\n"),
		Out: &bytes.Buffer{},
		Err: &bytes.Buffer{},
	})
	require.Error(t, err)

	data, err := os.ReadFile(cfg.HistoryFile)
	require.NoError(t, err)
	assert.Equal(t, "set a = 1\nget a\n", string(data))
}

func TestRun_SavesHistory(t *testing.T) {
	isolate(t)

	cfg := testConfig()
	cfg.NoHistory = false
	cfg.HistoryFile = filepath.Join(t.TempDir(), "history")

	runSession(t, cfg, "set a = 1\n get secret\nquit\n")

	data, err := os.ReadFile(cfg.HistoryFile)
	require.NoError(t, err)
	assert.Equal(t, "set a = 1\nquit\n", string(data))
}

func TestRun_DefaultHistoryLocation(t *testing.T) {
	isolate(t)

	cfg := testConfig()
	cfg.NoHistory = false
	runSession(t, cfg, "help\n")

	cache, err := os.UserCacheDir()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cache, "pesh", "history"))
}

func TestRun_LogFile(t *testing.T) {
	isolate(t)

	cfg := testConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "pesh.log")
	runSession(t, cfg, "get missing\n")

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.SplitN(data, []byte("\n"), 2)[0], &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "get missing", record["line"])
}

func TestRun_LogSource(t *testing.T) {
	isolate(t)

	cfg := testConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "pesh.log")
	cfg.LogSource = true
	runSession(t, cfg, "get missing\n")

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.SplitN(data, []byte("\n"), 2)[0], &record))
	assert.Contains(t, record, "source")
}

func TestRun_CancelledContext(t *testing.T) {
	isolate(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The reader never gets an answer; the loop must still return.
	r, w := net.Pipe()
	defer r.Close()
	defer w.Close()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig(), Streams{In: r, Out: &syncBuffer{}, Err: &syncBuffer{}})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// executeCommand runs the root command with args after resetting every flag
// left over from earlier runs.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	var walk func(*cobra.Command)
	walk = func(c *cobra.Command) {
		reset(c.Flags())
		reset(c.PersistentFlags())
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_RunsShell(t *testing.T) {
	isolate(t)

	out, err := executeCommand(t, "set x = 4\nget x\n", "-a", "127.0.0.1:0", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, "4\n")
}

func TestRootCommand_InvalidAddress(t *testing.T) {
	isolate(t)

	_, err := executeCommand(t, "", "--address", "nonsense", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not host:port")
}

func TestRootCommand_FlagOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv(cliconfig.EnvAddress, "nonsense")

	_, err := executeCommand(t, "", "--no-history")
	require.Error(t, err, "env address is used without a flag")

	_, err = executeCommand(t, "", "-a", "127.0.0.1:0", "--no-history")
	assert.NoError(t, err)
}

func TestRootCommand_LongHelpListsCommands(t *testing.T) {
	assert.Contains(t, rootCmd.Long, interp.HelpText())
	assert.Contains(t, rootCmd.Long, "set <metric> = <value>")
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	isolate(t)

	_, err := executeCommand(t, "", "extra")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pesh "), out)

	out, err = executeCommand(t, "", "version", "--json")
	require.NoError(t, err)
	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotEmpty(t, v.Go)
	assert.NotEmpty(t, v.Version)
}

func TestInitCommand(t *testing.T) {
	isolate(t)

	out, err := executeCommand(t, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created .peshrc.yaml")

	cfg, err := cliconfig.LoadConfigFile(".peshrc.yaml")
	require.NoError(t, err)
	assert.Equal(t, cliconfig.DefaultAddress, cfg.Address)
	assert.Equal(t, cliconfig.DefaultRefresh, cfg.Refresh)

	_, err = executeCommand(t, "", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = executeCommand(t, "", "init", "--force")
	assert.NoError(t, err)
}

func TestInitCommand_Interactive(t *testing.T) {
	isolate(t)

	orig := runInitForm
	t.Cleanup(func() { runInitForm = orig })
	runInitForm = func(cfg *cliconfig.CLIConfig) error {
		cfg.Address = "0.0.0.0:9100"
		cfg.NoHistory = true
		return nil
	}

	path := filepath.Join(t.TempDir(), "pesh.yaml")
	out, err := executeCommand(t, "", "init", "-i", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "pesh --config "+path)

	cfg, err := cliconfig.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9100", cfg.Address)
	assert.True(t, cfg.NoHistory)
}

func TestConfigCommand(t *testing.T) {
	isolate(t)
	t.Setenv(cliconfig.EnvLogLevel, "debug")
	require.NoError(t, os.WriteFile(".peshrc.yaml", []byte("address: 0.0.0.0:9100\n"), 0o600))

	out, err := executeCommand(t, "", "config", "--json")
	require.NoError(t, err)

	var entries []configEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	byKey := make(map[string]configEntry)
	for _, e := range entries {
		byKey[e.Key] = e
	}
	assert.Equal(t, configEntry{Key: "address", Value: "0.0.0.0:9100", Source: cliconfig.SourceLocal}, byKey["address"])
	assert.Equal(t, configEntry{Key: "logLevel", Value: "debug", Source: cliconfig.SourceEnv}, byKey["logLevel"])
	assert.Equal(t, cliconfig.SourceDefault, byKey["refresh"].Source)

	out, err = executeCommand(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "0.0.0.0:9100")
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := executeCommand(t, "", "completion", shell)
		require.NoError(t, err, shell)
		assert.Contains(t, out, "pesh", shell)
	}

	_, err := executeCommand(t, "", "completion", "tcsh")
	assert.Error(t, err)
}
