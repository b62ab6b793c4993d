package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/poolkit/pool/alloc"
)

func demoOptions(count int) runOptions {
	return runOptions{Config: alloc.DefaultConfig(), Count: count}
}

func TestRunDemo_Output(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(&out, demoOptions(4)))

	want := `map1:
Key: 0, Value: 1
Key: 1, Value: 1
Key: 2, Value: 2
Key: 3, Value: 6
map2:
Key: 0, Value: 1
Key: 1, Value: 1
Key: 2, Value: 2
Key: 3, Value: 6
container1: 0 1 2 3 
container2: 0 1 2 3 
`
	assert.Equal(t, want, out.String())
}

func TestRunDemo_DefaultCountMatchesClassicDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(&out, demoOptions(10)))

	assert.Contains(t, out.String(), "Key: 9, Value: 362880\n")
	assert.Contains(t, out.String(), "container2: 0 1 2 3 4 5 6 7 8 9 \n")
}

func TestRunDemo_Locale(t *testing.T) {
	opts := demoOptions(10)
	opts.Locale = "en"

	var out bytes.Buffer
	require.NoError(t, runDemo(&out, opts))
	assert.Contains(t, out.String(), "Key: 9, Value: 362,880\n")
	assert.Contains(t, out.String(), "container1: 0 1 2 3 4 5 6 7 8 9 \n")
}

func TestRunDemo_InvalidLocale(t *testing.T) {
	opts := demoOptions(3)
	opts.Locale = "not a tag"

	err := runDemo(&bytes.Buffer{}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid locale")
}

func TestRunDemo_CountOutOfRange(t *testing.T) {
	for _, count := range []int{-1, maxCount + 1} {
		err := runDemo(&bytes.Buffer{}, demoOptions(count))
		assert.Error(t, err, "count %d", count)
	}
}

func TestRunDemo_StatsText(t *testing.T) {
	opts := demoOptions(10)
	opts.Stats = true

	var out bytes.Buffer
	require.NoError(t, runDemo(&out, opts))
	assert.Contains(t, out.String(), "  container2: allocs=10 deallocs=0 expansions=1 oversized=0 reserved=10 free=0\n")
	assert.Contains(t, out.String(), "  map2: allocs=10 deallocs=0 expansions=1 oversized=0 reserved=10 free=0\n")
	assert.Contains(t, out.String(), "  hit rate: 0.90\n")
}

func TestRunDemo_StatsJSON(t *testing.T) {
	opts := demoOptions(15)
	opts.Config.BlockSize = 4
	opts.Config.Granularity = 4
	opts.Stats = true
	opts.JSON = true

	var out bytes.Buffer
	require.NoError(t, runDemo(&out, opts))

	// The report follows the listing.
	raw := out.Bytes()
	start := bytes.IndexByte(raw, '{')
	require.GreaterOrEqual(t, start, 0)

	var report demoReport
	require.NoError(t, json.Unmarshal(raw[start:], &report))
	assert.Equal(t, 15, report.Pools["container2"].Allocs)
	assert.Equal(t, 4, report.Pools["container2"].Expansions)
	assert.Equal(t, 16, report.Pools["map2"].ReservedSlots)
	assert.Equal(t, uint64(30), report.Metrics.Allocs)
	assert.InDelta(t, 22.0/30.0, report.HitRate, 1e-9)
}

func TestRunDemo_MmapBacking(t *testing.T) {
	opts := demoOptions(10)
	opts.Config.Backing = alloc.BackingMmap

	var out bytes.Buffer
	require.NoError(t, runDemo(&out, opts))
	assert.Contains(t, out.String(), "container2: 0 1 2 3 4 5 6 7 8 9 \n")
	assert.Contains(t, out.String(), "Key: 9, Value: 362880\n")
}

func TestFactorial(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 1},
		{5, 120},
		{10, 3628800},
		{20, 2432902008176640000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, factorial(tt.n), "factorial(%d)", tt.n)
	}
}

func TestRootCmd_RunAndVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"run", "--count", "2", "--block-size", "1", "--verbose"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "map1:\nKey: 0, Value: 1\nKey: 1, Value: 1\nmap2:\nKey: 0, Value: 1\nKey: 1, Value: 1\ncontainer1: 0 1 \ncontainer2: 0 1 \n", out.String())
	assert.Contains(t, errOut.String(), "msg=expand")

	out.Reset()
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "pooldemo dev\n")
}

func TestRunOptionsFromFlags_BlockSize(t *testing.T) {
	tests := []struct {
		name            string
		env             map[string]string
		args            []string
		wantBlockSize   int
		wantGranularity int
	}{
		{"no flags", nil, nil, alloc.DefaultBlockSize, alloc.DefaultBlockSize},
		{"flag sets granularity too", nil, []string{"--block-size", "8"}, 8, 8},
		{"env granularity kept", map[string]string{"POOLKIT_GRANULARITY": "3"}, []string{"--block-size", "8"}, 8, 3},
		{"flag overrides env block size", map[string]string{"POOLKIT_BLOCK_SIZE": "5"}, []string{"--block-size", "8"}, 8, 8},
		{"env only", map[string]string{"POOLKIT_BLOCK_SIZE": "5", "POOLKIT_GRANULARITY": "2"}, nil, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("POOLKIT_BLOCK_SIZE", "")
			t.Setenv("POOLKIT_GRANULARITY", "")
			os.Unsetenv("POOLKIT_BLOCK_SIZE")
			os.Unsetenv("POOLKIT_GRANULARITY")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cmd := newRunCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			opts, err := runOptionsFromFlags(cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBlockSize, opts.Config.BlockSize)
			assert.Equal(t, tt.wantGranularity, opts.Config.Granularity)
		})
	}
}
