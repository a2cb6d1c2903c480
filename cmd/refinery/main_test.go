package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestApp() *cli.App {
	return &cli.App{
		Name: "refinery",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Action: validateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pipeline", Aliases: []string{"p"}, Required: true},
				},
			},
			{
				Name:   "dedupe",
				Action: dedupeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-"},
					&cli.StringFlag{Name: "method", Value: "hash"},
					&cli.Float64Flag{Name: "similarity-threshold", Value: 0.8},
					&cli.StringFlag{Name: "content-field", Value: "content"},
					&cli.BoolFlag{Name: "case-sensitive"},
				},
			},
		},
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid pipeline", func(t *testing.T) {
		path := writeTempFile(t, "p.yaml", `
name: cleanup
steps:
  - type: deduplication
  - type: filter
    config:
      condition: segment.status == "new"
`)
		err := newTestApp().Run([]string{"refinery", "validate", "--pipeline", path})
		require.NoError(t, err)
	})

	t.Run("unknown step type fails", func(t *testing.T) {
		path := writeTempFile(t, "p.yaml", "steps:\n  - type: transmogrify\n")
		err := newTestApp().Run([]string{"refinery", "validate", "--pipeline", path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown step type")
	})

	t.Run("invalid step config fails", func(t *testing.T) {
		path := writeTempFile(t, "p.yaml", "name: bad\nsteps:\n  - type: filter\n")
		err := newTestApp().Run([]string{"refinery", "validate", "--pipeline", path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("missing pipeline flag fails", func(t *testing.T) {
		err := newTestApp().Run([]string{"refinery", "validate"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline")
	})
}

func TestDedupeCommand(t *testing.T) {
	input := writeTempFile(t, "in.json", `[
		{"content": "alpha", "position": 0},
		{"content": "alpha", "position": 1},
		{"content": "beta", "position": 2}
	]`)
	output := filepath.Join(t.TempDir(), "out.json")

	err := newTestApp().Run([]string{
		"refinery", "dedupe", "--input", input, "--output", output,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "alpha", records[0]["content"])
	assert.Equal(t, "beta", records[1]["content"])
}

func TestDedupeCommandMissingInput(t *testing.T) {
	err := newTestApp().Run([]string{
		"refinery", "dedupe", "--input", filepath.Join(t.TempDir(), "absent.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading input")
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN", "Info"} {
			t.Run(level, func(t *testing.T) {
				err := newTestApp().Run([]string{"refinery", "-l", level, "dedupe", "--input", "-"})
				// The dedupe command reads stdin; only the logger setup is
				// under test here, so any error must not be about the level.
				if err != nil {
					assert.NotContains(t, err.Error(), "invalid log level")
				}
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newTestApp().Run([]string{"refinery", "--log-level", "loud", "validate", "--pipeline", "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
