package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takotakot/xml_echo/transform"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(strings.NewReader(stdin), &out).Run(append([]string{"xmlfragment"}, args...))
	return out.String(), err
}

func TestFragmentFromStdin(t *testing.T) {
	out, err := run(t, `<catalog><book id="bk101"/></catalog>`)
	require.NoError(t, err)
	assert.Equal(t, "<catalog><book id=\"bk101\"/></catalog>\n", out)
}

func TestFragmentFromFileWithFlags(t *testing.T) {
	path := writeFile(t, "library.xml", "<library><book>  Go  </book><book>Rust</book></library>")

	out, err := run(t, "", "--root", "*", "--fragment", "book", "--trim", path)
	require.NoError(t, err)
	assert.Equal(t, "<book>Go</book>\n", out)
}

func TestFragmentMalformed(t *testing.T) {
	_, err := run(t, "not xml at all", "-")
	assert.ErrorIs(t, err, transform.ErrMalformedXML)
}

func TestFragmentTooManyArgs(t *testing.T) {
	_, err := run(t, "", "a.xml", "b.xml")
	assert.ErrorContains(t, err, "at most one input file")
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	configPath := writeFile(t, "opts.yaml", `root_tag: "*"
fragment_tag: book
options:
  ignore_attrs: true
  empty_tag: none
`)
	input := writeFile(t, "in.xml", `<shelf><book id="1"/></shelf>`)

	out, err := run(t, "", "--config", configPath, input)
	require.NoError(t, err)
	assert.Equal(t, "<book>none</book>\n", out)

	out, err = run(t, "", "--config", configPath, "--empty-tag", "", input)
	require.NoError(t, err)
	assert.Equal(t, "<book/>\n", out)
}

func TestLoadConfigFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "opts.yaml", "options:\n  trim: true\n")

	cfg, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, transform.DefaultRootTag, cfg.RootTag)
	assert.True(t, cfg.Options.Trim)
	assert.False(t, cfg.Options.Normalize)
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := writeFile(t, "opts.yaml", "options: [1, 2]\n")

	_, err := loadConfigFile(path)
	assert.ErrorContains(t, err, "parse config")
}
