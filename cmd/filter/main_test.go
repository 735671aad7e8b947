package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/core/apperror"
	"kinfilter/pkg/logger"
)

const definitions = `<filters>
  <object type="Person">
    <filter name="Smith men">
      <rule class="HasNameOf" use_regex="False"><arg value=""/><arg value="Smith"/></rule>
      <rule class="IsMale" use_regex="False"/>
    </filter>
  </object>
</filters>`

func testContext() context.Context {
	return logger.WithLogger(context.Background(), logger.Nop())
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom_filters.xml")
	require.NoError(t, os.WriteFile(path, []byte(definitions), 0o600))

	var out bytes.Buffer
	err := run(testContext(), options{filters: path, namespace: "Person", name: "Smith men", every: 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, "I0001\ti0001\nI0003\ti0003\nI0006\ti0006\n", out.String())
}

func TestRun_Builtin(t *testing.T) {
	var out bytes.Buffer
	err := run(testContext(), options{namespace: "Place", name: "all", tree: true, every: 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, "P0001\tp0001\nP0002\tp0002\nP0003\tp0003\nP0005\tp0005\nP0004\tp0004\n", out.String())
}

func TestRun_Errors(t *testing.T) {
	err := run(testContext(), options{namespace: "Widget", name: "all"}, io.Discard)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownNamespace))

	err = run(testContext(), options{namespace: "Person", name: "Nope"}, io.Discard)
	assert.True(t, apperror.HasCode(err, apperror.CodeFilterNotFound))

	err = run(testContext(), options{namespace: "Person", name: "all", filters: filepath.Join(t.TempDir(), "missing.xml")}, io.Discard)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseFlags(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FILTERS_FILE", "")

	o, err := parseFlags([]string{"-namespace", "Event", "-name", "Births", "-tree"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Event", o.namespace)
	assert.Equal(t, "Births", o.name)
	assert.True(t, o.tree)
	assert.Equal(t, 1000, o.every)

	_, err = parseFlags([]string{"-publish"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-bogus"}, io.Discard)
	assert.Error(t, err)
}
