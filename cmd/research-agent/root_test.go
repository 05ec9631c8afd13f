package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "research-agent", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "console")
	assert.Contains(t, names, "research")
	assert.Contains(t, names, "evaluate")

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("model"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func Test_GetVersion(t *testing.T) {
	assert.NotEmpty(t, getVersion())
}

func Test_EvaluateRequiresTopic(t *testing.T) {
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"evaluate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic")
}

func Test_ResearchRequiresTask(t *testing.T) {
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"research"})

	err := cmd.Execute()
	require.Error(t, err)
}

func Test_EvaluateFlags(t *testing.T) {
	cmd := NewEvaluateCmd()
	assert.NotNil(t, cmd.Flags().Lookup("topic"))
	assert.NotNil(t, cmd.Flags().Lookup("domains"))
	assert.NotNil(t, cmd.Flags().Lookup("min-ratio"))
	assert.NotNil(t, cmd.Flags().Lookup("reflect"))

	minRatio, err := cmd.Flags().GetFloat64("min-ratio")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, minRatio, 0.0001)
}
