package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"run", "sweep", "seed"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	seed, _, err := root.Find([]string{"seed"})
	require.NoError(t, err)
	assert.Equal(t, "APT", seed.Flag("prefix").DefValue)
}

func TestSeedRequiresFloor(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"seed", "--prefix", "MR"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floor")
}
