package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandRegistry(t *testing.T) {
	want := []string{"serve", "classify", "examples", "migrate", "policy", "group", "config"}

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, n := range want {
		assert.True(t, names[n], "command %q not registered", n)
	}
}

func TestExamplesSubcommands(t *testing.T) {
	subs := map[string]bool{}
	for _, c := range examplesCmd.Commands() {
		subs[c.Name()] = true
	}
	assert.True(t, subs["add"])
	assert.True(t, subs["remove"])
	assert.True(t, subs["list"])
}
