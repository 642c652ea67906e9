//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Tidies go.mod and vets every package.
func (Build) Check() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return fmt.Errorf("failed to run go mod tidy: %w", err)
	}
	if _, err := executeCmd("go", withArgs("vet", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles the playback example without running it.
func (Build) Example() error {
	mg.Deps(Build.Check)
	_, err := executeCmd("go", withArgs("build", "-o", "../bin/rig_playback", "rig_playback.go"), withDir("examples"), withStream())
	return err
}

type Test mg.Namespace

// Runs the unit tests.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the unit tests with the race detector; the animator pool updates rigs concurrently.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./engine/..."), withStream())
	return err
}
