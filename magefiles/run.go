//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the shaders and runs the engine with config.toml.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "config.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the unit tests of every package.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
