//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"

	"github.com/spaghettifunk/rebound/engine/config"
)

type Config mg.Namespace

// Writes the default config.toml, keeping an existing one.
func (Config) Init() error {
	const path = "config.toml"
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s already exists\n", path)
		return nil
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
