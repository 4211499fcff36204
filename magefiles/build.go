//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const shaderOutputDir = "build/shaders"

type Build mg.Namespace

// Compiles the GLSL shaders to SPIR-V under build/shaders.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	if err := os.MkdirAll(shaderOutputDir, 0o755); err != nil {
		return err
	}
	stages := map[string]string{
		"shaders/shader.vert": "vert.spv",
		"shaders/shader.frag": "frag.spv",
	}
	for src, out := range stages {
		if _, err := executeCmd("glslc", withArgs(src, "-o", filepath.Join(shaderOutputDir, out)), withStream()); err != nil {
			return err
		}
	}
	return nil
}
