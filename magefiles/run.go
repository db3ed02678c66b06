//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the game.
func (Run) Game() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run game...")
	_, err := executeCmd("go", withArgs("run", "."), withStream())
	return err
}

// Runs the game on the null renderer, which needs no GPU.
func (Run) Headless() error {
	fmt.Println("Run game on the null renderer...")
	_, err := executeCmd("go", withArgs("run", "."), withEnv("GAME_CONFIG=Resources/headless.toml"), withStream())
	return err
}
