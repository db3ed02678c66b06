//go:build mage

package main

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const shaderDir = "Resources/Shaders"

type Build mg.Namespace

// Compiles every HLSL shader to .cso with fxc (when available) and to .spv with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and builds the game binary.
func (Build) Game() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", binaryName(), "."), withStream())
	return err
}

func buildShaders() error {
	sources, err := filepath.Glob(filepath.Join(shaderDir, "*.hlsl"))
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shaders found in %s", shaderDir)
	}
	_, fxcErr := exec.LookPath("fxc")
	if fxcErr != nil {
		fmt.Println("fxc not found, skipping Direct3D 11 shaders")
	}
	for _, src := range sources {
		stage, err := shaderStage(src)
		if err != nil {
			return err
		}
		if fxcErr == nil {
			if err := compileCSO(src, stage); err != nil {
				return err
			}
		}
		if err := compileSPIRV(src, stage); err != nil {
			return err
		}
	}
	return nil
}

// shaderStage derives the pipeline stage from the file name: VertexShader and
// *VS are vertex shaders, PixelShader and *PS pixel shaders.
func shaderStage(src string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	switch {
	case name == "VertexShader" || strings.HasSuffix(name, "VS"):
		return "vs", nil
	case name == "PixelShader" || strings.HasSuffix(name, "PS"):
		return "ps", nil
	}
	return "", fmt.Errorf("cannot tell the stage of %s", src)
}

func outputPath(src, ext string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ext
}

func compileCSO(src, stage string) error {
	_, err := executeCmd("fxc", withArgs("/nologo", "/T", stage+"_5_0", "/E", "main", "/Fo", outputPath(src, ".cso"), src))
	return err
}

// compileSPIRV maps HLSL registers onto the Vulkan backend's descriptor set:
// b# to binding 0, t# to binding 1 and s# to binding 2.
func compileSPIRV(src, stage string) error {
	vkStage := "vertex"
	if stage == "ps" {
		vkStage = "fragment"
	}
	_, err := executeCmd("glslc", withArgs(
		"-x", "hlsl",
		"-fshader-stage="+vkStage,
		"-fentry-point=main",
		"-fhlsl-iomap",
		"-fcbuffer-binding-base", "0",
		"-ftexture-binding-base", "1",
		"-fsampler-binding-base", "2",
		"-o", outputPath(src, ".spv"),
		src,
	))
	return err
}
