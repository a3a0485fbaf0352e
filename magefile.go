//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/reqforge"

// Default target - build the binary
var Default = Build

// Build builds the reqforge binary
func Build() error {
	version, err := os.ReadFile("internal/version/VERSION")
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	ldflags := fmt.Sprintf("-X github.com/ShayCichocki/reqforge/internal/version.Commit=%s", commit)
	fmt.Printf("Building reqforge %s\n", strings.TrimSpace(string(version)))
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binary, "./cmd/reqforge")
}

// Test runs the unit tests
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// QA runs vet and tests
func QA() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}
