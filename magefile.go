//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the dumpsql binary into the bin/ directory.
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", "./bin/dumpsql", "./cmd/dumpsql")
}

// Install copies the dumpsql binary to /usr/local/bin.
func Install() error {
	mg.Deps(Build)
	fmt.Println("Installing...")
	return sh.Run("cp", "bin/dumpsql", "/usr/local/bin/dumpsql")
}

// Test runs the unit tests. Tests that need a Postgres container are skipped.
func Test() error {
	fmt.Println("Running Tests...")
	return sh.Run("go", "test", "-short", "./...")
}

// Integration runs every test, including the Postgres apply tests.
// Set DUMPSQL_TEST_DATABASE_URL to use an existing server instead of a container.
func Integration() error {
	fmt.Println("Running Integration Tests...")
	return sh.RunV("go", "test", "-v", "-timeout", "5m", "./...")
}

// Convert runs dumpsql against the config file named by DUMPSQL_CONFIG (default dumpsql.hcl).
func Convert() error {
	mg.Deps(Build)
	cfg := os.Getenv("DUMPSQL_CONFIG")
	if cfg == "" {
		cfg = "dumpsql.hcl"
	}
	return sh.RunV("./bin/dumpsql", "--config", cfg)
}

// Clean removes the bin directory and test outputs.
func Clean() error {
	fmt.Println("Cleaning...")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	if err := os.RemoveAll("test_output"); err != nil {
		return err
	}
	return nil
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Check runs formatting and linting checks (fmt, vet).
func Check() error {
	mg.Deps(Fmt, Vet)
	return nil
}

// Fmt runs go fmt ./...
func Fmt() error {
	fmt.Println("Running go fmt...")
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet ./...
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}
