//go:build mage
// +build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func Build() {
	mg.Deps(BuildMain)
}

func BuildMain() error {
	return sh.Run("go", "build", "-o", "build/eth-lightclient", "main.go")
}

func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestBLS runs the signature verification tests, which need cgo for blst.
func TestBLS() error {
	return sh.RunWith(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./crypto/bls/...", "./lightclient/...")
}

func Lint() error {
	return sh.Run("revive", "-config", "revive.toml", "./...")
}

func Install() error {
	return sh.Run("go", "build", "-o", "$GOPATH/bin/eth-lightclient", "main.go")
}
