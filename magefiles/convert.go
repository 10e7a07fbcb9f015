//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var binPath = binDir + "/" + binName

// Convert builds the CLI and converts every document in folder, packing the
// results.
func Convert(folder string) error {
	mg.Deps(Build)
	return sh.RunV(binPath, folder, "--combine")
}

// Models builds the CLI and pre-downloads the docling models.
func Models() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "models", "download")
}

// History builds the CLI and lists the runs recorded for folder.
func History(folder string) error {
	mg.Deps(Build)
	return sh.RunV(binPath, "history", folder)
}
