// Package web embeds the monitor page.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevModeEnv names the variable that makes the monitor serve the page from
// the source tree, so that edits show up without rebuilding.
const DevModeEnv = "SWAPSTORE_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the files of the monitor page.
func GetAssets() http.FileSystem {
	if dir, ok := sourceDir(); ok {
		log.Printf("%s is set, serving the monitor page from %s",
			DevModeEnv, dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

// sourceDir returns the dist directory next to this file when dev mode is
// on.
func sourceDir() (string, bool) {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))
	if err != nil || !on {
		return "", false
	}

	_, self, _, ok := runtime.Caller(0)
	if !ok {
		return "", false
	}

	return filepath.Join(filepath.Dir(self), "dist"), true
}
