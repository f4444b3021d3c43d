// utils/bundle.go
package utils

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Common frontend bundle entry filenames (case-insensitive)
var entryCandidates = []string{
	"index.html",
	"index.htm",
	"main.html",
	"index.js",
	"index.mjs",
}

// ErrNoEntryPoint is returned when an extracted bundle contains none of the
// recognized entry files.
var ErrNoEntryPoint = errors.New("no entry point found in bundle (expected index.html, index.js, ...)")

// Unzip extracts a zip file to the given destination directory.
// Returns an error if any file tries to escape the destination (zip slip
// path traversal protection).
func Unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		path := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path in bundle: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, os.ModePerm); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return err
		}

		outFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// FindEntryPoint walks an extracted bundle and returns the relative path of
// the first recognized entry file (forward slashes, URL-ready).
func FindEntryPoint(root string) (string, error) {
	var found string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := strings.ToLower(info.Name())
		for _, candidate := range entryCandidates {
			if name == candidate {
				rel, _ := filepath.Rel(root, path)
				found = filepath.ToSlash(rel)
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNoEntryPoint
	}
	return found, nil
}
