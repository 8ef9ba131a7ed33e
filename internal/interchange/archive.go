package interchange

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// zipDir writes every regular file at the top level of srcDir into a zip
// archive at destPath. The package format is flat, so subdirectories are
// not walked.
func zipDir(srcDir, destPath string) (err error) {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
	}()

	zw := zip.NewWriter(out)
	defer func() {
		if cerr := zw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to finalize archive: %w", cerr)
		}
	}()

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to read staging directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := addZipFile(zw, filepath.Join(srcDir, entry.Name()), entry.Name()); err != nil {
			return err
		}
	}

	return nil
}

func addZipFile(zw *zip.Writer, srcPath, name string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("failed to close file", "name", name, "error", err)
		}
	}()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}

// unzip extracts a package archive into destDir. Entry names containing
// path separators or traversal sequences are rejected: the package format
// is a flat directory.
func unzip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if err := zr.Close(); err != nil {
			slog.Error("failed to close archive", "error", err)
		}
	}()

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if entry.Name != filepath.Base(entry.Name) || strings.Contains(entry.Name, "..") {
			return fmt.Errorf("archive entry %q has an unsafe name", entry.Name)
		}
		if err := extractZipFile(entry, filepath.Join(destDir, entry.Name)); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(entry *zip.File, destPath string) (err error) {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %q: %w", entry.Name, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			slog.Error("failed to close archive entry", "name", entry.Name, "error", cerr)
		}
	}()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", destPath, cerr)
		}
	}()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to extract %q: %w", entry.Name, err)
	}
	return nil
}
