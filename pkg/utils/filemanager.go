// =============================================================================
// Glosa Classifier - File Utilities
// =============================================================================
//
// This module provides the file helpers of a run:
//   - Output file naming (placeholders, forced .xlsx extension)
//   - Existence checks
//   - Write-then-rename replacement of the output file
//
// REPLACEMENT STRATEGY:
//   The report is written to a temporary file next to the destination and
//   renamed over it only once it is complete. A failed write removes the
//   temporary file and leaves any previous report untouched.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportExtension is the extension of every rendered report.
const ReportExtension = ".xlsx"

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name format.
//
// PARAMETERS:
//   - format: The file name format. Supported placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current time as YYYYMMDD_HHMMSS
//     {date}      - Current date as YYYYMMDD
//     {time}      - Current time as HHMMSS
//     {key}       - Any key of params
//   - params: Extra placeholder values, e.g. {"input": "glosas_marzo"}.
//
// RETURNS:
//   - The file name, always ending in .xlsx.
//
// EXAMPLE:
//
//	format: "Reporte_{input}_{date}"
//	result: "Reporte_glosas_marzo_20240305.xlsx"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return EnsureExtension(result)
}

// EnsureExtension appends .xlsx unless the name already ends with it.
func EnsureExtension(name string) string {
	if strings.EqualFold(filepath.Ext(name), ReportExtension) {
		return name
	}
	return name + ReportExtension
}

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// =============================================================================
// FILE CHECKS
// =============================================================================

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// =============================================================================
// WRITE-THEN-RENAME
// =============================================================================

// TempSibling creates an empty temporary file in the directory of dst with
// the same extension, so format-sniffing writers accept it.
//
// RETURNS:
//   - The temporary file path. The caller must ReplaceFile or remove it.
//   - An error if the directory does not exist or is not writable.
func TempSibling(dst string) (string, error) {
	dir := filepath.Dir(dst)
	if !DirExists(dir) {
		return "", fmt.Errorf("output directory %s does not exist", dir)
	}

	f, err := os.CreateTemp(dir, "."+BaseName(dst)+"-*"+filepath.Ext(dst))
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	return name, nil
}

// ReplaceFile renames tmp over dst. On failure tmp is removed.
func ReplaceFile(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
