package openscad

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	useRegex     = regexp.MustCompile(`^\s*use\s*<([^>]+)>`)
	includeRegex = regexp.MustCompile(`^\s*include\s*<([^>]+)>`)
)

// ErrNotInstalled is returned when the openscad binary is not on PATH
var ErrNotInstalled = errors.New("openscad not found in PATH, install it from https://openscad.org/")

// Renderer turns OpenSCAD sources into STL meshes using the openscad CLI
type Renderer struct {
	workDir string
	binary  string
}

// NewRenderer creates a renderer resolving relative paths against workDir
func NewRenderer(workDir string) *Renderer {
	return &Renderer{
		workDir: workDir,
		binary:  "openscad",
	}
}

func (r *Renderer) abs(scadFile string) string {
	if filepath.IsAbs(scadFile) {
		return scadFile
	}
	return filepath.Join(r.workDir, scadFile)
}

// RenderToSTL renders an OpenSCAD file into outputFile
func (r *Renderer) RenderToSTL(ctx context.Context, scadFile, outputFile string) error {
	bin, err := exec.LookPath(r.binary)
	if err != nil {
		return ErrNotInstalled
	}

	cmd := exec.CommandContext(ctx, bin, "-o", outputFile, r.abs(scadFile))
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		var msg strings.Builder
		fmt.Fprintf(&msg, "failed to render %s: %v", scadFile, err)
		if stderr.Len() > 0 {
			msg.WriteString("\nstderr: ")
			msg.WriteString(stderr.String())
		}
		if stdout.Len() > 0 {
			msg.WriteString("\nstdout: ")
			msg.WriteString(stdout.String())
		}
		return errors.New(msg.String())
	}

	slog.Debug("openscad render finished", "file", scadFile, "duration", time.Since(start))
	return nil
}

// RenderSTL renders an OpenSCAD file and returns the STL bytes
func (r *Renderer) RenderSTL(ctx context.Context, scadFile string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "gosprack-*.stl")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := r.RenderToSTL(ctx, scadFile, tmpName); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(tmpName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered STL: %w", err)
	}
	return data, nil
}

// ResolveDependencies finds all dependencies (use/include statements) in an OpenSCAD file
// Returns a list of absolute paths to all dependencies
func (r *Renderer) ResolveDependencies(scadFile string) ([]string, error) {
	absScadFile := r.abs(scadFile)

	visited := make(map[string]bool)
	var deps []string

	if err := r.resolveDependenciesRecursive(absScadFile, visited, &deps); err != nil {
		return nil, err
	}

	return deps, nil
}

// resolveDependenciesRecursive recursively finds all dependencies
func (r *Renderer) resolveDependenciesRecursive(scadFile string, visited map[string]bool, deps *[]string) error {
	// Avoid circular dependencies
	if visited[scadFile] {
		return nil
	}
	visited[scadFile] = true

	// Add this file to dependencies
	*deps = append(*deps, scadFile)

	// Parse the file to find use/include statements
	fileDeps, err := r.parseDependencies(scadFile)
	if err != nil {
		return err
	}

	// Recursively resolve dependencies; library files outside the tree are skipped
	for _, dep := range fileDeps {
		if _, err := os.Stat(dep); err != nil {
			slog.Debug("skipping unresolved openscad dependency", "file", dep)
			continue
		}
		if err := r.resolveDependenciesRecursive(dep, visited, deps); err != nil {
			return err
		}
	}

	return nil
}

// parseDependencies parses a single OpenSCAD file to find use/include statements
func (r *Renderer) parseDependencies(scadFile string) ([]string, error) {
	file, err := os.Open(scadFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", scadFile, err)
	}
	defer file.Close()

	var deps []string
	scanner := bufio.NewScanner(file)

	scadDir := filepath.Dir(scadFile)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}

		for _, re := range []*regexp.Regexp{useRegex, includeRegex} {
			if matches := re.FindStringSubmatch(line); len(matches) > 1 {
				deps = append(deps, r.resolveDepPath(matches[1], scadDir))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", scadFile, err)
	}

	return deps, nil
}

// resolveDepPath resolves a dependency path relative to the current file's directory
func (r *Renderer) resolveDepPath(depPath, currentDir string) string {
	// If the path starts with ./ or ../, it's relative to the current file
	if strings.HasPrefix(depPath, "./") || strings.HasPrefix(depPath, "../") {
		absPath := filepath.Join(currentDir, depPath)
		return filepath.Clean(absPath)
	}

	// Otherwise, try relative to current directory first
	absPath := filepath.Join(currentDir, depPath)
	if _, err := os.Stat(absPath); err == nil {
		return filepath.Clean(absPath)
	}

	// Try relative to work directory
	absPath = filepath.Join(r.workDir, depPath)
	return filepath.Clean(absPath)
}
