// Package breakpoints keeps the authoritative set of breakpoints,
// independent of whether a debugger process is alive.
package breakpoints

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/xhd2015/pdb-mcp/debug/common"
)

// Registry maps normalized file paths to sets of line numbers.
type Registry struct {
	mu    sync.RWMutex
	files map[string]map[int]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		files: make(map[string]map[int]struct{}),
	}
}

// SetResult is returned by Set.
type SetResult struct {
	File  string
	Lines []int
	// Added is false when the breakpoint was already present.
	Added bool
}

// Normalize returns the absolute, cleaned form of file and validates line.
func Normalize(file string, line int) (string, error) {
	if file == "" {
		return "", fmt.Errorf("%w: file path is empty", common.ErrInvalidArgument)
	}
	if line <= 0 {
		return "", fmt.Errorf("%w: line number must be positive, got %d", common.ErrInvalidArgument, line)
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	return filepath.Clean(abs), nil
}

// Set adds file:line. Setting an existing breakpoint is a no-op.
func (r *Registry) Set(file string, line int) (*SetResult, error) {
	file, err := Normalize(file, line)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lines, ok := r.files[file]
	if !ok {
		lines = make(map[int]struct{})
		r.files[file] = lines
	}
	_, exists := lines[line]
	lines[line] = struct{}{}

	return &SetResult{
		File:  file,
		Lines: sortedLines(lines),
		Added: !exists,
	}, nil
}

// Clear removes file:line and returns the remaining lines of that file.
// It fails with common.ErrBreakpointNotFound if the breakpoint is absent.
func (r *Registry) Clear(file string, line int) (string, []int, error) {
	file, err := Normalize(file, line)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lines, ok := r.files[file]
	if !ok {
		return file, nil, fmt.Errorf("%w: %s:%d", common.ErrBreakpointNotFound, file, line)
	}
	if _, ok := lines[line]; !ok {
		return file, sortedLines(lines), fmt.Errorf("%w: %s:%d", common.ErrBreakpointNotFound, file, line)
	}
	delete(lines, line)
	if len(lines) == 0 {
		delete(r.files, file)
	}
	return file, sortedLines(lines), nil
}

// Has reports whether file:line is set.
func (r *Registry) Has(file string, line int) bool {
	file, err := Normalize(file, line)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.files[file][line]
	return ok
}

// List returns the breakpoints grouped by file, files and lines ascending.
func (r *Registry) List() []common.FileBreakpoints {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]common.FileBreakpoints, 0, len(r.files))
	for _, file := range r.sortedFiles() {
		result = append(result, common.FileBreakpoints{
			File:  file,
			Lines: sortedLines(r.files[file]),
		})
	}
	return result
}

// All returns every breakpoint in file, then line order.
func (r *Registry) All() []common.Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []common.Breakpoint
	for _, file := range r.sortedFiles() {
		for _, line := range sortedLines(r.files[file]) {
			result = append(result, common.Breakpoint{File: file, Line: line})
		}
	}
	return result
}

// ClearAll empties the registry and returns how many breakpoints were removed.
func (r *Registry) ClearAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, lines := range r.files {
		n += len(lines)
	}
	r.files = make(map[string]map[int]struct{})
	return n
}

// Len returns the total number of breakpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, lines := range r.files {
		n += len(lines)
	}
	return n
}

// caller must hold mu
func (r *Registry) sortedFiles() []string {
	files := make([]string, 0, len(r.files))
	for file := range r.files {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

func sortedLines(set map[int]struct{}) []int {
	lines := make([]int, 0, len(set))
	for line := range set {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}
