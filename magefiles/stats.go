// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stats prints Go lines of code per top-level directory.
func Stats() error {
	prod := map[string]int{}
	tests := map[string]int{}

	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path == "vendor" || path == ".git" || path == binaryDir || strings.HasPrefix(path, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasPrefix(path, "magefiles") {
			return nil
		}
		count, err := countLines(path)
		if err != nil {
			return nil
		}
		top := strings.SplitN(filepath.ToSlash(path), "/", 2)[0]
		if strings.HasSuffix(path, "_test.go") {
			tests[top] += count
		} else {
			prod[top] += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := map[string]bool{}
	for k := range prod {
		dirs[k] = true
	}
	for k := range tests {
		dirs[k] = true
	}
	names := make([]string, 0, len(dirs))
	for k := range dirs {
		names = append(names, k)
	}
	sort.Strings(names)

	var totalProd, totalTests int
	for _, name := range names {
		fmt.Printf("%-12s production %6d  tests %6d\n", name, prod[name], tests[name])
		totalProd += prod[name]
		totalTests += tests[name]
	}
	fmt.Printf("%-12s production %6d  tests %6d\n", "total", totalProd, totalTests)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
