package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sarchlab/swapstore/paging"
)

// PagesFor returns the number of pages needed to hold sizeBytes.
func PagesFor(sizeBytes int64, pageSize uint64) int {
	if sizeBytes <= 0 || pageSize == 0 {
		return 0
	}

	return int((uint64(sizeBytes) + pageSize - 1) / pageSize)
}

// DescribeFiles builds one descriptor per file. The descriptor ID is the
// position of the file in paths.
func DescribeFiles(paths []string, pageSize uint64) ([]Descriptor, error) {
	if pageSize == 0 {
		return nil, fmt.Errorf("page size must be positive")
	}

	descriptors := make([]Descriptor, 0, len(paths))

	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}

		descriptors = append(descriptors, Descriptor{
			ID:        paging.OwnerID(i),
			Name:      filepath.Base(p),
			PageCount: PagesFor(info.Size(), pageSize),
			SizeBytes: info.Size(),
		})
	}

	return descriptors, nil
}

// ParseDescriptor parses a name:pages pair. The ID is assigned by the
// caller.
func ParseDescriptor(s string, id paging.OwnerID) (Descriptor, error) {
	name, pages, found := strings.Cut(s, ":")
	if !found {
		return Descriptor{}, fmt.Errorf("process %q is not in name:pages form", s)
	}

	n, err := strconv.Atoi(strings.TrimSpace(pages))
	if err != nil {
		return Descriptor{}, fmt.Errorf("process %q: %w", s, err)
	}

	if n < 0 {
		return Descriptor{}, fmt.Errorf("process %q has negative page count", s)
	}

	return Descriptor{
		ID:        id,
		Name:      strings.TrimSpace(name),
		PageCount: n,
	}, nil
}

// ParseTrace reads an explicit reference string. Each non-empty line is
// either owner:page or a bare page number for owner 0. Text after # is
// ignored, and several references may share a line when separated by
// spaces or commas.
func ParseTrace(r io.Reader) ([]Reference, error) {
	var refs []Reference

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line, _, _ := strings.Cut(scanner.Text(), "#")
		fields := strings.FieldsFunc(line, func(c rune) bool {
			return c == ',' || c == ' ' || c == '\t'
		})

		for _, f := range fields {
			ref, err := parseReference(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

			refs = append(refs, ref)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return refs, nil
}

func parseReference(s string) (Reference, error) {
	owner, page, found := strings.Cut(s, ":")
	if !found {
		owner, page = "0", s
	}

	o, err := strconv.Atoi(owner)
	if err != nil {
		return Reference{}, fmt.Errorf("bad owner in %q", s)
	}

	p, err := strconv.Atoi(page)
	if err != nil {
		return Reference{}, fmt.Errorf("bad page in %q", s)
	}

	if o < 0 || p < 0 {
		return Reference{}, fmt.Errorf("negative reference %q", s)
	}

	return Reference{OwnerID: paging.OwnerID(o), PageNumber: p}, nil
}
