package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/rendergraph/internal/config"
	"github.com/vk/rendergraph/internal/ctxlog"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL graph definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes all top-level blocks of a graph definition file.
type fileRoot struct {
	Properties  []*PropertyBlock `hcl:"property,block"`
	Nodes       []*NodeBlock     `hcl:"node,block"`
	Connections []*ConnectBlock  `hcl:"connect,block"`
}

// Load parses every .hcl file found under paths, in path order and then
// lexical file order, and merges their blocks into one definition. Node
// order follows that file order, which makes it the graph's registration
// order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.GraphDefinition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	def := &config.GraphDefinition{}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl graph definition files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	seenProps := make(map[string]hcl.Range)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Properties {
			if prev, dup := seenProps[p.Name]; dup {
				return nil, fmt.Errorf("%s: property %q already declared at %s", p.DeclRange, p.Name, prev)
			}
			seenProps[p.Name] = p.DeclRange
			prop, err := translateProperty(ctx, p)
			if err != nil {
				return nil, err
			}
			def.Properties = append(def.Properties, prop)
		}
		for _, n := range root.Nodes {
			nd, err := translateNode(ctx, n, hclFile.Bytes)
			if err != nil {
				return nil, err
			}
			def.Nodes = append(def.Nodes, nd)
		}
		for _, c := range root.Connections {
			def.Connections = append(def.Connections, translateConnection(c))
		}
	}

	logger.Debug("HCL loading complete.", "properties", len(def.Properties), "nodes", len(def.Nodes), "connections", len(def.Connections))
	return def, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. Files inside a directory are sorted so that node order is
// stable across platforms.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		var found []string
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
