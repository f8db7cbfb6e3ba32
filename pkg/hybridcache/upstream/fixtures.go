package upstream

import (
	"context"
	"fmt"
)

// NoopAdapter answers every call with an error. It is useful for
// exercising offline_mode and origin-disabled configurations in tests.
type NoopAdapter struct{}

func (NoopAdapter) GetComponentSource(ctx context.Context, framework, name string) (ComponentSource, error) {
	return ComponentSource{}, fmt.Errorf("noop adapter: no component source for %s/%s", framework, name)
}

func (NoopAdapter) GetComponentDemo(ctx context.Context, framework, name string) (ComponentDemo, error) {
	return ComponentDemo{}, fmt.Errorf("noop adapter: no component demo for %s/%s", framework, name)
}

func (NoopAdapter) GetComponentMetadata(ctx context.Context, framework, name string) (ComponentMetadata, error) {
	return ComponentMetadata{}, fmt.Errorf("noop adapter: no component metadata for %s/%s", framework, name)
}

func (NoopAdapter) GetBlock(ctx context.Context, framework, name string, includeComponents bool) (Block, error) {
	return Block{}, fmt.Errorf("noop adapter: no block for %s/%s", framework, name)
}

func (NoopAdapter) BuildDirectoryTree(ctx context.Context, owner, repo, path, branch string) (DirectoryNode, error) {
	return DirectoryNode{}, fmt.Errorf("noop adapter: no directory tree for %s/%s", owner, repo)
}

func (NoopAdapter) ListComponents(ctx context.Context, framework string) ([]string, error) {
	return nil, fmt.Errorf("noop adapter: no component list for %s", framework)
}

// StaticAdapter serves fixed fixture data keyed by framework/name, useful
// for deterministic tests of the origin tier, partial-response repair, and
// the fallback chain without a live registry.
type StaticAdapter struct {
	Sources  map[string]ComponentSource
	Demos    map[string]ComponentDemo
	Metadata map[string]ComponentMetadata
	Blocks   map[string]Block
	Trees    map[string]DirectoryNode
	Listings map[string][]string
}

func NewStaticAdapter() *StaticAdapter {
	return &StaticAdapter{
		Sources:  make(map[string]ComponentSource),
		Demos:    make(map[string]ComponentDemo),
		Metadata: make(map[string]ComponentMetadata),
		Blocks:   make(map[string]Block),
		Trees:    make(map[string]DirectoryNode),
		Listings: make(map[string][]string),
	}
}

func fixtureKey(framework, name string) string { return framework + ":" + name }

func (a *StaticAdapter) GetComponentSource(ctx context.Context, framework, name string) (ComponentSource, error) {
	if v, ok := a.Sources[fixtureKey(framework, name)]; ok {
		return v, nil
	}
	return ComponentSource{}, fmt.Errorf("static adapter: no component source for %s/%s", framework, name)
}

func (a *StaticAdapter) GetComponentDemo(ctx context.Context, framework, name string) (ComponentDemo, error) {
	if v, ok := a.Demos[fixtureKey(framework, name)]; ok {
		return v, nil
	}
	return ComponentDemo{}, fmt.Errorf("static adapter: no component demo for %s/%s", framework, name)
}

func (a *StaticAdapter) GetComponentMetadata(ctx context.Context, framework, name string) (ComponentMetadata, error) {
	if v, ok := a.Metadata[fixtureKey(framework, name)]; ok {
		return v, nil
	}
	return ComponentMetadata{}, fmt.Errorf("static adapter: no component metadata for %s/%s", framework, name)
}

func (a *StaticAdapter) GetBlock(ctx context.Context, framework, name string, includeComponents bool) (Block, error) {
	if v, ok := a.Blocks[fixtureKey(framework, name)]; ok {
		if !includeComponents {
			v.Components = nil
		}
		return v, nil
	}
	return Block{}, fmt.Errorf("static adapter: no block for %s/%s", framework, name)
}

func (a *StaticAdapter) BuildDirectoryTree(ctx context.Context, owner, repo, path, branch string) (DirectoryNode, error) {
	if v, ok := a.Trees[fixtureKey(owner, repo)]; ok {
		return v, nil
	}
	return DirectoryNode{}, fmt.Errorf("static adapter: no directory tree for %s/%s", owner, repo)
}

func (a *StaticAdapter) ListComponents(ctx context.Context, framework string) ([]string, error) {
	if v, ok := a.Listings[framework]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("static adapter: no component list for %s", framework)
}
