package upstream

import (
	"context"
	"testing"
)

func TestNoopAdapterAlwaysErrors(t *testing.T) {
	a := NoopAdapter{}
	ctx := context.Background()

	if _, err := a.GetComponentSource(ctx, "react", "button"); err == nil {
		t.Fatalf("expected GetComponentSource to error")
	}
	if _, err := a.GetComponentDemo(ctx, "react", "button"); err == nil {
		t.Fatalf("expected GetComponentDemo to error")
	}
	if _, err := a.GetComponentMetadata(ctx, "react", "button"); err == nil {
		t.Fatalf("expected GetComponentMetadata to error")
	}
	if _, err := a.GetBlock(ctx, "react", "login-form", false); err == nil {
		t.Fatalf("expected GetBlock to error")
	}
	if _, err := a.BuildDirectoryTree(ctx, "shadcn-ui", "ui", "", ""); err == nil {
		t.Fatalf("expected BuildDirectoryTree to error")
	}
	if _, err := a.ListComponents(ctx, "react"); err == nil {
		t.Fatalf("expected ListComponents to error")
	}
}

func TestStaticAdapterServesRegisteredFixtures(t *testing.T) {
	a := NewStaticAdapter()
	ctx := context.Background()

	a.Sources["react:button"] = ComponentSource{Name: "button", Framework: "react", Code: "export function Button() {}"}
	a.Demos["react:button"] = ComponentDemo{Name: "button", Framework: "react", Demo: "<Button />"}
	a.Metadata["react:button"] = ComponentMetadata{Name: "button", Framework: "react", Type: "component"}
	a.Blocks["react:login-form"] = Block{Name: "login-form", Framework: "react", Components: []string{"button", "input"}}
	a.Trees["shadcn-ui:ui"] = DirectoryNode{Name: "ui", IsDir: true}
	a.Listings["react"] = []string{"button", "input"}

	if src, err := a.GetComponentSource(ctx, "react", "button"); err != nil || src.Code == "" {
		t.Fatalf("GetComponentSource: %v, %+v", err, src)
	}
	if demo, err := a.GetComponentDemo(ctx, "react", "button"); err != nil || demo.Demo == "" {
		t.Fatalf("GetComponentDemo: %v, %+v", err, demo)
	}
	if meta, err := a.GetComponentMetadata(ctx, "react", "button"); err != nil || meta.Type == "" {
		t.Fatalf("GetComponentMetadata: %v, %+v", err, meta)
	}
	if block, err := a.GetBlock(ctx, "react", "login-form", true); err != nil || len(block.Components) != 2 {
		t.Fatalf("GetBlock with includeComponents=true: %v, %+v", err, block)
	}
	if block, err := a.GetBlock(ctx, "react", "login-form", false); err != nil || block.Components != nil {
		t.Fatalf("GetBlock with includeComponents=false should strip Components: %v, %+v", err, block)
	}
	if tree, err := a.BuildDirectoryTree(ctx, "shadcn-ui", "ui", "", ""); err != nil || tree.Name != "ui" {
		t.Fatalf("BuildDirectoryTree: %v, %+v", err, tree)
	}
	if names, err := a.ListComponents(ctx, "react"); err != nil || len(names) != 2 {
		t.Fatalf("ListComponents: %v, %+v", err, names)
	}
}

func TestStaticAdapterErrorsOnUnregisteredFixtures(t *testing.T) {
	a := NewStaticAdapter()
	ctx := context.Background()

	if _, err := a.GetComponentSource(ctx, "react", "missing"); err == nil {
		t.Fatalf("expected error for unregistered component source")
	}
	if _, err := a.GetBlock(ctx, "react", "missing", false); err == nil {
		t.Fatalf("expected error for unregistered block")
	}
	if _, err := a.ListComponents(ctx, "missing-framework"); err == nil {
		t.Fatalf("expected error for unregistered listing")
	}
}
