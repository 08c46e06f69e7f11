package service

import (
	"context"
	"testing"

	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
)

func TestFolderCreate(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	if _, err := svc.Create(ctx, "u1", "  ", nil); apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("blank name: want InvalidArgument, got %v", err)
	}

	root, err := svc.Create(ctx, "u1", "Docs", nil)
	if err != nil {
		t.Fatalf("create root folder: %v", err)
	}

	child, err := svc.Create(ctx, "u1", "Work", &root.ID)
	if err != nil {
		t.Fatalf("create child folder: %v", err)
	}

	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Fatalf("child parent = %v, want %d", child.ParentID, root.ID)
	}

	// 其他用户的文件夹不能作为父级
	if _, err := svc.Create(ctx, "u2", "X", &root.ID); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("foreign parent: want NotFound, got %v", err)
	}
}

func TestFolderListRoot(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	b, _ := svc.Create(ctx, "u1", "beta", nil)
	a, _ := svc.Create(ctx, "u1", "alpha", nil)

	if _, err := svc.Create(ctx, "u1", "nested", &a.ID); err != nil {
		t.Fatalf("create nested: %v", err)
	}

	folders, err := svc.List(ctx, "u1", nil, "name", "asc")
	if err != nil {
		t.Fatalf("list root: %v", err)
	}

	if len(folders) != 2 {
		t.Fatalf("root folders = %d, want 2", len(folders))
	}

	if folders[0].ID != a.ID || folders[1].ID != b.ID {
		t.Fatalf("order = [%s %s], want [alpha beta]", folders[0].Name, folders[1].Name)
	}
}

func TestFolderMoveRejectsCycle(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	a, _ := svc.Create(ctx, "u1", "a", nil)
	b, _ := svc.Create(ctx, "u1", "b", &a.ID)
	c, _ := svc.Create(ctx, "u1", "c", &b.ID)

	if _, err := svc.Move(ctx, "u1", a.ID, &a.ID); apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("move into self: want InvalidArgument, got %v", err)
	}

	if _, err := svc.Move(ctx, "u1", a.ID, &c.ID); apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("move into descendant: want InvalidArgument, got %v", err)
	}

	// 合法移动：c 提升到根级
	moved, err := svc.Move(ctx, "u1", c.ID, nil)
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}

	if moved.ParentID != nil {
		t.Fatalf("parent after move = %v, want nil", moved.ParentID)
	}
}

func TestFolderDeleteRecursive(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	quota := &QuotaService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1000)

	root, _ := svc.Create(ctx, "u1", "root", nil)
	sub, _ := svc.Create(ctx, "u1", "sub", &root.ID)

	seedFile(t, s, "u1", "a.txt", &root.ID, 100, "text/plain")
	seedFile(t, s, "u1", "b.txt", &sub.ID, 200, "text/plain")

	if err := quota.Reserve(s.dbClient.GetDB(), "u1", 300); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	result, err := svc.Delete(ctx, "u1", root.ID)
	if err != nil {
		t.Fatalf("delete folder: %v", err)
	}

	if result.DeletedFolders != 2 || result.DeletedFiles != 2 || result.FreedBytes != 300 {
		t.Fatalf("result = %+v, want 2 folders, 2 files, 300 bytes", result)
	}

	if user := loadUser(t, s, "u1"); user.UsedSpace != 0 {
		t.Fatalf("used space after delete = %d, want 0", user.UsedSpace)
	}

	var folderCount, fileCount int64

	s.dbClient.GetDB().Model(&model.Folder{}).Where("owner_id = ?", "u1").Count(&folderCount)
	s.dbClient.GetDB().Model(&model.File{}).Where("owner_id = ?", "u1").Count(&fileCount)

	if folderCount != 0 || fileCount != 0 {
		t.Fatalf("leftover rows: %d folders, %d files", folderCount, fileCount)
	}
}

func TestFolderDeleteForeign(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)
	seedUser(t, s, "u2", 1<<30)

	folder, _ := svc.Create(ctx, "u1", "private", nil)

	if _, err := svc.Delete(ctx, "u2", folder.ID); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("foreign delete: want NotFound, got %v", err)
	}

	if _, err := getOwnedFolder(s.dbClient.GetDB(), "u1", folder.ID); err != nil {
		t.Fatalf("folder should survive foreign delete: %v", err)
	}
}

func TestFolderResolvePath(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	root, _ := svc.Create(ctx, "u1", "Root", nil)
	docs, _ := svc.Create(ctx, "u1", "Docs", &root.ID)
	work, _ := svc.Create(ctx, "u1", "Work", &docs.ID)

	path, err := svc.ResolvePath(ctx, "u1", work.ID)
	if err != nil {
		t.Fatalf("resolve path: %v", err)
	}

	want := []string{"Root", "Docs", "Work"}
	if len(path) != len(want) {
		t.Fatalf("path length = %d, want %d", len(path), len(want))
	}

	for i, item := range path {
		if item.Name != want[i] {
			t.Fatalf("path[%d] = %s, want %s", i, item.Name, want[i])
		}
	}
}

func TestFolderResolvePathCycle(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	a, _ := svc.Create(ctx, "u1", "a", nil)
	b, _ := svc.Create(ctx, "u1", "b", &a.ID)

	// 人为制造环：a 的父级指向 b
	if err := s.dbClient.GetDB().Model(&model.Folder{}).
		Where("id = ?", a.ID).
		Update("parent_id", b.ID).Error; err != nil {
		t.Fatalf("corrupt tree: %v", err)
	}

	if _, err := svc.ResolvePath(ctx, "u1", b.ID); apperr.CodeOf(err) != apperr.CodeCorruptState {
		t.Fatalf("cycle: want CorruptState, got %v", err)
	}
}

func TestFolderTree(t *testing.T) {
	s := newTestService(t)
	svc := &FolderService{s}
	ctx := context.Background()

	seedUser(t, s, "u1", 1<<30)

	docs, _ := svc.Create(ctx, "u1", "Docs", nil)
	work, _ := svc.Create(ctx, "u1", "Work", &docs.ID)

	seedFile(t, s, "u1", "root.txt", nil, 1, "text/plain")
	seedFile(t, s, "u1", "deep.txt", &work.ID, 1, "text/plain")

	tree, err := svc.Tree(ctx, "u1")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}

	if len(tree.RootFiles) != 1 || tree.RootFiles[0].Filename != "root.txt" {
		t.Fatalf("root files = %+v, want [root.txt]", tree.RootFiles)
	}

	if len(tree.Tree) != 1 || tree.Tree[0].Name != "Docs" {
		t.Fatalf("top level = %+v, want [Docs]", tree.Tree)
	}

	docsNode := tree.Tree[0]
	if len(docsNode.Children) != 1 || docsNode.Children[0].Name != "Work" {
		t.Fatalf("Docs children = %+v, want [Work]", docsNode.Children)
	}

	workNode := docsNode.Children[0]
	if len(workNode.Files) != 1 || workNode.Files[0].Filename != "deep.txt" {
		t.Fatalf("Work files = %+v, want [deep.txt]", workNode.Files)
	}
}
