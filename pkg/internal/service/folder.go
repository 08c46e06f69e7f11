package service

import (
	"context"
	"errors"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"github.com/nidrive/nidrive/pkg/configs"
	"github.com/nidrive/nidrive/pkg/internal/apperr"
	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/types"
	nlog "github.com/nidrive/nidrive/pkg/log"
	"github.com/nidrive/nidrive/pkg/queue"
)

// FolderService 文件夹树操作.
type FolderService struct{ *Service }

// NewFolderService 从上下文构造文件夹服务.
func NewFolderService(c context.Context) *FolderService { return &FolderService{NewService(c)} }

// maxFolderDepth 路径解析的深度上限，超过视为树损坏.
const maxFolderDepth = 512

// getOwnedFolder 加载属于 owner 的文件夹；他人或不存在统一返回 NotFound.
func getOwnedFolder(dbx *gorm.DB, owner string, id uint) (*model.Folder, error) {
	var folder model.Folder

	err := dbx.Where("id = ? AND owner_id = ?", id, owner).First(&folder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "folder not found")
	}

	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load folder", err)
	}

	return &folder, nil
}

// Create 创建文件夹；父级必须存在且属于 owner.
// 同级允许重名（与上层客户端行为保持一致）.
func (s *FolderService) Create(ctx context.Context, owner, name string, parentID *uint) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "folder name required")
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	if parentID != nil {
		if _, err := getOwnedFolder(dbx, owner, *parentID); err != nil {
			return nil, err
		}
	}

	folder := model.Folder{
		Name:     name,
		OwnerID:  owner,
		ParentID: parentID,
	}
	if err := dbx.Create(&folder).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "create folder", err)
	}

	return &folder, nil
}

// List 列出 parentID 的直接子文件夹；parentID 为空表示根级.
func (s *FolderService) List(ctx context.Context, owner string, parentID *uint, sortBy, order string) ([]model.Folder, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	q := dbx.Where("owner_id = ?", owner)
	if parentID != nil {
		if _, err := getOwnedFolder(dbx, owner, *parentID); err != nil {
			return nil, err
		}

		q = q.Where("parent_id = ?", *parentID)
	} else {
		q = q.Where("parent_id IS NULL")
	}

	var folders []model.Folder
	if err := q.Order(folderOrderClause(sortBy, order)).Find(&folders).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "list folders", err)
	}

	return folders, nil
}

// folderOrderClause 把排序参数转成安全的 ORDER BY 子句.
func folderOrderClause(sortBy, order string) string {
	col := "name"
	if sortBy == "date" {
		col = "created_at"
	}

	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}

	return col + " " + dir
}

// Rename 重命名文件夹.
func (s *FolderService) Rename(ctx context.Context, owner string, id uint, newName string) (*model.Folder, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "folder name required")
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	folder, err := getOwnedFolder(dbx, owner, id)
	if err != nil {
		return nil, err
	}

	if err := dbx.Model(folder).Update("name", newName).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "rename folder", err)
	}

	folder.Name = newName

	return folder, nil
}

// Move 把文件夹移动到新父级；newParentID 为空表示移动到根级.
// 新父级不能是自身或自身的后代，否则会造成环.
func (s *FolderService) Move(ctx context.Context, owner string, id uint, newParentID *uint) (*model.Folder, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	folder, err := getOwnedFolder(dbx, owner, id)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if *newParentID == id {
			return nil, apperr.New(apperr.CodeInvalidArgument, "cannot move folder into itself")
		}

		if _, err := getOwnedFolder(dbx, owner, *newParentID); err != nil {
			return nil, err
		}

		subtree, err := collectSubtree(dbx, owner, id)
		if err != nil {
			return nil, err
		}

		for _, sub := range subtree {
			if sub == *newParentID {
				return nil, apperr.New(apperr.CodeInvalidArgument, "cannot move folder into its descendant")
			}
		}
	}

	if err := dbx.Model(folder).Update("parent_id", newParentID).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "move folder", err)
	}

	folder.ParentID = newParentID

	return folder, nil
}

// collectSubtree BFS 收集以 rootID 为根的整棵子树（含根）.
func collectSubtree(dbx *gorm.DB, owner string, rootID uint) ([]uint, error) {
	all := []uint{rootID}
	frontier := []uint{rootID}

	for len(frontier) > 0 {
		var children []uint
		if err := dbx.Model(&model.Folder{}).
			Where("owner_id = ? AND parent_id IN ?", owner, frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "collect subtree", err)
		}

		if len(all)+len(children) > maxFolderDepth*maxFolderDepth {
			return nil, apperr.New(apperr.CodeCorruptState, "folder subtree too large, possible cycle")
		}

		all = append(all, children...)
		frontier = children
	}

	return all, nil
}

// Delete 在单个事务内递归删除整棵子树：文件元数据、配额、文件夹行.
// 对象存储的清理在提交后尽力执行.
func (s *FolderService) Delete(ctx context.Context, owner string, id uint) (*types.DeleteFolderResponse, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)
	quota := &QuotaService{s.Service}

	var (
		result   types.DeleteFolderResponse
		blobKeys []string
	)

	err := dbx.Transaction(func(tx *gorm.DB) error {
		if _, err := getOwnedFolder(tx, owner, id); err != nil {
			return err
		}

		subtree, err := collectSubtree(tx, owner, id)
		if err != nil {
			return err
		}

		var files []model.File
		if err := tx.Where("owner_id = ? AND folder_id IN ?", owner, subtree).Find(&files).Error; err != nil {
			return apperr.Wrap(apperr.CodeInternal, "load subtree files", err)
		}

		var freed int64

		fileIDs := make([]string, 0, len(files))

		for _, f := range files {
			freed += f.SizeBytes

			blobKeys = append(blobKeys, f.BlobKey)
			fileIDs = append(fileIDs, f.ID)
		}

		if len(files) > 0 {
			if err := tx.Where("owner_id = ? AND folder_id IN ?", owner, subtree).
				Delete(&model.File{}).Error; err != nil {
				return apperr.Wrap(apperr.CodeInternal, "delete subtree files", err)
			}

			// 直链令牌随文件一起失效
			if err := tx.Where("file_id IN ?", fileIDs).
				Delete(&model.AccessToken{}).Error; err != nil {
				return apperr.Wrap(apperr.CodeInternal, "delete subtree tokens", err)
			}

			if err := quota.Release(tx, owner, freed); err != nil {
				return err
			}
		}

		if err := tx.Where("owner_id = ? AND id IN ?", owner, subtree).
			Delete(&model.Folder{}).Error; err != nil {
			return apperr.Wrap(apperr.CodeInternal, "delete folders", err)
		}

		result = types.DeleteFolderResponse{
			DeletedFolders: len(subtree),
			DeletedFiles:   len(files),
			FreedBytes:     freed,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交后清理对象；失败只记录，由对账兜底
	for _, key := range blobKeys {
		if s.s3Client == nil {
			break
		}

		if err := s.s3Client.RemoveObject(ctx, s.s3Client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
			nlog.Logger().Warn().Str("key", key).Err(err).Msg("remove blob after folder delete failed")
		}
	}

	quota.InvalidateStats(ctx, owner)
	s.publishFolderDeleted(ctx, owner, id, &result)

	return &result, nil
}

// publishFolderDeleted 发布文件夹删除事件（尽力而为）.
func (s *FolderService) publishFolderDeleted(ctx context.Context, owner string, id uint, result *types.DeleteFolderResponse) {
	evCfg := configs.GetConfig().Events
	if s.mqClient == nil || !evCfg.Enabled || !evCfg.Folder.Deleted {
		return
	}

	err := queue.PublishFolderDeleted(ctx, s.mqClient, queue.FolderDeletedPayload{
		FolderID:       id,
		OwnerID:        owner,
		DeletedFolders: result.DeletedFolders,
		DeletedFiles:   result.DeletedFiles,
		FreedBytes:     result.FreedBytes,
	}, queue.WithProducer("nidrive"))
	if err != nil {
		nlog.Logger().Debug().Err(err).Msg("publish folder.deleted failed")
	}
}

// ResolvePath 返回 root→leaf 的面包屑.
// 发现环或深度超限说明树已损坏，记录上下文后返回 CorruptState.
func (s *FolderService) ResolvePath(ctx context.Context, owner string, id uint) ([]types.BreadcrumbItem, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	folder, err := getOwnedFolder(dbx, owner, id)
	if err != nil {
		return nil, err
	}

	path := []types.BreadcrumbItem{}
	visited := map[uint]bool{}
	current := folder

	for depth := 0; ; depth++ {
		if visited[current.ID] || depth > maxFolderDepth {
			nlog.Logger().Error().
				Str("owner", owner).
				Uint("folder_id", id).
				Uint("at", current.ID).
				Int("depth", depth).
				Msg("folder tree cycle detected")

			return nil, apperr.New(apperr.CodeCorruptState, "folder tree is corrupt")
		}

		visited[current.ID] = true
		path = append([]types.BreadcrumbItem{{ID: current.ID, Name: current.Name}}, path...)

		if current.ParentID == nil {
			break
		}

		parent, err := getOwnedFolder(dbx, owner, *current.ParentID)
		if err != nil {
			if apperr.CodeOf(err) == apperr.CodeNotFound {
				nlog.Logger().Error().
					Str("owner", owner).
					Uint("folder_id", id).
					Uint("missing_parent", *current.ParentID).
					Msg("folder parent missing")

				return nil, apperr.New(apperr.CodeCorruptState, "folder tree is corrupt")
			}

			return nil, err
		}

		current = parent
	}

	return path, nil
}

// Recent 最近创建的文件夹.
func (s *FolderService) Recent(ctx context.Context, owner string, limit int) ([]model.Folder, error) {
	if limit <= 0 {
		limit = 10
	}

	var folders []model.Folder

	err := s.dbClient.GetDB().WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at DESC").
		Limit(limit).
		Find(&folders).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "recent folders", err)
	}

	return folders, nil
}

// Tree 返回完整的嵌套文件夹+文件树，根级文件单独给出.
func (s *FolderService) Tree(ctx context.Context, owner string) (*types.FolderTreeResponse, error) {
	dbx := s.dbClient.GetDB().WithContext(ctx)

	var folders []model.Folder
	if err := dbx.Where("owner_id = ?", owner).Order("name ASC").Find(&folders).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load folders", err)
	}

	var files []model.File
	if err := dbx.Where("owner_id = ?", owner).Order("filename ASC").Find(&files).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "load files", err)
	}

	filesByFolder := map[uint][]types.FileResponse{}

	rootFiles := []types.FileResponse{}

	for i := range files {
		fr := toFileResponse(&files[i])
		if files[i].FolderID == nil {
			rootFiles = append(rootFiles, fr)
		} else {
			filesByFolder[*files[i].FolderID] = append(filesByFolder[*files[i].FolderID], fr)
		}
	}

	childrenByParent := map[uint][]*model.Folder{}

	roots := []*model.Folder{}

	for i := range folders {
		f := &folders[i]
		if f.ParentID == nil {
			roots = append(roots, f)
		} else {
			childrenByParent[*f.ParentID] = append(childrenByParent[*f.ParentID], f)
		}
	}

	var build func(f *model.Folder, depth int) (types.FolderTreeNode, error)

	build = func(f *model.Folder, depth int) (types.FolderTreeNode, error) {
		if depth > maxFolderDepth {
			return types.FolderTreeNode{}, apperr.New(apperr.CodeCorruptState, "folder tree is corrupt")
		}

		node := types.FolderTreeNode{
			ID:       f.ID,
			Name:     f.Name,
			Children: []types.FolderTreeNode{},
			Files:    filesByFolder[f.ID],
		}
		if node.Files == nil {
			node.Files = []types.FileResponse{}
		}

		for _, child := range childrenByParent[f.ID] {
			childNode, err := build(child, depth+1)
			if err != nil {
				return types.FolderTreeNode{}, err
			}

			node.Children = append(node.Children, childNode)
		}

		return node, nil
	}

	tree := make([]types.FolderTreeNode, 0, len(roots))

	for _, root := range roots {
		node, err := build(root, 0)
		if err != nil {
			return nil, err
		}

		tree = append(tree, node)
	}

	return &types.FolderTreeResponse{Tree: tree, RootFiles: rootFiles}, nil
}
