package vault

import (
	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// splitParentAndName resolves every component of p but the last as a
// directory, returning that parent Dir and the final path component as
// a plain name. Used by every *_by_path convenience wrapper in this
// file (§4.7, "*_by_path(path, …) // thin wrappers over above").
func (v *Vault) splitParentAndName(p string) (Dir, string, error) {
	components := splitPath(p)
	if len(components) == 0 {
		return Dir{}, "", vaulterr.NewInvalidArgumentError("path has no final component")
	}
	parent, err := v.resolveDirComponents(components[:len(components)-1])
	if err != nil {
		return Dir{}, "", err
	}
	return parent, components[len(components)-1], nil
}

// ListFilesByPath is ListFiles, resolving dirPath first.
func (v *Vault) ListFilesByPath(dirPath string) ([]FileInfo, error) {
	dir, err := v.ResolveDir(dirPath)
	if err != nil {
		return nil, err
	}
	return v.ListFiles(dir)
}

// ListDirectoriesByPath is ListDirectories, resolving dirPath first.
func (v *Vault) ListDirectoriesByPath(dirPath string) ([]DirInfo, error) {
	dir, err := v.ResolveDir(dirPath)
	if err != nil {
		return nil, err
	}
	return v.ListDirectories(dir)
}

// ListSymlinksByPath is ListSymlinks, resolving dirPath first.
func (v *Vault) ListSymlinksByPath(dirPath string) ([]SymlinkInfo, error) {
	dir, err := v.ResolveDir(dirPath)
	if err != nil {
		return nil, err
	}
	return v.ListSymlinks(dir)
}

// ListAllByPath is ListAll, resolving dirPath first.
func (v *Vault) ListAllByPath(dirPath string) ([]FileInfo, []DirInfo, []SymlinkInfo, error) {
	dir, err := v.ResolveDir(dirPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return v.ListAll(dir)
}

// ReadFileByPath is ReadFile, resolving path's parent directory first.
func (v *Vault) ReadFileByPath(p string) ([]byte, error) {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return nil, err
	}
	return v.ReadFile(dir, name)
}

// WriteFileByPath is WriteFile, resolving path's parent directory first.
func (v *Vault) WriteFileByPath(p string, contents []byte) error {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return err
	}
	return v.WriteFile(dir, name, contents)
}

// WriteFileExclusiveByPath is WriteFileExclusive, resolving path's
// parent directory first.
func (v *Vault) WriteFileExclusiveByPath(p string, contents []byte) error {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return err
	}
	return v.WriteFileExclusive(dir, name, contents)
}

// CreateDirectoryByPath is CreateDirectory, resolving path's parent
// directory first.
func (v *Vault) CreateDirectoryByPath(p string) (dirmodel.ID, error) {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return "", err
	}
	return v.CreateDirectory(dir, name)
}

// DeleteFileByPath is DeleteFile, resolving path's parent directory first.
func (v *Vault) DeleteFileByPath(p string) error {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return err
	}
	return v.DeleteFile(dir, name)
}

// DeleteDirectoryByPath is DeleteDirectory, resolving path's parent
// directory first.
func (v *Vault) DeleteDirectoryByPath(p string) error {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return err
	}
	return v.DeleteDirectory(dir, name)
}

// DeleteDirectoryRecursiveByPath is DeleteDirectoryRecursive, resolving
// path's parent directory first.
func (v *Vault) DeleteDirectoryRecursiveByPath(p string) (DeleteDirectoryRecursiveResult, error) {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return DeleteDirectoryRecursiveResult{}, err
	}
	return v.DeleteDirectoryRecursive(dir, name)
}

// RenameFileByPath is RenameFile, resolving oldPath's parent directory
// first; newPath must name a sibling in the same directory.
func (v *Vault) RenameFileByPath(oldPath, newPath string) error {
	dir, oldName, newName, err := v.sameDirRename(oldPath, newPath)
	if err != nil {
		return err
	}
	return v.RenameFile(dir, oldName, newName)
}

// RenameDirectoryByPath is RenameDirectory, resolving oldPath's parent
// directory first; newPath must name a sibling in the same directory.
func (v *Vault) RenameDirectoryByPath(oldPath, newPath string) error {
	dir, oldName, newName, err := v.sameDirRename(oldPath, newPath)
	if err != nil {
		return err
	}
	return v.RenameDirectory(dir, oldName, newName)
}

func (v *Vault) sameDirRename(oldPath, newPath string) (Dir, string, string, error) {
	oldDir, oldName, err := v.splitParentAndName(oldPath)
	if err != nil {
		return Dir{}, "", "", err
	}
	newDir, newName, err := v.splitParentAndName(newPath)
	if err != nil {
		return Dir{}, "", "", err
	}
	if oldDir.id != newDir.id {
		return Dir{}, "", "", vaulterr.NewInvalidArgumentError("rename source and destination must share a parent directory; use move instead")
	}
	return oldDir, oldName, newName, nil
}

// MoveFileByPath is MoveFile, resolving both paths' parent directories first.
func (v *Vault) MoveFileByPath(srcPath, dstDirPath string) error {
	srcDir, name, err := v.splitParentAndName(srcPath)
	if err != nil {
		return err
	}
	dstDir, err := v.ResolveDir(dstDirPath)
	if err != nil {
		return err
	}
	return v.MoveFile(srcDir, dstDir, name)
}

// MoveAndRenameFileByPath is MoveAndRenameFile, resolving both paths'
// parent directories first.
func (v *Vault) MoveAndRenameFileByPath(srcPath, dstPath string) error {
	srcDir, oldName, err := v.splitParentAndName(srcPath)
	if err != nil {
		return err
	}
	dstDir, newName, err := v.splitParentAndName(dstPath)
	if err != nil {
		return err
	}
	return v.MoveAndRenameFile(srcDir, oldName, dstDir, newName)
}

// CreateSymlinkByPath is CreateSymlink, resolving path's parent
// directory first.
func (v *Vault) CreateSymlinkByPath(p, target string) error {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return err
	}
	return v.CreateSymlink(dir, name, target)
}

// ReadSymlinkByPath is ReadSymlink, resolving path's parent directory first.
func (v *Vault) ReadSymlinkByPath(p string) (string, error) {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return "", err
	}
	return v.ReadSymlink(dir, name)
}

// OpenReaderByPath is OpenReader, resolving path's parent directory first.
func (v *Vault) OpenReaderByPath(p string) (uint64, error) {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return 0, err
	}
	return v.OpenReader(dir, name)
}

// OpenWriterByPath is OpenWriter, resolving path's parent directory first.
func (v *Vault) OpenWriterByPath(p string) (uint64, error) {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return 0, err
	}
	return v.OpenWriter(dir, name)
}

// CreateWriterByPath is CreateWriter, resolving path's parent directory first.
func (v *Vault) CreateWriterByPath(p string) (uint64, error) {
	dir, name, err := v.splitParentAndName(p)
	if err != nil {
		return 0, err
	}
	return v.CreateWriter(dir, name)
}
