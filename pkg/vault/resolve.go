package vault

import (
	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// ResolveDir walks every component of p as a directory, starting from the
// vault root, and returns the Dir the full path names. Returns
// vaulterr.ErrNotFound if any component is missing, or vaulterr.ErrInvalidArgument
// if a component names a file or symlink instead of a directory (§4.6,
// Directory resolution).
func (v *Vault) ResolveDir(p string) (Dir, error) {
	return v.resolveDirComponents(splitPath(p))
}

func (v *Vault) resolveDirComponents(components []string) (Dir, error) {
	cur, err := v.Root()
	if err != nil {
		return Dir{}, err
	}

	for _, name := range components {
		entry, err := v.resolveComponent(cur, name)
		if err != nil {
			return Dir{}, err
		}
		if entry.Kind != dirmodel.KindDirectory {
			return Dir{}, vaulterr.NewInvalidArgumentError("path component is not a directory: " + name)
		}
		cur, err = v.dirFor(entry.DirID)
		if err != nil {
			return Dir{}, err
		}
	}
	return cur, nil
}

// ResolvedPath describes what resolve_path found: a directory (Dir
// populated) or a file/symlink (Entry populated, relative to its parent
// Dir).
type ResolvedPath struct {
	Dir   Dir
	Entry dirmodel.Entry
	IsDir bool
}

// ResolvePath walks all but the last component of p as directories, then
// classifies the last component as whatever kind it actually is
// (§4.7 resolve_path).
func (v *Vault) ResolvePath(p string) (ResolvedPath, error) {
	components := splitPath(p)
	if len(components) == 0 {
		root, err := v.Root()
		if err != nil {
			return ResolvedPath{}, err
		}
		return ResolvedPath{Dir: root, IsDir: true}, nil
	}

	parent, err := v.resolveDirComponents(components[:len(components)-1])
	if err != nil {
		return ResolvedPath{}, err
	}
	leaf := components[len(components)-1]

	entry, err := v.resolveComponent(parent, leaf)
	if err != nil {
		return ResolvedPath{}, err
	}
	if entry.Kind == dirmodel.KindDirectory {
		d, err := v.dirFor(entry.DirID)
		if err != nil {
			return ResolvedPath{}, err
		}
		return ResolvedPath{Dir: d, Entry: entry, IsDir: true}, nil
	}
	return ResolvedPath{Dir: parent, Entry: entry}, nil
}

// resolveComponent resolves one plaintext name inside dir, populating
// Entry.DirID for directory entries by decrypting dir.c9r.
func (v *Vault) resolveComponent(dir Dir, name string) (dirmodel.Entry, error) {
	var entry *dirmodel.Entry
	var resolveErr error
	err := v.withEncKey(func(encKey []byte) error {
		e, err := dirmodel.ResolveComponent(v.fs, dir.shard, v.codec, dir.id, name, v.config.ShorteningThreshold)
		if err != nil {
			resolveErr = err
			return nil
		}
		if e.Kind == dirmodel.KindDirectory {
			childID, err := dirmodel.ReadDirID(v.fs, e.PayloadPath, encKey)
			if err != nil {
				resolveErr = err
				return nil
			}
			e.DirID = childID
		}
		entry = e
		return nil
	})
	if err != nil {
		return dirmodel.Entry{}, err
	}
	if resolveErr != nil {
		return dirmodel.Entry{}, resolveErr
	}
	return *entry, nil
}
