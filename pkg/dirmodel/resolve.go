package dirmodel

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/vaultfs/vault8/pkg/namecodec"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// ResolveComponent looks up one plaintext path component inside the
// directory whose shard is shardPath and whose DirId is parentID, and
// classifies what it finds. Returns vaulterr.ErrNotFound if no matching
// entry exists on disk.
func ResolveComponent(fs afero.Fs, shardPath string, codec *namecodec.Codec, parentID ID, name string, threshold int) (*Entry, error) {
	encoded, err := codec.EncryptName(name, string(parentID))
	if err != nil {
		return nil, err
	}
	basename := encoded + c9rSuffix

	if namecodec.NeedsShortening(basename, threshold) {
		return resolveShortened(fs, shardPath, encoded, basename)
	}
	return resolveDirect(fs, shardPath, encoded, basename)
}

func resolveDirect(fs afero.Fs, shardPath, encoded, basename string) (*Entry, error) {
	entryPath := filepath.Join(shardPath, basename)
	info, err := fs.Stat(entryPath)
	if err != nil {
		return nil, vaulterr.NewNotFoundError(entryPath)
	}

	if !info.IsDir() {
		return &Entry{
			EncodedName: encoded,
			Kind:        KindFile,
			EntryPath:   entryPath,
			PayloadPath: entryPath,
		}, nil
	}
	return classifyContainer(fs, encoded, entryPath, false)
}

func resolveShortened(fs afero.Fs, shardPath, encoded, basename string) (*Entry, error) {
	shardName := namecodec.Shorten(basename) + c9sSuffix
	entryPath := filepath.Join(shardPath, shardName)

	if _, err := fs.Stat(entryPath); err != nil {
		return nil, vaulterr.NewNotFoundError(entryPath)
	}

	stored, err := afero.ReadFile(fs, filepath.Join(entryPath, nameFileName))
	if err != nil {
		return nil, vaulterr.NewCorruptVaultError("long-name shard is missing name.c9s: " + entryPath)
	}
	if string(stored) != basename {
		return nil, vaulterr.NewNotFoundError(entryPath)
	}

	return classifyContainer(fs, encoded, entryPath, true)
}

// classifyContainer determines whether a `.c9r`/`.c9s` container
// directory holds a subdirectory marker, a symlink target, or (for the
// shortened form only) a regular file's contents.
func classifyContainer(fs afero.Fs, encoded, entryPath string, shortened bool) (*Entry, error) {
	dirPayload := filepath.Join(entryPath, dirFileName)
	symlinkPayload := filepath.Join(entryPath, symlinkFileName)
	contentsPayload := filepath.Join(entryPath, contentsFileName)

	hasDir, _ := afero.Exists(fs, dirPayload)
	hasSymlink, _ := afero.Exists(fs, symlinkPayload)
	hasContents, _ := afero.Exists(fs, contentsPayload)

	count := boolToInt(hasDir) + boolToInt(hasSymlink) + boolToInt(hasContents)
	if count != 1 {
		return nil, vaulterr.NewCorruptVaultError("entry directory must contain exactly one payload: " + entryPath)
	}

	e := &Entry{EncodedName: encoded, EntryPath: entryPath, Shortened: shortened}
	switch {
	case hasDir:
		e.Kind = KindDirectory
		e.PayloadPath = dirPayload
	case hasSymlink:
		e.Kind = KindSymlink
		e.PayloadPath = symlinkPayload
	case hasContents:
		e.Kind = KindFile
		e.PayloadPath = contentsPayload
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
