package dirmodel

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/vaultfs/vault8/pkg/namecodec"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// List enumerates the physical shard directory for parentID and returns
// one classified, name-decrypted Entry per child. The optional backup
// `dirid.c9r` marker is skipped, as are any `.c9s` shards whose name.c9s
// sidecar is itself unreadable (treated as a transient write in
// progress, not corruption — a fully written .c9s entry always has its
// name.c9s sibling created first).
func List(fs afero.Fs, shardPath string, codec *namecodec.Codec, parentID ID, threshold int) ([]Entry, error) {
	infos, err := afero.ReadDir(fs, shardPath)
	if err != nil {
		return nil, vaulterr.NewIOError(shardPath, "list directory", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if name == dirIDFileName {
			continue
		}

		var entry *Entry
		switch {
		case strings.HasSuffix(name, c9rSuffix):
			entry, err = classifyC9r(fs, shardPath, codec, parentID, name, info.IsDir())
		case strings.HasSuffix(name, c9sSuffix):
			entry, err = classifyC9s(fs, shardPath, codec, parentID, name)
			if entry == nil && err == nil {
				continue // in-progress shard without name.c9s yet
			}
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func classifyC9r(fs afero.Fs, shardPath string, codec *namecodec.Codec, parentID ID, name string, isDir bool) (*Entry, error) {
	encoded := strings.TrimSuffix(name, c9rSuffix)
	plaintext, err := codec.DecryptName(encoded, string(parentID))
	if err != nil {
		return nil, err
	}

	entryPath := filepath.Join(shardPath, name)
	if !isDir {
		return &Entry{Name: plaintext, EncodedName: encoded, Kind: KindFile, EntryPath: entryPath, PayloadPath: entryPath}, nil
	}
	e, err := classifyContainer(fs, encoded, entryPath, false)
	if err != nil {
		return nil, err
	}
	e.Name = plaintext
	return e, nil
}

func classifyC9s(fs afero.Fs, shardPath string, codec *namecodec.Codec, parentID ID, shardName string) (*Entry, error) {
	entryPath := filepath.Join(shardPath, shardName)
	stored, err := afero.ReadFile(fs, filepath.Join(entryPath, nameFileName))
	if err != nil {
		return nil, nil
	}
	basename := string(stored)
	encoded := strings.TrimSuffix(basename, c9rSuffix)

	plaintext, err := codec.DecryptName(encoded, string(parentID))
	if err != nil {
		return nil, err
	}

	e, err := classifyContainer(fs, encoded, entryPath, true)
	if err != nil {
		return nil, err
	}
	e.Name = plaintext
	return e, nil
}
