// Package vault is the vault core's public façade (§4.7): it composes
// pkg/keymanager, pkg/vaultconfig, pkg/namecodec, pkg/filecipher (via
// pkg/streaming), pkg/dirmodel, and pkg/vaultlock into the
// resolve/list/read/write/create/delete/rename/move operations every
// mount backend (FUSE/FSKit/WebDAV/NFS, out of scope here — see
// pkg/mountadapter) drives.
package vault

import (
	"context"
	"path"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/spf13/afero"

	"github.com/vaultfs/vault8/internal/logger"
	"github.com/vaultfs/vault8/pkg/dirmodel"
	"github.com/vaultfs/vault8/pkg/keymanager"
	"github.com/vaultfs/vault8/pkg/namecodec"
	"github.com/vaultfs/vault8/pkg/streaming"
	"github.com/vaultfs/vault8/pkg/vaultconfig"
	"github.com/vaultfs/vault8/pkg/vaulterr"
	"github.com/vaultfs/vault8/pkg/vaultlock"
)

const (
	masterkeyFileName = "masterkey.cryptomator"
	manifestFileName  = "vault.cryptomator"
)

// Vault is one unlocked Cryptomator vault. It is a value: Unlock returns
// one, Close tears it down, and there is no process-wide shared state —
// every open handle, lock, and cached decision is reachable from this
// struct (§9, Global state: None).
type Vault struct {
	fs      afero.Fs
	root    string
	mk      *keymanager.MasterKey
	codec   *namecodec.Codec
	config  vaultconfig.VaultConfig
	runtime vaultconfig.RuntimeOptions

	locks   *vaultlock.Manager
	readers *vaultlock.HandleTable[*streaming.Reader]
	writers *vaultlock.HandleTable[*streaming.Writer]
}

// Dir is an opaque, already-resolved reference to a directory inside the
// vault: its DirId and the host filesystem path of its shard. Callers
// obtain one via Root or ResolveDir and pass it to the dir-scoped
// operations below; it is cheap to copy and safe to hold across calls
// (directories are looked up by DirId, not cached by path).
type Dir struct {
	id    dirmodel.ID
	shard string
}

// Unlock opens vault at root on fs, deriving the master key from
// passphrase and validating the signed manifest. passphrase is wiped
// before this returns, on every code path.
func Unlock(ctx context.Context, fs afero.Fs, root string, passphrase []byte) (*Vault, error) {
	defer memguard.WipeBytes(passphrase)

	mkRaw, err := afero.ReadFile(fs, path.Join(root, masterkeyFileName))
	if err != nil {
		return nil, vaulterr.NewIOError(root, "read masterkey.cryptomator", err)
	}
	params, wrapped, err := vaultconfig.ParseMasterkeyFile(mkRaw)
	if err != nil {
		return nil, err
	}

	mk, err := keymanager.Unlock(passphrase, params, wrapped)
	if err != nil {
		return nil, err
	}

	manifestRaw, err := afero.ReadFile(fs, path.Join(root, manifestFileName))
	if err != nil {
		mk.Destroy()
		return nil, vaulterr.NewIOError(root, "read vault.cryptomator", err)
	}
	cfg, err := vaultconfig.ParseManifest(strings.TrimSpace(string(manifestRaw)), mk)
	if err != nil {
		mk.Destroy()
		return nil, err
	}

	codec, err := namecodec.New(mk)
	if err != nil {
		mk.Destroy()
		return nil, err
	}

	rootShard, err := dirmodel.ShardPath(root, dirmodel.RootID, codec)
	if err != nil {
		mk.Destroy()
		return nil, err
	}
	if exists, statErr := afero.DirExists(fs, rootShard); statErr != nil || !exists {
		mk.Destroy()
		return nil, vaulterr.NewCorruptVaultError("vault root shard directory is missing: " + rootShard)
	}

	runtime := vaultconfig.DefaultRuntimeOptions()
	logger.Info("vault unlocked", "root", root, "config", cfg.String(), "max_buffered_file_size", runtime.MaxBufferedFileSize.String())

	return &Vault{
		fs:      fs,
		root:    root,
		mk:      mk,
		codec:   codec,
		config:  cfg,
		runtime: runtime,
		locks:   vaultlock.New(),
		readers: vaultlock.NewHandleTable[*streaming.Reader](),
		writers: vaultlock.NewHandleTable[*streaming.Writer](),
	}, nil
}

// SetRuntimeOptions replaces the vault's ambient RuntimeOptions (chunk
// cache sizing, lock shard hints, the max_buffered_file_size guard write
// paths enforce). Unlock seeds a Vault with vaultconfig.DefaultRuntimeOptions;
// callers that loaded their own via vaultconfig.LoadRuntimeOptions apply
// them here before driving any write operation.
func (v *Vault) SetRuntimeOptions(opts vaultconfig.RuntimeOptions) {
	vaultconfig.ApplyDefaults(&opts)
	v.runtime = opts
}

// Close destroys the vault's master key and releases its resources.
// Open handles are not implicitly closed; callers are responsible for
// closing everything they opened first.
func (v *Vault) Close() {
	v.mk.Destroy()
	logger.Info("vault closed", "root", v.root)
}

// Root returns a Dir referencing the vault root.
func (v *Vault) Root() (Dir, error) {
	shard, err := dirmodel.ShardPath(v.root, dirmodel.RootID, v.codec)
	if err != nil {
		return Dir{}, err
	}
	return Dir{id: dirmodel.RootID, shard: shard}, nil
}

func (v *Vault) dirFor(id dirmodel.ID) (Dir, error) {
	shard, err := dirmodel.ShardPath(v.root, id, v.codec)
	if err != nil {
		return Dir{}, err
	}
	return Dir{id: id, shard: shard}, nil
}

func (v *Vault) withEncKey(fn func([]byte) error) error {
	return v.mk.WithEncKey(fn)
}

// splitPath normalizes a slash-separated vault path into its plaintext
// components. Leading/trailing slashes and empty segments are dropped;
// "" and "/" both mean the root (an empty component sequence, §3 Vault
// Path).
func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		out = append(out, part)
	}
	return out
}

