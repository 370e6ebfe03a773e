package vaultconfig

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/vaultfs/vault8/internal/bytesize"
	"github.com/vaultfs/vault8/pkg/vaulterr"
)

// RuntimeOptions carries the operational knobs that shape how a vault
// session behaves, as distinct from VaultConfig's on-disk, signed,
// immutable-per-vault manifest. RuntimeOptions is loaded per-process
// (or per-test) from a config file and VAULT8_*-prefixed environment
// variables, the same load-then-default shape as DittoFS's pkg/config.
type RuntimeOptions struct {
	// ChunkCacheChunks is the number of decrypted chunks pkg/streaming
	// keeps per open reader.
	ChunkCacheChunks int `mapstructure:"chunk_cache_chunks"`

	// LockShards is advisory guidance for how finely a mount backend
	// should consider sharding its own higher-level locks on top of
	// pkg/vaultlock.Manager's two sharded maps; the core itself shards
	// by the actual key space, not by a fixed shard count, so this
	// exists only for backends that want a matching sizing hint for
	// their own auxiliary structures (e.g. an attribute cache).
	LockShards int `mapstructure:"lock_shards"`

	// ScryptCostOverride, when non-zero, replaces
	// keymanager.DefaultScryptCostParam. Tests set this to a tiny value
	// so unlock fixtures don't pay real scrypt cost; production code
	// must never set this — the value actually used for unlock always
	// comes from the vault's own masterkey.cryptomator, never from
	// RuntimeOptions.
	ScryptCostOverride int `mapstructure:"scrypt_cost_override"`

	// MaxBufferedFileSize caps how large a file pkg/streaming.Writer will
	// buffer in memory before write_file/open_writer refuses with
	// vaulterr.ErrInvalidArgument. Accepts the same human-readable forms
	// as DittoFS's own size-limited config fields ("64Mi", "1Gi", ...).
	MaxBufferedFileSize bytesize.ByteSize `mapstructure:"max_buffered_file_size"`
}

// DefaultRuntimeOptions returns the options a freshly created Viper
// session uses before any file or environment override is applied.
func DefaultRuntimeOptions() RuntimeOptions {
	return RuntimeOptions{
		ChunkCacheChunks:    8,
		LockShards:          64,
		MaxBufferedFileSize: 256 * bytesize.MiB,
	}
}

// ApplyDefaults fills any zero-valued field of opts with its default,
// the same "zero values are replaced, explicit values are preserved"
// strategy as DittoFS's config.ApplyDefaults.
func ApplyDefaults(opts *RuntimeOptions) {
	defaults := DefaultRuntimeOptions()
	if opts.ChunkCacheChunks <= 0 {
		opts.ChunkCacheChunks = defaults.ChunkCacheChunks
	}
	if opts.LockShards <= 0 {
		opts.LockShards = defaults.LockShards
	}
	if opts.MaxBufferedFileSize <= 0 {
		opts.MaxBufferedFileSize = defaults.MaxBufferedFileSize
	}
}

// ValidateMaxBufferedFileSize rejects a plaintext file size that exceeds
// opts.MaxBufferedFileSize, reporting both sizes in the same
// human-readable form bytesize.ByteSize.String() produces for log lines.
func (opts RuntimeOptions) ValidateMaxBufferedFileSize(plaintextSize uint64) error {
	limit := opts.MaxBufferedFileSize
	if limit > 0 && bytesize.ByteSize(plaintextSize) > limit {
		return vaulterr.NewInvalidArgumentError(
			"file size " + bytesize.ByteSize(plaintextSize).String() + " exceeds max_buffered_file_size " + limit.String())
	}
	return nil
}

// LoadRuntimeOptions reads RuntimeOptions from configPath (if non-empty)
// and VAULT8_*-prefixed environment variables, then applies defaults to
// whatever neither source set. An empty configPath skips the file
// search entirely and returns defaults overridden only by environment.
func LoadRuntimeOptions(configPath string) (RuntimeOptions, error) {
	v := viper.New()
	v.SetEnvPrefix("VAULT8")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return RuntimeOptions{}, vaulterr.Wrap(vaulterr.ErrIO, "failed to read vault8 runtime config", err)
		}
	}

	var opts RuntimeOptions
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	if err := v.Unmarshal(&opts, viper.DecodeHook(hook)); err != nil {
		return RuntimeOptions{}, vaulterr.Wrap(vaulterr.ErrInvalidArgument, "failed to unmarshal vault8 runtime config", err)
	}
	ApplyDefaults(&opts)
	return opts, nil
}
