package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dhamidi/jreflect/java/reflector"
)

// Increment when any persisted record changes shape.
const blobSchemaVersion uint16 = 1

var errCorrupt = errors.New("corrupt cache blob")

type envelope struct {
	Schema uint16
	Data   []byte
}

// memberRecord is a cached member list together with the checksums of the
// loose class files it was computed from.
type memberRecord struct {
	Name      string
	Members   []*reflector.MemberDescriptor
	Checksums map[string]string
}

// archiveManifest lets a later run restore an archive's index without
// opening it again.
type archiveManifest struct {
	Path     string
	Checksum string
	Classes  []string
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func encodeBlob(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	raw, err := msgpack.Marshal(&envelope{Schema: blobSchemaVersion, Data: data})
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

func decodeBlob(blob []byte, v interface{}) error {
	raw, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errCorrupt, err)
	}
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if env.Schema != blobSchemaVersion {
		return fmt.Errorf("%w: schema %d, want %d", errCorrupt, env.Schema, blobSchemaVersion)
	}
	if err := msgpack.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return nil
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) indexKey(fqcn string) string {
	return c.opts.JavaVersion + "/index/" + hashKey(fqcn)
}

func (c *Cache) memberKey(fqcn string) string {
	return c.opts.JavaVersion + "/member/" + hashKey(fqcn)
}

func (c *Cache) archiveKey(path string) string {
	return c.opts.JavaVersion + "/archive/" + hashKey(path)
}

func (c *Cache) checksumKey() string {
	return c.opts.JavaVersion + "/checksums"
}
