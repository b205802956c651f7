package bundle

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKnownVectors(t *testing.T) {
	assert.Equal(t, "d41d8cd9", Hash(nil))
	assert.Equal(t, "90015098", Hash([]byte("abc")))
}

func TestHashIsDeterministicPrefixOfMD5(t *testing.T) {
	for _, in := range []string{"", "AB", "body{color:red}", "\x00\xff"} {
		sum := md5.Sum([]byte(in))
		want := hex.EncodeToString(sum[:])[:8]
		assert.Equal(t, want, Hash([]byte(in)))
		assert.Equal(t, Hash([]byte(in)), Hash([]byte(in)))
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()

	none := MustNew(nil)
	assert.Empty(t, none.OutputPath(optsFor(dir, none), []byte("x")))

	fixed := MustNew(nil, WithOutput("gen/site.css"))
	assert.Equal(t, filepath.Join(dir, "gen", "site.css"), fixed.OutputPath(optsFor(dir, fixed), []byte("x")))

	hashed := MustNew(nil, WithOutput("gen/site.%s.css"))
	assert.Equal(t, filepath.Join(dir, "gen", "site."+Hash([]byte("AB"))+".css"), hashed.OutputPath(optsFor(dir, hashed), []byte("AB")))

	abs := MustNew(nil, WithOutput(filepath.Join(dir, "abs.%s.js")))
	assert.Equal(t, filepath.Join(dir, "abs."+Hash([]byte("x"))+".js"), abs.OutputPath(optsFor("/elsewhere", abs), []byte("x")))
}

func TestLatestCombinedPathFixed(t *testing.T) {
	dir := t.TempDir()
	b := MustNew(nil, WithOutput("site.css"))
	opts := optsFor(dir, b)

	_, ok := b.LatestCombinedPath(opts)
	assert.False(t, ok)

	p := writeFile(t, dir, "site.css", "x")
	got, ok := b.LatestCombinedPath(opts)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestLatestCombinedPathPicksNewest(t *testing.T) {
	dir := t.TempDir()
	b := MustNew(nil, WithOutput("gen/site.%s.css"))
	opts := optsFor(dir, b)

	_, ok := b.LatestCombinedPath(opts)
	assert.False(t, ok)

	now := time.Now()
	old := writeFile(t, dir, "gen/site.aaaaaaaa.css", "old")
	newer := writeFile(t, dir, "gen/site.bbbbbbbb.css", "new")
	writeFile(t, dir, "gen/site.toolongxx1.css", "ignored")
	touch(t, old, now.Add(-time.Hour))
	touch(t, newer, now)

	got, ok := b.LatestCombinedPath(opts)
	require.True(t, ok)
	assert.Equal(t, filepath.Base(newer), filepath.Base(got))

	touch(t, old, now.Add(time.Hour))
	got, ok = b.LatestCombinedPath(opts)
	require.True(t, ok)
	assert.Equal(t, filepath.Base(old), filepath.Base(got))
}

func TestLatestCombinedPathEscapesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "we[ird]")
	b := MustNew(nil, WithOutput("s.%s.css"))
	writeFile(t, dir, "s.12345678.css", "x")

	got, ok := b.LatestCombinedPath(optsFor(dir, b))
	require.True(t, ok)
	assert.Equal(t, "s.12345678.css", filepath.Base(got))
}

func TestHashFromPath(t *testing.T) {
	dir := t.TempDir()
	b := MustNew(nil, WithOutput("gen/site.%s.css"))
	opts := optsFor(dir, b)

	h, ok := b.HashFromPath(opts, b.OutputPath(opts, []byte("AB")))
	require.True(t, ok)
	assert.Equal(t, Hash([]byte("AB")), h)

	_, ok = b.HashFromPath(opts, filepath.Join(dir, "gen", "other.12345678.css"))
	assert.False(t, ok)

	fixed := MustNew(nil, WithOutput("site.css"))
	_, ok = fixed.HashFromPath(optsFor(dir, fixed), filepath.Join(dir, "site.css"))
	assert.False(t, ok)
}
