package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"noxcmd/internal/archive"
)

func TestPathBasics(t *testing.T) {
	p := FromReal("/home/user")
	assert.Equal(t, "/home/user", p.String())
	assert.Equal(t, "user", p.Base())
	assert.False(t, p.IsRoot())
	assert.False(t, p.IsMounted())

	root := FromReal("/")
	assert.True(t, root.IsRoot())
	assert.Equal(t, "/", root.String())
	assert.Equal(t, "/", root.Base())

	child := p.Join("docs")
	assert.Equal(t, "/home/user/docs", child.String())
	assert.True(t, child.Parent().Equal(p))
	assert.True(t, root.Parent().Equal(root))
}

func TestPathMounts(t *testing.T) {
	zipFile := FromReal("/data/a.zip")
	zipRoot := zipFile.Mounted(archive.FormatZip)
	assert.True(t, zipRoot.IsMounted())
	assert.True(t, zipRoot.AtArchiveRoot())
	assert.False(t, zipFile.Equal(zipRoot), "mount marker distinguishes file from mounted view")

	inner := zipRoot.Join("sub").Join("b.txt")
	assert.True(t, inner.IsMounted())
	assert.False(t, inner.AtArchiveRoot())
	assert.Equal(t, "/data/a.zip/sub/b.txt", inner.String())

	// Ascending out of the archive drops the mount marker.
	sub := inner.Parent()
	assert.True(t, sub.Equal(zipRoot.Join("sub")))
	back := sub.Parent()
	assert.True(t, back.Equal(zipRoot))
	out := back.Parent()
	assert.False(t, out.IsMounted())
	assert.Equal(t, "/data", out.String())

	assert.True(t, zipFile.Equal(zipRoot.Unmounted()))
}

func TestPathHasPrefix(t *testing.T) {
	src := FromReal("/x")
	dst := FromReal("/x/y")
	assert.True(t, dst.HasPrefix(src))
	assert.True(t, src.HasPrefix(src))
	assert.False(t, src.HasPrefix(dst))
	assert.False(t, FromReal("/xy").HasPrefix(src))

	zipRoot := FromReal("/x/a.zip").Mounted(archive.FormatZip)
	assert.True(t, zipRoot.Join("f").HasPrefix(zipRoot))
	// The container as a file is not a prefix of its mounted namespace
	// in the other direction.
	assert.True(t, zipRoot.HasPrefix(FromReal("/x/a.zip")))
}

func TestPathContainer(t *testing.T) {
	plain := FromReal("/home/user/file.txt")
	assert.True(t, plain.Container().Equal(plain))

	outer := FromReal("/d/outer.zip").Mounted(archive.FormatZip)
	deep := outer.Join("inner.tar").Mounted(archive.FormatTar).Join("f.txt")
	got := deep.Container()
	assert.False(t, got.IsMounted())
	assert.Equal(t, "/d/outer.zip", got.Real())
}

func TestNestedMountParent(t *testing.T) {
	outer := FromReal("/d/outer.zip").Mounted(archive.FormatZip)
	innerFile := outer.Join("inner.tar")
	innerRoot := innerFile.Mounted(archive.FormatTar)
	deep := innerRoot.Join("f.txt")

	assert.True(t, deep.Parent().Equal(innerRoot))
	assert.True(t, innerRoot.Parent().Equal(outer), "leaving the inner archive lands in the outer one")
	assert.True(t, outer.Parent().Equal(FromReal("/d")))
}
