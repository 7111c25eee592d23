package apk_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexgraph/internal/apk"
	"dexgraph/internal/dex/dextest"
)

func image(desc string) []byte {
	b := dextest.New()
	b.Class(desc, "Ljava/lang/Object;", dextest.AccPublic)
	return b.Bytes()
}

func writeZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.apk")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenAPK(t *testing.T) {
	path := writeZip(t, map[string][]byte{
		"classes3.dex":        image("Lc/Three;"),
		"classes.dex":         image("La/One;"),
		"classes2.dex":        image("Lb/Two;"),
		"res/raw/classes.dex": image("Lz/Ignored;"),
		"AndroidManifest.xml": []byte("<manifest/>"),
	})

	pkg, err := apk.Open(path, apk.Options{Workers: 2})
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, []string{"classes.dex", "classes2.dex", "classes3.dex"}, pkg.Names)
	var descs []string
	for _, c := range pkg.Classes() {
		descs = append(descs, c.Descriptor)
	}
	assert.Equal(t, []string{"La/One;", "Lb/Two;", "Lc/Three;"}, descs)
}

func TestOpenBareDex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framework.dex")
	require.NoError(t, os.WriteFile(path, image("Landroid/app/Activity;"), 0o644))

	pkg, err := apk.Open(path, apk.Options{})
	require.NoError(t, err)
	defer pkg.Close()

	require.Len(t, pkg.Files, 1)
	assert.Equal(t, "framework.dex", pkg.Names[0])
	assert.Equal(t, "Landroid/app/Activity;", pkg.Classes()[0].Descriptor)
}

func TestOpenErrors(t *testing.T) {
	_, err := apk.Open(writeZip(t, map[string][]byte{"AndroidManifest.xml": []byte("x")}), apk.Options{})
	assert.ErrorContains(t, err, "no classes.dex")

	_, err = apk.Open(writeZip(t, map[string][]byte{"classes.dex": []byte("not a dex image at all, definitely")}), apk.Options{})
	assert.Error(t, err)

	_, err = apk.Open(filepath.Join(t.TempDir(), "absent.apk"), apk.Options{})
	assert.Error(t, err)
}
