package utils

import (
	"errors"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestHashBytesSeparatesParts(t *testing.T) {
	require.NotEqual(t, HashBytes([]byte("ab"), []byte("c")), HashBytes([]byte("a"), []byte("bc")))
	require.Equal(t, HashString("chest pain"), HashBytes([]byte("chest pain")))
}

func TestReadListSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.txt")
	require.NoError(t, os.WriteFile(path, []byte("# negation cues\nno\n\n  denies  \n"), 0o600))

	list, err := ReadList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"no", "denies"}, list)
}

func TestRecoverWithError(t *testing.T) {
	run := func() (err error) {
		defer RecoverWithError(&err)
		panic(errors.New("boom"))
	}
	err := run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}
