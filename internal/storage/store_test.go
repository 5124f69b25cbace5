package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildObjectKeyLayout(t *testing.T) {
	t.Parallel()

	key := BuildObjectKey("latest", "windows", "2.1.0", "Demo-Setup-2.1.0.exe")
	require.True(t, strings.HasPrefix(key, "latest/windows/2.1.0/"))
	require.True(t, strings.HasSuffix(key, "-Demo-Setup-2.1.0.exe"))

	rest := strings.TrimPrefix(key, "latest/windows/2.1.0/")
	require.NotContains(t, rest, "/", "filename segment must not add path levels")
}

// TestBuildObjectKeyUnique: re-uploads of the same logical file must
// not map to the same object.
func TestBuildObjectKeyUnique(t *testing.T) {
	t.Parallel()

	a := BuildObjectKey("latest", "windows", "2.1.0", "Demo-Setup-2.1.0.exe")
	b := BuildObjectKey("latest", "windows", "2.1.0", "Demo-Setup-2.1.0.exe")
	require.NotEqual(t, a, b)
}
