package version

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var suffixRe = regexp.MustCompile(`_v(\d+)$`)

// maxProbe bounds NextFree so a directory full of versions cannot spin forever.
const maxProbe = 10000

// Parse splits path into its stem (directory included), version and
// extension. version is nil when the stem carries no _v<N> suffix.
//
//	dir/prog_v3.py -> ("dir/prog", 3, ".py")
func Parse(path string) (stem string, version *big.Int, ext string) {
	dir, name := filepath.Split(path)

	ext = filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		// dot-file such as ".bashrc"
		base, ext = name, ""
	}

	if m := suffixRe.FindStringSubmatchIndex(base); m != nil {
		n, _ := new(big.Int).SetString(base[m[2]:m[3]], 10)
		return dir + base[:m[0]], n, ext
	}
	return dir + base, nil, ext
}

// Next returns the path of the version following path:
//
//	hello.py     -> hello_v1.py
//	hello_v2.py  -> hello_v3.py
//	hello_v99.py -> hello_v100.py
func Next(path string) string {
	stem, n, ext := Parse(path)
	if n == nil {
		n = big.NewInt(0)
	}
	return format(stem, new(big.Int).Add(n, big.NewInt(1)), ext)
}

// NextFree returns the first version after path that does not exist on fs.
// Versions someone created by hand are skipped rather than overwritten.
func NextFree(fs afero.Fs, path string) (string, error) {
	candidate := Next(path)
	for range maxProbe {
		ok, err := taken(fs, candidate)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if !ok {
			return candidate, nil
		}
		candidate = Next(candidate)
	}
	return "", fmt.Errorf("no free version after %s within %d attempts", path, maxProbe)
}

// taken reports whether anything, a dangling symlink included, occupies path.
func taken(fs afero.Fs, path string) (bool, error) {
	var err error
	if l, ok := fs.(afero.Lstater); ok {
		_, _, err = l.LstatIfPossible(path)
	} else {
		_, err = fs.Stat(path)
	}
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func format(stem string, n *big.Int, ext string) string {
	return fmt.Sprintf("%s_v%s%s", stem, n.String(), ext)
}
