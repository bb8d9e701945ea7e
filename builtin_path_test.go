package sharp

import (
	"path/filepath"
	"testing"
)

func Test_Path_JoinAndParts(t *testing.T) {
	wantStr(t, evalSrc(t, `path_join("a", "b", "c.txt")`), filepath.Join("a", "b", "c.txt"))
	wantStr(t, evalSrc(t, `basename(path_join("a", "b.txt"))`), "b.txt")
	wantStr(t, evalSrc(t, `dirname(path_join("a", "b.txt"))`), "a")
}

func Test_Path_Splitext(t *testing.T) {
	v := evalSrc(t, `splitext(path_join("dir", "notes.md"))`)
	parts := v.Tuple()
	wantStr(t, parts[0], filepath.Join("dir", "notes"))
	wantStr(t, parts[1], ".md")

	v = evalSrc(t, `splitext("noext")`)
	parts = v.Tuple()
	wantStr(t, parts[0], "noext")
	wantStr(t, parts[1], "")
}

func Test_Path_Abspath(t *testing.T) {
	v := evalSrc(t, `abspath("x.sharp")`)
	if v.Tag != VTStr || !filepath.IsAbs(v.AsStr()) {
		t.Fatalf("abspath returned %#v", v)
	}
	wantKind(t, `path_join(1)`, "TypeError")
}
