package styles

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	out := Render("# app.Main\n\n- `run[]` returns `void`\n", 60)
	for _, want := range []string{"app.Main", "run[]", "void"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered summary missing %q:\n%s", want, out)
		}
	}
}
