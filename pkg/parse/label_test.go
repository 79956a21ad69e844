package parse

import (
	"testing"

	"src.texgraph.dev/pkg/tt"
)

func TestSplitLabel(t *testing.T) {
	tt.Test(t, tt.Fn("SplitLabel", SplitLabel), tt.Table{
		tt.Args("a: 5").Rets("a", " 5", 2),
		tt.Args("  v_0 :20").Rets("v_0", "20", 7),
		tt.Args("f2:x+1").Rets("f2", "x+1", 3),
		tt.Args("a=5").Rets("", "a=5", 0),
		tt.Args(`f(x)=x^{2}`).Rets("", `f(x)=x^{2}`, 0),
		tt.Args(": 5").Rets("", ": 5", 0),
		tt.Args("2a: 5").Rets("", "2a: 5", 0),
		tt.Args("").Rets("", "", 0),
	})
}
