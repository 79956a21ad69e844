package parse

import (
	"testing"

	"src.texgraph.dev/pkg/tt"
)

func tokenize(code string) ([]string, error) {
	toks, err := Tokenize(SourceForTest(code))
	if err != nil {
		return nil, err
	}
	strs := make([]string, len(toks))
	for i, tok := range toks {
		strs[i] = tok.String()
	}
	return strs, nil
}

func TestTokenize(t *testing.T) {
	tt.Test(t, tt.Fn("tokenize", tokenize), tt.Table{
		tt.Args("-1").Rets([]string{"Operator(neg)", "Literal(1)", "End()"}, nil),
		tt.Args("2-1").Rets(
			[]string{"Literal(2)", "Operator(-)", "Literal(1)", "End()"}, nil),
		tt.Args(`\left(-1\right)`).Rets(
			[]string{"Open(()", "Operator(neg)", "Literal(1)", "Close())", "End()"}, nil),
		tt.Args("a,-1").Rets(
			[]string{"Identifier(a)", "Comma(,)", "Operator(neg)", "Literal(1)", "End()"}, nil),
		tt.Args("1.2.3").Rets([]string{"Literal(1.2)", "Literal(.3)", "End()"}, nil),
		tt.Args(`e^{i\pi}`).Rets([]string{
			"Constant(e)", "Operator(^)", "OptOpen({)", "Constant(i)",
			"Constant(pi)", "OptClose(})", "End()"}, nil),
		tt.Args(`\, x\quad`).Rets([]string{"Identifier(x)", "End()"}, nil),
		tt.Args(`\alpha_{12}`).Rets([]string{"Identifier(alpha_12)", "End()"}, nil),
		tt.Args("|x|").Rets([]string{"Open(|)", "Identifier(x)", "Close(|)", "End()"}, nil),
		tt.Args(`\frac12`).Rets(
			[]string{"Function(frac)", "Literal(1)", "Literal(2)", "End()"}, nil),
		tt.Args("x^23").Rets([]string{
			"Identifier(x)", "Operator(^)", "Literal(2)", "Literal(3)", "End()"}, nil),
		tt.Args(`a\times b\div c`).Rets([]string{
			"Identifier(a)", "Operator(times)", "Identifier(b)", "Operator(div)",
			"Identifier(c)", "End()"}, nil),

		// Free names never start a function application.
		tt.Args("x(1)").Rets([]string{
			"Identifier(x)", "Open(()", "Literal(1)", "Close())", "End()"}, nil),
		tt.Args("t(1)").Rets([]string{
			"Identifier(t)", "Open(()", "Literal(1)", "Close())", "End()"}, nil),
		tt.Args("f(x,1)").Rets(
			[]string{"FuncIdent(f)[[Identifier(x)] [Literal(1)]]", "End()"}, nil),
		tt.Args("x_1(2)").Rets([]string{"FuncIdent(x_1)[[Literal(2)]]", "End()"}, nil),

		tt.Args(`\sum_{n=1}^{3}`).Rets([]string{
			"Summation(sum)[[Identifier(n) Operator(=) Literal(1)] [Literal(3)]]",
			"End()"}, nil),
		tt.Args(`\int_0^1 t\,dt`).Rets([]string{
			"Summation(int)[[Literal(0)] [Literal(1)] [Identifier(t)] [Identifier(t)]]",
			"End()"}, nil),

		tt.Args(`\oops`).Rets([]string(nil), tt.ErrorContaining(`unknown escape sequence \oops`)),
		tt.Args(`\int_0^1 x`).Rets([]string(nil), tt.ErrorContaining("unterminated clause")),
		tt.Args("a_+").Rets([]string(nil), tt.ErrorContaining("invalid subscript")),
		tt.Args("_").Rets([]string(nil), tt.ErrorContaining("unexpected subscript")),
	})
}

func TestMacroNames(t *testing.T) {
	names := MacroNames()
	has := make(map[string]bool)
	for i, name := range names {
		if i > 0 && names[i-1] >= name {
			t.Errorf("MacroNames not sorted at %q", name)
		}
		has[name] = true
	}
	for _, name := range []string{"frac", "sin", "sum", "alpha", "pi", "cdot"} {
		if !has[name] {
			t.Errorf("MacroNames lacks %q", name)
		}
	}
	for _, name := range []string{"quad", "left(", "lim"} {
		if has[name] {
			t.Errorf("MacroNames has %q", name)
		}
	}
}

func TestIsFreeName(t *testing.T) {
	tt.Test(t, tt.Fn("IsFreeName", IsFreeName), tt.Table{
		tt.Args("x").Rets(true),
		tt.Args("t").Rets(true),
		tt.Args("a").Rets(false),
		tt.Args("x_1").Rets(false),
	})
}
