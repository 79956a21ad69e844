package parse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.texgraph.dev/pkg/must"
)

var testCases = []struct {
	name string
	code string
	want string

	wantErrPart  string
	wantErrAtEnd bool
	wantErrMsg   string
}{
	// Operators
	{
		name: "addition",
		code: "1+2",
		want: "(+ 1 2)",
	},
	{
		name: "subtraction is left associative",
		code: "a-b-c",
		want: "(- (- $a $b) $c)",
	},
	{
		name: "explicit multiplication binds tighter than addition",
		code: `a+b\cdot c`,
		want: "(+ $a (cdot $b $c))",
	},
	{
		name: "asterisk is explicit multiplication",
		code: "a*b",
		want: "(cdot $a $b)",
	},
	{
		name: "slash is division",
		code: "1/2",
		want: "(/ 1 2)",
	},
	{
		name: "equality binds loosest",
		code: "y=x+1",
		want: "(= $y (+ $x 1))",
	},
	{
		name: "power is right associative",
		code: "a^b^c",
		want: "(^ $a (^ $b $c))",
	},
	{
		name: "power without braces takes one character",
		code: "x^23",
		want: "(* (^ $x 2) 3)",
	},
	{
		name: "power with braces",
		code: "x^{23}",
		want: "(^ $x 23)",
	},
	{
		name: "leading minus is negation",
		code: "-x^{2}",
		want: "(neg (^ $x 2))",
	},
	{
		name: "minus after an opening bracket is negation",
		code: `2\left(-1\right)`,
		want: "(* 2 (neg 1))",
	},
	{
		name: "minus after an operand is subtraction",
		code: "2-1",
		want: "(- 2 1)",
	},
	{
		name: "missing operand is kept as a hole",
		code: "2+",
		want: "(+ 2 _)",
	},

	// Implicit multiplication
	{
		name: "number followed by identifier",
		code: "2x",
		want: "(* 2 $x)",
	},
	{
		name: "implicit multiplication binds tighter than explicit",
		code: `a\cdot bc`,
		want: "(cdot $a (* $b $c))",
	},
	{
		name: "identifier followed by parenthesis",
		code: `x\left(x+1\right)`,
		want: "(* $x (+ $x 1))",
	},
	{
		name: "constants",
		code: `2\pi r`,
		want: "(* (* 2 pi) $r)",
	},
	{
		name: "e and i are constants",
		code: "e^{i}",
		want: "(^ e i)",
	},
	{
		name: "Greek letters are identifiers",
		code: `\alpha\beta`,
		want: "(* $alpha $beta)",
	},
	{
		name: "second point ends a literal",
		code: "1.5.2",
		want: "(* 1.5 .2)",
	},
	{
		name: "spacing commands are ignored",
		code: `a\,b\quad c`,
		want: "(* (* $a $b) $c)",
	},

	// Identifiers
	{
		name: "subscripts",
		code: "a_{12}+b_1",
		want: "(+ $a_12 $b_1)",
	},
	{
		name: "function identifier",
		code: `f\left(x,y\right)`,
		want: "(func$f $x $y)",
	},
	{
		name: "function identifier with plain parenthesis",
		code: "g_1(2)",
		want: "(func$g_1 2)",
	},
	{
		name: "function definition",
		code: `f\left(x\right)=x^{2}`,
		want: "(= (func$f $x) (^ $x 2))",
	},

	// Functions
	{
		name: "function binds through implicit multiplication",
		code: `\sin 2x`,
		want: "(sin (* 2 $x))",
	},
	{
		name: "function gives way to addition",
		code: `\sin x+1`,
		want: "(+ (sin $x) 1)",
	},
	{
		name: "function gives way to explicit multiplication",
		code: `\sin x\cdot 2`,
		want: "(cdot (sin $x) 2)",
	},
	{
		name: "function is applied before the next function starts",
		code: `\sin x\cos x`,
		want: "(* (sin $x) (cos $x))",
	},
	{
		name: "same function twice",
		code: `\sin x \sin y`,
		want: "(* (sin $x) (sin $y))",
	},
	{
		name: "coefficient before function",
		code: `2\sin x`,
		want: "(* 2 (sin $x))",
	},
	{
		name: "function applied to parenthesis collapses immediately",
		code: `\sin\left(x\right)^{2}`,
		want: "(^ (sin $x) 2)",
	},
	{
		name: "trigonometric power",
		code: `\sin^{2}x`,
		want: "(sin[2] $x)",
	},
	{
		name: "longest macro wins",
		code: `\sinh x`,
		want: "(sinh $x)",
	},
	{
		name: "logarithm base",
		code: `\log_{2}8`,
		want: "(log[2] 8)",
	},
	{
		name: "fraction",
		code: `\frac{1}{2}x`,
		want: "(* (frac 1 2) $x)",
	},
	{
		name: "fraction without braces",
		code: `\frac12`,
		want: "(frac 1 2)",
	},
	{
		name: "square root",
		code: `\sqrt{x}`,
		want: "(sqrt $x)",
	},
	{
		name: "square root without braces takes one character",
		code: `\sqrt2x`,
		want: "(* (sqrt 2) $x)",
	},
	{
		name: "root with index",
		code: `\sqrt[3]{8}`,
		want: "(sqrt[3] 8)",
	},

	// Summations
	{
		name: "sum",
		code: `\sum_{n=1}^{10}n^{2}`,
		want: "(sum[(= $n 1) 10] (^ $n 2))",
	},
	{
		name: "sum gives way to addition",
		code: `\prod_{k=1}^{3}k+1`,
		want: "(+ (prod[(= $k 1) 3] $k) 1)",
	},
	{
		name: "integral",
		code: `\int_{0}^{1}x^{2}dx`,
		want: "(int[0 1 (^ $x 2) $x])",
	},

	// Brackets
	{
		name: "vector",
		code: `\left(1,2,3\right)`,
		want: "(vector 1 2 3)",
	},
	{
		name: "array",
		code: `\left[1,2\right]`,
		want: "(array 1 2)",
	},
	{
		name: "vector constructor",
		code: `\langle 1,2\rangle`,
		want: "(langle[1 2])",
	},
	{
		name: "absolute value",
		code: `\left|x\right|`,
		want: "(abs $x)",
	},
	{
		name: "absolute value with plain bars",
		code: "|x|+1",
		want: "(+ (abs $x) 1)",
	},
	{
		name: "braces group",
		code: "{1+2}3",
		want: "(* (+ 1 2) 3)",
	},

	// Errors
	{
		name:         "empty input",
		code:         "",
		wantErrAtEnd: true,
		wantErrMsg:   "empty expression",
	},
	{
		name:        "unmatched parenthesis",
		code:        ")",
		wantErrPart: ")",
		wantErrMsg:  "mismatched closure ')'",
	},
	{
		name:        "unmatched right parenthesis",
		code:        `1\right)`,
		wantErrPart: `\right)`,
		wantErrMsg:  "mismatched closure ')'",
	},
	{
		name:        "unmatched bracket",
		code:        "]",
		wantErrPart: "]",
		wantErrMsg:  "mismatched closure ']'",
	},
	{
		name:        "unmatched brace",
		code:        "}",
		wantErrPart: "}",
		wantErrMsg:  "mismatched closure '}'",
	},
	{
		name:        "unmatched rangle",
		code:        `\rangle`,
		wantErrPart: `\rangle`,
		wantErrMsg:  `mismatched closure '\rangle'`,
	},
	{
		name:        "wrong closer",
		code:        `\left(1\right]`,
		wantErrPart: `\right]`,
		wantErrMsg:  "mismatched closure ']', should be )",
	},
	{
		name:        "unclosed parenthesis",
		code:        `\left(1`,
		wantErrPart: `\left(`,
		wantErrMsg:  "unclosed (, should be )",
	},
	{
		name:         "unterminated arguments",
		code:         `f\left(1`,
		wantErrAtEnd: true,
		wantErrMsg:   `unterminated clause, should be '\right)'`,
	},
	{
		name:        "unknown escape",
		code:        `a+\foo`,
		wantErrPart: `\foo`,
		wantErrMsg:  `unknown escape sequence \foo`,
	},
	{
		name:        "unimplemented macro",
		code:        `\lim_{x}`,
		wantErrPart: `\lim`,
		wantErrMsg:  `unimplemented clause kind \lim`,
	},
	{
		name:        "vector constructor without components",
		code:        `\langle\rangle`,
		wantErrPart: `\langle\rangle`,
		wantErrMsg:  "malformed vector clause: no components",
	},
	{
		name:        "vector constructor with empty component",
		code:        `\langle 1,\rangle`,
		wantErrPart: `\langle 1,\rangle`,
		wantErrMsg:  "malformed vector clause: empty component",
	},
	{
		name:        "commas in absolute value",
		code:        `\left|1,2\right|`,
		wantErrPart: `\left|1,2\right|`,
		wantErrMsg:  "malformed vector clause",
	},
	{
		name:        "comma outside of brackets",
		code:        "1,2",
		wantErrPart: ",",
		wantErrMsg:  "unexpected comma",
	},
	{
		name:        "comma in braces",
		code:        "{1,2}",
		wantErrPart: ",",
		wantErrMsg:  "unexpected comma",
	},
	{
		name:        "unexpected character",
		code:        "2#",
		wantErrPart: "#",
		wantErrMsg:  "unexpected character '#'",
	},
	{
		name:        "sum without upper bound",
		code:        `\sum_{n=1}n`,
		wantErrPart: `\sum_{n=1}`,
		wantErrMsg:  `\sum requires a lower and an upper bound`,
	},
	{
		name:         "missing subscript",
		code:         "x_",
		wantErrAtEnd: true,
		wantErrMsg:   "missing subscript",
	},
	{
		name:         "unterminated subscript",
		code:         "a_{1",
		wantErrAtEnd: true,
		wantErrMsg:   "unterminated subscript, should be '}'",
	},
}

func TestParse(t *testing.T) {
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			n, err := Parse(SourceForTest(test.code))
			if test.wantErrMsg == "" {
				if err != nil {
					t.Fatalf("Parse(%q) returns error: %v", test.code, err)
				}
				if got := Pprint(n); got != test.want {
					t.Errorf("Parse(%q) returns %s, want %s", test.code, got, test.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("Parse(%q) returns no error, want error with %q",
					test.code, test.wantErrMsg)
			}
			parseError := UnpackErrors(err)[0]
			r := parseError.Context

			if errPart := test.code[r.From:r.To]; errPart != test.wantErrPart {
				t.Errorf("Parse(%q) returns error with part %q, want %q",
					test.code, errPart, test.wantErrPart)
			}
			if atEnd := r.From == len(test.code); atEnd != test.wantErrAtEnd {
				t.Errorf("Parse(%q) returns error at end = %v, want %v",
					test.code, atEnd, test.wantErrAtEnd)
			}
			if errMsg := parseError.Message; errMsg != test.wantErrMsg {
				t.Errorf("Parse(%q) returns error with message %q, want %q",
					test.code, errMsg, test.wantErrMsg)
			}
		})
	}
}

func TestParse_PartialErrors(t *testing.T) {
	for _, code := range []string{"", `\left(1`, `f\left(1`, "x_", `\langle 1`} {
		_, err := Parse(SourceForTest(code))
		var parseError *Error
		if !errors.As(err, &parseError) {
			t.Errorf("Parse(%q) returns %v, want parse error", code, err)
			continue
		}
		if !parseError.Partial {
			t.Errorf("Parse(%q) returns error that is not partial", code)
		}
	}
	for _, code := range []string{")", `\foo`, "2#"} {
		_, err := Parse(SourceForTest(code))
		if parseError := UnpackErrors(err); len(parseError) != 1 || parseError[0].Partial {
			t.Errorf("Parse(%q) returns %v, want one error that is not partial", code, err)
		}
	}
}

func TestParse_IsIdempotent(t *testing.T) {
	for _, test := range testCases {
		if test.wantErrMsg != "" {
			continue
		}
		src := SourceForTest(test.code)
		first, second := must.OK1(Parse(src)), must.OK1(Parse(src))
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Parse(%q) is not idempotent (-first +second):\n%s", test.code, diff)
		}
	}
}

func TestParse_LeafRanges(t *testing.T) {
	code := `a_{1}+\alpha\cdot 2.5`
	leaves := must.OK1(must.OK1(Parse(SourceForTest(code))).Leaves())
	var got []string
	for _, leaf := range leaves {
		got = append(got, code[leaf.From:leaf.To])
	}
	want := []string{"a_{1}", `\alpha`, "2.5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("leaf ranges (-want +got):\n%s", diff)
	}
}

func TestLeaves(t *testing.T) {
	leafValues := func(code string) []string {
		leaves := must.OK1(must.OK1(Parse(SourceForTest(code))).Leaves())
		values := make([]string, len(leaves))
		for i, leaf := range leaves {
			values[i] = leaf.Type.String() + leaf.Value
		}
		return values
	}
	tests := []struct {
		code string
		want []string
	}{
		{"a+2b", []string{"$a", "#2", "$b"}},
		{`\pi r^{2}`, []string{"constpi", "$r", "#2"}},
		{`f\left(x\right)+1`, []string{"func$f", "$x", "#1"}},
		{`\sum_{n=1}^{3}n`, []string{"$n", "$n", "#1", "#3"}},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.want, leafValues(test.code)); diff != "" {
			t.Errorf("leaves of %q (-want +got):\n%s", test.code, diff)
		}
	}
}

func TestLeaves_Incomplete(t *testing.T) {
	for _, code := range []string{"2+", "-", `\frac{1}{}`, `\sum_{}^{3}n`} {
		n, err := Parse(SourceForTest(code))
		if err != nil {
			t.Errorf("Parse(%q) returns error: %v", code, err)
			continue
		}
		_, err = n.Leaves()
		var incomplete *IncompleteError
		if !errors.As(err, &incomplete) {
			t.Errorf("Leaves of %q returns %v, want incomplete expression", code, err)
		}
	}
}

func TestIsEquation(t *testing.T) {
	if !must.OK1(Parse(SourceForTest("y=x"))).IsEquation() {
		t.Errorf("y=x is not an equation")
	}
	if must.OK1(Parse(SourceForTest("x+1"))).IsEquation() {
		t.Errorf("x+1 is an equation")
	}
}
