package shell

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"src.texgraph.dev/pkg/must"
	. "src.texgraph.dev/pkg/prog/progtest"
	"src.texgraph.dev/pkg/testutil"
)

func TestDefinitionsInArgs(t *testing.T) {
	Test(t, &Program{},
		That("-c", "a=5", "b=a+3", ":eval b").
			WritesStdout("a = 5\nb: function of a\n8\n"),
		That("-c", "f(x)=x^{2}", ":eval f 3").
			WritesStdout("f(x): function\n9\n"),
		That("-c", "g(u,v)=u-v", ":eval g 5 2").
			WritesStdout("g(u,v): function\n3\n"),
		That("-c", "h: x+1", ":eval h 2").
			WritesStdout("h: function of x\n3\n"),
		That("-c", "v=\\langle 1,2\\rangle").
			WritesStdout("v = (1, 2)\n"),
		That("-c", ":tree 1+2x").
			WritesStdout("(+ 1 (* 2 $x))\n"),
	)
}

func TestErrors(t *testing.T) {
	Test(t, &Program{},
		That("-c", "a=2+").
			ExitsWith(2).
			WritesStderr("incomplete expression: missing operand\n"),
		That("-c", ":del a").
			ExitsWith(2).
			WritesStderr("a: no definition: a is not defined\n"),
		That("-c", "a=1", ":eval a 1").
			ExitsWith(2).
			WritesStdout("a = 1\n").
			WritesStderr("a constant takes no arguments, got 1\n"),
		That("-c", ":eval f x").
			ExitsWith(2).
			WritesStderr("undefined: f\n"),
		That("-c", ":foo").
			ExitsWith(2).
			WritesStderr("unknown command :foo; see :help\n"),
		That("-c", ":history").
			ExitsWith(2).
			WritesStderr("no history database; start with -db\n"),
		That("-c", `a=\foo`).
			ExitsWith(2).
			WritesStderrContaining(`unknown escape sequence \foo`),
		// Errors don't stop later lines.
		That("-c", "a=2+", "b=3").
			ExitsWith(2).
			WritesStdout("b = 3\n").
			WritesStderr("incomplete expression: missing operand\n"),
	)
}

func TestDelete(t *testing.T) {
	Test(t, &Program{},
		That("-c", "a=5", "b=a+3", ":del a", ":eval b").
			ExitsWith(2).
			WritesStdout("a = 5\nb: function of a\na is now undefined; needed by b\n").
			WritesStderr("undefined: a\n"),
		That("-c", "a=5", ":del a", ":vars").
			WritesStdout("a = 5\n"),
	)
}

func TestJSON(t *testing.T) {
	Test(t, &Program{},
		That("-json", "-c", "a=5").
			WritesStdout(`{"label":"a","kind":"constant","value":"5","visType":"none"}` + "\n"),
		That("-json", "-c", "f(x)=ax").
			WritesStdout(`{"label":"f","kind":"function","params":["x"],"deps":["a"],"visType":"cartesian"}` + "\n"),
		That("-json", "-c", "a=2+").
			ExitsWith(2).
			WritesStdoutContaining(`"message":"incomplete expression: missing operand"`),
		That("-json", "-c", `a=1+\foo`).
			ExitsWith(2).
			WritesStdout(`[{"fileName":"[definition]","start":4,"end":8,"message":"unknown escape sequence \\foo"}]` + "\n"),
	)
}

func TestInteractiveWithoutTerminal(t *testing.T) {
	Test(t, &Program{},
		That().WithStdin("a=5\nb=2a\n\n:vars\n").
			WritesStdout("a = 5\nb: function of a\n" +
				"none       a = 5\ncartesian  b: function of a\n"),
		// Errors are shown but don't change the exit status.
		That().WithStdin("a=2+\n").
			WritesStderr("incomplete expression: missing operand\n"),
		That().WithStdin(":help\n").
			WritesStdoutContaining(":del name"),
	)
}

func TestScript(t *testing.T) {
	dir := t.TempDir()
	sheet := filepath.Join(dir, "sheet.tex")
	must.WriteFile(sheet, "% constants\na = 5\r\nb: a+1\n\nf(x) = bx\n:eval f 2\n")
	bad := filepath.Join(dir, "bad.tex")
	must.WriteFile(bad, "a = \\foo\nc = 1\n")

	Test(t, &Program{},
		That(sheet).
			WritesStdout("a = 5\nb: function of a\nf(x): function of b\n12\n"),
		That(bad).
			ExitsWith(2).
			WritesStdout("c = 1\n").
			WritesStderrContaining(`unknown escape sequence \foo`),
		That(filepath.Join(dir, "nonexistent")).
			ExitsWith(2).
			WritesStderrContaining("cannot read"),
	)
}

func TestWorkbook(t *testing.T) {
	dir := t.TempDir()
	wb := filepath.Join(dir, "projectile.yaml")
	must.WriteFile(wb, testutil.Dedent(`
		definitions:
		  - latex: g=9.8
		  - label: h
		    latex: h(t)=v_0t-\frac{1}{2}gt^{2}
		  - latex: v_0=20
		`))
	saved := filepath.Join(dir, "saved.yaml")

	Test(t, &Program{},
		That("-workbook", wb, "-c", ":eval h 2").
			WritesStdout("20.4\n"),
		That("-workbook", wb, "-c", ":save "+saved),
		That("-c", ":load "+saved, ":eval v_0").
			WritesStdout("20\n"),
		That("-workbook", filepath.Join(dir, "nonexistent"), "-c", "a=1").
			ExitsWith(2).
			WritesStderrContaining("no such file"),
	)
}

func TestWorkbook_SavedToDB(t *testing.T) {
	dir := t.TempDir()
	wb := filepath.Join(dir, "projectile.yaml")
	must.WriteFile(wb, testutil.Dedent(`
		definitions:
		  - latex: g=9.8
		  - label: h
		    latex: h(t)=v_0t-\frac{1}{2}gt^{2}
		  - latex: v_0=20
		`))
	db := filepath.Join(dir, "db")
	db2 := filepath.Join(dir, "db2")

	Test(t, &Program{},
		That("-db", db, "-workbook", wb, "-c", ":eval h 2").
			WritesStdout("20.4\n"),
		That("-db", db, "-c", ":eval h 2").
			WritesStdout("20.4\n"),
		That("-db", db2, "-c", ":load "+wb),
		That("-db", db2, "-c", ":eval v_0").
			WritesStdout("20\n"),
	)
}

func TestVars_TruncatesLongLines(t *testing.T) {
	elems := make([]string, 30)
	for i := range elems {
		elems[i] = strconv.Itoa(i + 1)
	}
	def := `v=\langle ` + strings.Join(elems, ",") + `\rangle`
	Test(t, &Program{},
		That("-c", def, ":vars").
			WritesStdoutContaining("17, 18, …\n"),
	)
}

func TestHistoryAndRestore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")

	Test(t, &Program{},
		That("-db", db).WithStdin("a=5\nb=a+1\n:history\n").
			WritesStdout("a = 5\nb: function of a\n    1  a=5\n    2  b=a+1\n"),
		// Definitions are restored from the database.
		That("-db", db, "-c", ":eval b").
			WritesStdout("6\n"),
		That("-db", db, "-c", ":history 2").
			WritesStdout("    3  :history\n    4  :eval b\n"),
		That("-db", db, "-c", ":del b", ":vars").
			WritesStdout("none       a = 5\n"),
		That("-db", db, "-c", ":vars").
			WritesStdout("none       a = 5\n"),
	)
}
