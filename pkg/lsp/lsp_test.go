package lsp

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"src.texgraph.dev/pkg/must"
	"src.texgraph.dev/pkg/testutil"
)

var sheet = strings.Join([]string{
	`a = 5`,
	`b: a+`,
	`c = d+1`,
	`k = 2i`,
	`% comment`,
	`f(x) = a+\foo`,
	`g(x) = ax^{2}`,
}, "\n")

// A diagnostic without the parts that are not interesting to tests.
type diagnostic struct {
	Line     int
	Severity lsp.DiagnosticSeverity
	Source   string
	Message  string
}

func simplify(diags []lsp.Diagnostic) []diagnostic {
	simple := make([]diagnostic, len(diags))
	for i, d := range diags {
		simple[i] = diagnostic{d.Range.Start.Line, d.Severity, d.Source, d.Message}
	}
	return simple
}

func TestDiagnostics(t *testing.T) {
	doc := analyze(sheet)
	want := []diagnostic{
		{1, lsp.Error, "resolve", "b: incomplete expression: missing operand"},
		{5, lsp.Error, "parse", `unknown escape sequence \foo`},
		{2, lsp.Warning, "resolve", "d is not defined"},
		{3, lsp.Warning, "eval", "complex numbers are not supported"},
	}
	if diff := cmp.Diff(want, simplify(doc.diags)); diff != "" {
		t.Errorf("diagnostics (-want +got):\n%s", diff)
	}
}

func TestDiagnostics_ParseErrorRange(t *testing.T) {
	doc := analyze(sheet)
	want := lsp.Range{
		Start: lsp.Position{Line: 5, Character: 9},
		End:   lsp.Position{Line: 5, Character: 13},
	}
	if diff := cmp.Diff(want, doc.diags[1].Range); diff != "" {
		t.Errorf("range (-want +got):\n%s", diff)
	}
}

func TestDiagnostics_NoErrors(t *testing.T) {
	doc := analyze("a = 5\r\nb = a+1\r\n")
	if len(doc.diags) != 0 {
		t.Errorf("got diagnostics %v, want none", doc.diags)
	}
}

func TestUpdate_PublishesInOrder(t *testing.T) {
	s := newServer()
	conn := &recordingConn{}
	s.update(context.Background(), conn, "file:///sheet.tex", "a = 1+")
	s.update(context.Background(), conn, "file:///sheet.tex", "a = 1")

	// Diagnostics are published before update returns, one batch per call.
	if len(conn.published) != 2 {
		t.Fatalf("got %d publications, want 2", len(conn.published))
	}
	if n := len(conn.published[0].Diagnostics); n != 1 {
		t.Errorf("first publication has %d diagnostics, want 1", n)
	}
	if n := len(conn.published[1].Diagnostics); n != 0 {
		t.Errorf("second publication has %d diagnostics, want 0", n)
	}
}

func TestHover(t *testing.T) {
	s := newServer()
	s.update(context.Background(), discardConn{}, "file:///sheet.tex", sheet)

	hoverTests := []struct {
		line, char int
		want       string
	}{
		{0, 2, "`a = 5`"},
		{1, 0, "b: incomplete expression: missing operand"},
		{2, 4, "`c`: function of d\n\ndrawn as cartesian"},
		{6, 1, "`g(x)`: function of a\n\ndrawn as cartesian"},
		{4, 0, ""},
	}
	for _, test := range hoverTests {
		params := lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: "file:///sheet.tex"},
			Position:     lsp.Position{Line: test.line, Character: test.char},
		}
		result, err := s.hover(context.Background(), discardConn{}, marshal(params))
		if err != nil {
			t.Errorf("hover at %d:%d returns error %v", test.line, test.char, err)
			continue
		}
		var got string
		if contents := result.(lsp.Hover).Contents; len(contents) > 0 {
			got = contents[0].Value
		}
		if got != test.want {
			t.Errorf("hover at %d:%d -> %q, want %q", test.line, test.char, got, test.want)
		}
	}
}

func TestCompletion(t *testing.T) {
	s := newServer()
	s.update(context.Background(), discardConn{}, "file:///sheet.tex", `y = \sq`)

	params := lsp.CompletionParams{TextDocumentPositionParams: lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "file:///sheet.tex"},
		Position:     lsp.Position{Line: 0, Character: 7},
	}}
	result, err := s.completion(context.Background(), discardConn{}, marshal(params))
	if err != nil {
		t.Fatal(err)
	}
	items := result.([]lsp.CompletionItem)
	if len(items) != 1 || items[0].Label != `\sqrt` {
		t.Fatalf("got completion items %v, want just \\sqrt", items)
	}
	wantRange := lsp.Range{
		Start: lsp.Position{Line: 0, Character: 4},
		End:   lsp.Position{Line: 0, Character: 7},
	}
	if diff := cmp.Diff(wantRange, items[0].TextEdit.Range); diff != "" {
		t.Errorf("replaced range (-want +got):\n%s", diff)
	}
}

func TestCompletion_NotInEscape(t *testing.T) {
	for _, tc := range []struct {
		content string
		dot     int
	}{
		{`a+b`, 3},
		{``, 0},
		{`\alpha+`, 7},
	} {
		if items := completeMacro(tc.content, tc.dot); len(items) != 0 {
			t.Errorf("completeMacro(%q, %d) -> %v, want none", tc.content, tc.dot, items)
		}
	}
}

func TestPositionConversion(t *testing.T) {
	content := "ab\nc\nd"
	for idx, pos := range map[int]lsp.Position{
		0: {Line: 0, Character: 0},
		2: {Line: 0, Character: 2},
		3: {Line: 1, Character: 0},
		5: {Line: 2, Character: 0},
	} {
		if got := lspPositionFromIdx(content, idx); got != pos {
			t.Errorf("lspPositionFromIdx(%d) -> %v, want %v", idx, got, pos)
		}
		if got := lspPositionToIdx(content, pos); got != idx {
			t.Errorf("lspPositionToIdx(%v) -> %d, want %d", pos, got, idx)
		}
	}
}

func TestProgram(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), testutil.Scaled(10*time.Second))
	defer cancel()

	serverIn, clientOut := must.Pipe()
	clientIn, serverOut := must.Pipe()
	done := make(chan error, 1)
	go func() {
		p := &Program{run: true}
		done <- p.Run([3]*os.File{serverIn, serverOut, nil}, nil)
	}()

	published := make(chan lsp.PublishDiagnosticsParams, 1)
	client := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(transport{clientIn, clientOut}, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
			if req.Method == "textDocument/publishDiagnostics" {
				var params lsp.PublishDiagnosticsParams
				json.Unmarshal(*req.Params, &params)
				published <- params
			}
			return nil, nil
		}))

	var init lsp.InitializeResult
	if err := client.Call(ctx, "initialize", lsp.InitializeParams{}, &init); err != nil {
		t.Fatal(err)
	}
	if !init.Capabilities.HoverProvider {
		t.Errorf("hover is not advertised")
	}
	client.Notify(ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: "file:///sheet.tex", Text: "a = 5\nb: a+"}})

	select {
	case params := <-published:
		want := []diagnostic{{1, lsp.Error, "resolve", "b: incomplete expression: missing operand"}}
		if diff := cmp.Diff(want, simplify(params.Diagnostics)); diff != "" {
			t.Errorf("published diagnostics (-want +got):\n%s", diff)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for diagnostics")
	}

	var unknown any
	err := client.Call(ctx, "textDocument/unknown", struct{}{}, &unknown)
	if rpcErr, ok := err.(*jsonrpc2.Error); !ok || rpcErr.Code != jsonrpc2.CodeMethodNotFound {
		t.Errorf("calling unknown method returns error %v, want method not found", err)
	}

	client.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returns %v", err)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for server to exit")
	}
}

func marshal(v any) json.RawMessage {
	return must.OK1(json.Marshal(v))
}

type discardConn struct{}

func (discardConn) Call(context.Context, string, any, any, ...jsonrpc2.CallOption) error {
	return nil
}

func (discardConn) Notify(context.Context, string, any, ...jsonrpc2.CallOption) error {
	return nil
}

func (discardConn) Close() error { return nil }

type recordingConn struct {
	discardConn
	published []lsp.PublishDiagnosticsParams
}

func (c *recordingConn) Notify(_ context.Context, method string, params any, _ ...jsonrpc2.CallOption) error {
	if method == "textDocument/publishDiagnostics" {
		c.published = append(c.published, params.(lsp.PublishDiagnosticsParams))
	}
	return nil
}
