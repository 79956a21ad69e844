package diag

import (
	"errors"
	"fmt"
	"testing"

	"src.texgraph.dev/pkg/testutil"
)

type testErrorTag struct{}

func (testErrorTag) ErrorTag() string { return "some error" }

type testError = Error[testErrorTag]

func setMarkers(t *testing.T) {
	testutil.Set(t, &culpritLineBegin, "<")
	testutil.Set(t, &culpritLineEnd, ">")
	testutil.Set(t, &messageStart, "{")
	testutil.Set(t, &messageEnd, "}")
}

func TestError(t *testing.T) {
	setMarkers(t)

	err := &testError{
		Message: "bad list",
		Context: *contextInParen("[test]", "f=(x)"),
	}

	wantErrorString := "some error: [test]:1:3: bad list"
	if gotErrorString := err.Error(); gotErrorString != wantErrorString {
		t.Errorf("Error() -> %q, want %q", gotErrorString, wantErrorString)
	}

	wantRanging := Ranging{From: 2, To: 5}
	if gotRanging := err.Range(); gotRanging != wantRanging {
		t.Errorf("Range() -> %v, want %v", gotRanging, wantRanging)
	}

	// The tag is capitalized in return value of Show
	wantShow := "Some error: {bad list}\n  [test], line 1: f=<(x)>"
	if gotShow := err.Show(""); gotShow != wantShow {
		t.Errorf("Show() -> %q, want %q", gotShow, wantShow)
	}
}

func TestUnpackErrors(t *testing.T) {
	e := &testError{Message: "a", Context: *NewContext("[test]", "ab", Ranging{0, 1})}

	if got := UnpackErrors[testErrorTag](nil); got != nil {
		t.Errorf("UnpackErrors(nil) -> %v, want nil", got)
	}
	if got := UnpackErrors[testErrorTag](e); len(got) != 1 || got[0] != e {
		t.Errorf("UnpackErrors(e) -> %v, want [e]", got)
	}
	wrapped := fmt.Errorf("line 3: %w", e)
	if got := UnpackErrors[testErrorTag](wrapped); len(got) != 1 || got[0] != e {
		t.Errorf("UnpackErrors(wrapped) -> %v, want [e]", got)
	}
	if got := UnpackErrors[testErrorTag](errors.New("plain")); got != nil {
		t.Errorf("UnpackErrors(plain) -> %v, want nil", got)
	}
}
