package errs

import (
	"fmt"
	"testing"
)

func TestNewNoCause(t *testing.T) {
	e := New(EBadInput, "bad value %d", 3)
	if e.Error() != "EBadInput: bad value 3" {
		t.Errorf("unexpected message: %q", e.Error())
	}
	if e.Unwrap() != nil {
		t.Error("New should not wrap a cause")
	}
}

func TestWrapIncludesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	e := Wrap(EIO, cause, "write tile")
	if e.Unwrap() != cause {
		t.Error("Wrap should unwrap to the given cause")
	}
	want := "EIO: write tile: disk full"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	inner := New(ERangeScale, "scale out of range")
	outer := fmt.Errorf("slicing failed: %w", inner)

	if !Is(outer, ERangeScale) {
		t.Error("Is should see through a %w-wrapped *Error")
	}
	if Is(outer, EIO) {
		t.Error("Is should not match an unrelated kind")
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(fmt.Errorf("not ours"), EInternal) {
		t.Error("Is should be false for an error with no Kind")
	}
}
