package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q", got)
	}
	if got := Of(Unsupported); got != Unsupported {
		t.Fatalf("Of(code) = %q", got)
	}
	if got := Of(&E{C: InvalidArgument, Msg: "id out of range"}); got != InvalidArgument {
		t.Fatalf("Of(wrapper) = %q", got)
	}
	if got := Of(errors.New("plain")); got != Error {
		t.Fatalf("Of(plain) = %q", got)
	}
}

func TestWrapperUnwraps(t *testing.T) {
	cause := errors.New("bus timeout")
	err := &E{C: BackendFailure, Op: "set_threshold", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable via errors.Is")
	}
	if err.Error() != "backend_failure" {
		t.Fatalf("Error() = %q", err.Error())
	}
	err.Msg = "write rejected"
	if err.Error() != "backend_failure: write rejected" {
		t.Fatalf("Error() with msg = %q", err.Error())
	}
}

func TestCodeIsError(t *testing.T) {
	var err error = InvalidHandle
	if err.Error() != "invalid_handle" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
