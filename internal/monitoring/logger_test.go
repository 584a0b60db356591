package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) { got = format })
	Logf("sweep finished")
	if got != "sweep finished" {
		t.Errorf("custom logger got %q", got)
	}

	// nil installs a no-op, not a nil function
	SetLogger(nil)
	if Logf == nil {
		t.Fatal("Logf is nil after SetLogger(nil)")
	}
	Logf("muted")

	called := false
	SetLogger(func(string, ...interface{}) { called = true })
	Logf("again")
	if !called {
		t.Error("replacement logger was not called")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should default to a usable logger")
	}
}
