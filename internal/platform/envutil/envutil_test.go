package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MEDIA_TEST_INT", "twelve")
	if got := Int("MEDIA_TEST_INT", 4, nil); got != 4 {
		t.Fatalf("Int: want=4 got=%d", got)
	}
	t.Setenv("MEDIA_TEST_INT", " 12 ")
	if got := Int("MEDIA_TEST_INT", 4, nil); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("MEDIA_TEST_BOOL", "off")
	if Bool("MEDIA_TEST_BOOL", true, nil) {
		t.Fatalf("Bool: want=false got=true")
	}
	t.Setenv("MEDIA_TEST_BOOL", "")
	if !Bool("MEDIA_TEST_BOOL", true, nil) {
		t.Fatalf("Bool: blank should use default")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("MEDIA_TEST_DURATION", "45")
	if got := Duration("MEDIA_TEST_DURATION", time.Minute, nil); got != 45*time.Second {
		t.Fatalf("Duration: want=45s got=%s", got)
	}
	t.Setenv("MEDIA_TEST_DURATION", "2m")
	if got := Duration("MEDIA_TEST_DURATION", time.Minute, nil); got != 2*time.Minute {
		t.Fatalf("Duration: want=2m got=%s", got)
	}
}
