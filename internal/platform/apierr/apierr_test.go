package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCodeUnwrapsWrappedErrors(t *testing.T) {
	base := New(http.StatusNotFound, "attachment_not_found", errors.New("missing"))
	status, code := StatusAndCode(fmt.Errorf("get attachment: %w", base))
	if status != http.StatusNotFound || code != "attachment_not_found" {
		t.Fatalf("StatusAndCode: want=404/attachment_not_found got=%d/%s", status, code)
	}
}

func TestStatusAndCodeDefaultsToInternal(t *testing.T) {
	status, code := StatusAndCode(errors.New("boom"))
	if status != http.StatusInternalServerError || code != "internal_error" {
		t.Fatalf("StatusAndCode: want=500/internal_error got=%d/%s", status, code)
	}
}
