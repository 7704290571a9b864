package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFrom(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "plain error", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
		{name: "direct api error", err: NotFound(fmt.Errorf("gone")), wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "wrapped api error", err: fmt.Errorf("evaluate: %w", Conflict(fmt.Errorf("dup"))), wantStatus: http.StatusBadRequest, wantCode: "conflict"},
		{name: "unavailable", err: ServiceUnavailable(fmt.Errorf("no key")), wantStatus: http.StatusServiceUnavailable, wantCode: "service_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ae := From(tc.err)
			if ae.Status != tc.wantStatus {
				t.Errorf("Status=%d, want %d", ae.Status, tc.wantStatus)
			}
			if ae.Code != tc.wantCode {
				t.Errorf("Code=%q, want %q", ae.Code, tc.wantCode)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	ae := BadRequest(fmt.Errorf("wrapped: %w", sentinel))
	if !errors.Is(ae, sentinel) {
		t.Fatal("errors.Is should reach the wrapped cause")
	}
	if ae.Error() != "wrapped: sentinel" {
		t.Errorf("Error()=%q", ae.Error())
	}
}
