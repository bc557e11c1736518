package apierror

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"bearer token",
			"request failed: Authorization: Bearer abc123xyz rejected",
			"request failed: Authorization: [REDACTED] rejected",
		},
		{
			"api key assignment",
			"config error: api_key=sk_live_4242 is invalid",
			"config error: api_key=[REDACTED] is invalid",
		},
		{
			"password",
			"dial failed: password: hunter2",
			"dial failed: password: [REDACTED]",
		},
		{
			"token in dsn",
			"fetch failed: token=deadbeef expired",
			"fetch failed: token=[REDACTED] expired",
		},
		{
			"clean message untouched",
			"inventory item not found",
			"inventory item not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Redact(tt.in); got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToJSONRedactsMessage(t *testing.T) {
	e := InternalError("upstream rejected token=supersecret")

	var payload struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(e.ToJSON(), &payload); err != nil {
		t.Fatal(err)
	}

	if payload.Success {
		t.Error("success = true, want false")
	}
	if strings.Contains(payload.Error.Message, "supersecret") {
		t.Errorf("secret leaked into response: %q", payload.Error.Message)
	}
	if !strings.Contains(payload.Error.Message, "[REDACTED]") {
		t.Errorf("message = %q, want redaction marker", payload.Error.Message)
	}
}

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		err  *Error
		code int
		kind string
	}{
		{BadRequest("x"), 400, "BAD_REQUEST"},
		{Unauthorized(""), 401, "UNAUTHORIZED"},
		{NotFound(""), 404, "NOT_FOUND"},
		{Conflict("x"), 409, "CONFLICT"},
		{RateLimited(""), 429, "RATE_LIMITED"},
		{InternalError(""), 500, "INTERNAL_ERROR"},
		{ServiceUnavailable(""), 503, "SERVICE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		if tt.err.StatusCode != tt.code {
			t.Errorf("%s StatusCode = %d, want %d", tt.kind, tt.err.StatusCode, tt.code)
		}
		if tt.err.Code != tt.kind {
			t.Errorf("Code = %q, want %q", tt.err.Code, tt.kind)
		}
	}
}
