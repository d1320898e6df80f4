package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrNotFound, "not found"},
		{ErrAlreadyExists, "already exists"},
		{ErrInvalidState, "invalid state"},
		{ErrInvalidConfig, "invalid config"},
		{ErrPermission, "permission denied"},
		{ErrResource, "resource error"},
		{ErrSeccomp, "seccomp error"},
		{ErrPtrace, "ptrace error"},
		{ErrViolation, "promise violation"},
		{ErrMonotonicity, "promise set broadened"},
		{ErrCanon, "path canonicalization error"},
		{ErrWhitepath, "whitepath error"},
		{ErrInternal, "internal error"},
		{ErrorKind(999), "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("ErrorKind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPledgeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PledgeError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "<nil>",
		},
		{
			name: "full error",
			err: &PledgeError{
				Op:     "namei",
				PID:    42,
				Kind:   ErrViolation,
				Detail: "path not permitted",
				Err:    fmt.Errorf("open refused"),
			},
			expected: "pid 42: namei: path not permitted: open refused",
		},
		{
			name: "without pid",
			err: &PledgeError{
				Op:     "reduce",
				Kind:   ErrMonotonicity,
				Detail: "cannot broaden promises",
			},
			expected: "reduce: cannot broaden promises",
		},
		{
			name: "kind only",
			err: &PledgeError{
				Kind: ErrPermission,
			},
			expected: "permission denied",
		},
		{
			name: "with underlying error",
			err: &PledgeError{
				Op:   "install",
				Kind: ErrSeccomp,
				Err:  fmt.Errorf("prctl failed"),
			},
			expected: "install: seccomp error: prctl failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("PledgeError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPledgeError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("underlying error")
	err := &PledgeError{
		Op:   "test",
		Kind: ErrInternal,
		Err:  underlying,
	}

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	var nilErr *PledgeError
	if got := nilErr.Unwrap(); got != nil {
		t.Errorf("nil.Unwrap() = %v, want nil", got)
	}
}

func TestPledgeError_Is(t *testing.T) {
	err1 := &PledgeError{Kind: ErrNotFound, Op: "test1"}
	err2 := &PledgeError{Kind: ErrNotFound, Op: "test2"}
	err3 := &PledgeError{Kind: ErrPermission, Op: "test3"}

	if !err1.Is(err2) {
		t.Error("err1.Is(err2) should be true (same kind)")
	}

	if err1.Is(err3) {
		t.Error("err1.Is(err3) should be false (different kind)")
	}

	if err1.Is(fmt.Errorf("some error")) {
		t.Error("err1.Is(fmt.Errorf(...)) should be false")
	}

	var nilErr *PledgeError
	if !nilErr.Is(nil) {
		t.Error("nil.Is(nil) should be true")
	}
}

func TestNew(t *testing.T) {
	err := New(ErrInvalidConfig, "validate", "promise string is empty")

	if err.Kind != ErrInvalidConfig {
		t.Errorf("Kind = %v, want %v", err.Kind, ErrInvalidConfig)
	}
	if err.Op != "validate" {
		t.Errorf("Op = %q, want %q", err.Op, "validate")
	}
	if err.Detail != "promise string is empty" {
		t.Errorf("Detail = %q, want %q", err.Detail, "promise string is empty")
	}
}

func TestWrap(t *testing.T) {
	underlying := fmt.Errorf("permission denied")
	err := Wrap(underlying, ErrPermission, "open file")

	if err.Err != underlying {
		t.Error("Wrapped error should preserve underlying error")
	}
	if err.Kind != ErrPermission {
		t.Errorf("Kind = %v, want %v", err.Kind, ErrPermission)
	}
	if err.Op != "open file" {
		t.Errorf("Op = %q, want %q", err.Op, "open file")
	}
}

func TestWrapWithPID(t *testing.T) {
	underlying := fmt.Errorf("not found")
	err := WrapWithPID(underlying, ErrNotFound, "lookup", 777)

	if err.PID != 777 {
		t.Errorf("PID = %d, want %d", err.PID, 777)
	}
}

func TestWrapWithDetail(t *testing.T) {
	underlying := fmt.Errorf("syscall failed")
	err := WrapWithDetail(underlying, ErrSeccomp, "filter", "invalid architecture")

	if err.Detail != "invalid architecture" {
		t.Errorf("Detail = %q, want %q", err.Detail, "invalid architecture")
	}
}

func TestIsKind(t *testing.T) {
	err := &PledgeError{Kind: ErrNotFound}
	wrapped := fmt.Errorf("wrapped: %w", err)

	if !IsKind(err, ErrNotFound) {
		t.Error("IsKind(err, ErrNotFound) should be true")
	}
	if !IsKind(wrapped, ErrNotFound) {
		t.Error("IsKind(wrapped, ErrNotFound) should be true")
	}
	if IsKind(err, ErrPermission) {
		t.Error("IsKind(err, ErrPermission) should be false")
	}
	if IsKind(fmt.Errorf("plain error"), ErrNotFound) {
		t.Error("IsKind(plain error, ErrNotFound) should be false")
	}
}

func TestGetKind(t *testing.T) {
	err := &PledgeError{Kind: ErrSeccomp}
	wrapped := fmt.Errorf("wrapped: %w", err)

	kind, ok := GetKind(err)
	if !ok || kind != ErrSeccomp {
		t.Errorf("GetKind(err) = (%v, %v), want (%v, true)", kind, ok, ErrSeccomp)
	}

	kind, ok = GetKind(wrapped)
	if !ok || kind != ErrSeccomp {
		t.Errorf("GetKind(wrapped) = (%v, %v), want (%v, true)", kind, ok, ErrSeccomp)
	}

	_, ok = GetKind(fmt.Errorf("plain error"))
	if ok {
		t.Error("GetKind(plain error) should return false")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *PledgeError
		kind ErrorKind
	}{
		{"ErrUnknownPromise", ErrUnknownPromise, ErrInvalidConfig},
		{"ErrPromiseBroadened", ErrPromiseBroadened, ErrMonotonicity},
		{"ErrWhitepathReplace", ErrWhitepathReplace, ErrWhitepath},
		{"ErrNoRequiredBits", ErrNoRequiredBits, ErrViolation},
		{"ErrPathDenied", ErrPathDenied, ErrViolation},
		{"ErrProcessNotFound", ErrProcessNotFound, ErrNotFound},
		{"ErrSeccompFilter", ErrSeccompFilter, ErrSeccomp},
		{"ErrPtraceAttach", ErrPtraceAttach, ErrPtrace},
		{"ErrCanonFailed", ErrCanonFailed, ErrCanon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("%s.Kind = %v, want %v", tt.name, tt.err.Kind, tt.kind)
			}
			wrapped := Wrap(fmt.Errorf("underlying"), tt.kind, "test")
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("errors.Is(wrapped, %s) should be true", tt.name)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	underlying := fmt.Errorf("path not in whitelist")
	err1 := Wrap(underlying, ErrViolation, "namei")
	err2 := fmt.Errorf("syscall gate: %w", err1)

	if !errors.Is(err2, ErrPathDenied) {
		t.Error("errors.Is should find ErrPathDenied in chain")
	}

	var perr *PledgeError
	if !errors.As(err2, &perr) {
		t.Error("errors.As should find PledgeError in chain")
	}
	if perr.Op != "namei" {
		t.Errorf("perr.Op = %q, want %q", perr.Op, "namei")
	}

	if errors.Unwrap(err1) != underlying {
		t.Error("Unwrap should return underlying error")
	}
}
