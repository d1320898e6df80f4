package enforce

import (
	"testing"

	"golang.org/x/sys/unix"

	"pledged/pledge"
)

func actionFor(t *testing.T, filter []sockFilter, nr int) (uint32, bool) {
	t.Helper()
	for i := 0; i < len(filter)-1; i++ {
		if filter[i].Code != bpfJMP|bpfJEQ|bpfK {
			continue
		}
		if filter[i].K != uint32(nr) {
			continue
		}
		return filter[i+1].K, true
	}
	return 0, false
}

func TestBuildFilter_AlwaysSyscallAllowed(t *testing.T) {
	s := pledge.NewState()
	filter, err := buildFilter(s)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	action, ok := actionFor(t, filter, unix.SYS_EXIT)
	if !ok {
		t.Fatal("SYS_EXIT not present in filter")
	}
	if action != retAllow {
		t.Errorf("SYS_EXIT action = %#x, want retAllow", action)
	}
}

func TestBuildFilter_PathTakingSyscallAlwaysTraced(t *testing.T) {
	s := pledge.NewState()
	if err := s.Reduce(pledge.PLEDGE_STDIO | pledge.PLEDGE_RPATH | pledge.PLEDGE_WPATH); err != nil {
		t.Fatal(err)
	}
	filter, err := buildFilter(s)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	action, ok := actionFor(t, filter, unix.SYS_OPENAT)
	if !ok {
		t.Fatal("SYS_OPENAT not present in filter")
	}
	if action != retTrace {
		t.Errorf("SYS_OPENAT action = %#x, want retTrace", action)
	}
}

func TestBuildFilter_GrantedPromiseAllowsNonPathSyscall(t *testing.T) {
	s := pledge.NewState()
	if err := s.Reduce(pledge.PLEDGE_STDIO); err != nil {
		t.Fatal(err)
	}
	filter, err := buildFilter(s)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	action, ok := actionFor(t, filter, unix.SYS_READ)
	if !ok {
		t.Fatal("SYS_READ not present in filter")
	}
	if action != retAllow {
		t.Errorf("SYS_READ action = %#x, want retAllow", action)
	}
}

func TestBuildFilter_DeniedPromiseTraced(t *testing.T) {
	s := pledge.NewState()
	if err := s.Reduce(pledge.PLEDGE_STDIO); err != nil {
		t.Fatal(err)
	}
	filter, err := buildFilter(s)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	action, ok := actionFor(t, filter, unix.SYS_CONNECT)
	if !ok {
		t.Fatal("SYS_CONNECT not present in filter")
	}
	if action != retTrace {
		t.Errorf("SYS_CONNECT action = %#x, want retTrace", action)
	}
}

func TestBuildFilter_EndsWithTraceDefault(t *testing.T) {
	s := pledge.NewState()
	filter, err := buildFilter(s)
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	last := filter[len(filter)-1]
	if last.Code != bpfRET|bpfK || last.K != retTrace {
		t.Errorf("final instruction = %+v, want RET retTrace", last)
	}
}

func TestAuditArch(t *testing.T) {
	if _, err := auditArch(); err != nil {
		t.Errorf("auditArch() on test GOARCH = %v, want nil", err)
	}
}
