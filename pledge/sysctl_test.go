package pledge

import (
	"testing"

	perrors "pledged/errors"
)

func TestCheckSysctl_AlwaysReadable(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckSysctl(s, "kernel.ostype", false); err != nil {
		t.Errorf("CheckSysctl(kernel.ostype) = %v, want nil", err)
	}
	if err := CheckSysctl(s, "hw.ncpu", false); err != nil {
		t.Errorf("CheckSysctl(hw.ncpu) = %v, want nil", err)
	}
	if err := CheckSysctl(s, "kernel.argmax", false); err != nil {
		t.Errorf("CheckSysctl(kernel.argmax) = %v, want nil", err)
	}
	if err := CheckSysctl(s, "hw.sensors.cpu0.temp0", false); err != nil {
		t.Errorf("CheckSysctl(hw.sensors.*) = %v, want nil", err)
	}
}

func TestCheckSysctl_Unpledged(t *testing.T) {
	s := NewState()
	if err := CheckSysctl(s, "anything.at.all", false); err != nil {
		t.Errorf("CheckSysctl() unpledged = %v, want nil", err)
	}
}

func TestCheckSysctl_RequiresPromise(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	err := CheckSysctl(s, "vm.uvmexp", false)
	if !perrors.Is(err, perrors.ErrSysctlDenied) {
		t.Errorf("CheckSysctl(vm.uvmexp) without vminfo = %v, want ErrSysctlDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_VMINFO)
	if err := CheckSysctl(s2, "vm.uvmexp", false); err != nil {
		t.Errorf("CheckSysctl(vm.uvmexp) with vminfo = %v, want nil", err)
	}
}

func TestCheckSysctl_WriteAlwaysDenied(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_VMINFO)
	err := CheckSysctl(s, "vm.uvmexp", true)
	if !perrors.Is(err, perrors.ErrSysctlDenied) {
		t.Errorf("CheckSysctl(vm.uvmexp, write) = %v, want ErrSysctlDenied", err)
	}
	if err := CheckSysctl(s, "kernel.ostype", true); !perrors.Is(err, perrors.ErrSysctlDenied) {
		t.Errorf("CheckSysctl(kernel.ostype, write) = %v, want ErrSysctlDenied", err)
	}
}

func TestCheckSysctl_PSGatedBranch(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckSysctl(s, "kernel.proc", false); !perrors.Is(err, perrors.ErrSysctlDenied) {
		t.Errorf("CheckSysctl(kernel.proc) without ps = %v, want ErrSysctlDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_PS)
	if err := CheckSysctl(s2, "kernel.proc", false); err != nil {
		t.Errorf("CheckSysctl(kernel.proc) with ps = %v, want nil", err)
	}
}

func TestCheckSysctl_LongestPrefixWins(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_INET)
	err := CheckSysctl(s, "net.ipv4.route.flush", false)
	if !perrors.Is(err, perrors.ErrSysctlDenied) {
		t.Errorf("CheckSysctl(net.ipv4.route.flush) with only inet = %v, want ErrSysctlDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_ROUTE)
	if err := CheckSysctl(s2, "net.ipv4.route.flush", false); err != nil {
		t.Errorf("CheckSysctl(net.ipv4.route.flush) with route = %v, want nil", err)
	}
}

func TestCheckSysctl_UnknownNameDenied(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	err := CheckSysctl(s, "nonexistent.node", false)
	if !perrors.Is(err, perrors.ErrSysctlDenied) {
		t.Errorf("CheckSysctl(nonexistent.node) = %v, want ErrSysctlDenied", err)
	}
}
