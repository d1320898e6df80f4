package pledge

import (
	"testing"

	"golang.org/x/sys/unix"

	perrors "pledged/errors"
)

func TestCheckRecvfdSendfd(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckRecvfd(s); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckRecvfd() without recvfd = %v, want ErrAuxDenied", err)
	}
	if err := CheckSendfd(s); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckSendfd() without sendfd = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_RECVFD | PLEDGE_SENDFD)
	if err := CheckRecvfd(s2); err != nil {
		t.Errorf("CheckRecvfd() with recvfd = %v, want nil", err)
	}
	if err := CheckSendfd(s2); err != nil {
		t.Errorf("CheckSendfd() with sendfd = %v, want nil", err)
	}
}

func TestCheckChown(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_CHOWN)

	if err := CheckChown(s, -1, -1, 1000, 1000); err != nil {
		t.Errorf("CheckChown(noop) = %v, want nil", err)
	}
	if err := CheckChown(s, 1000, 1000, 1000, 1000); err != nil {
		t.Errorf("CheckChown(self) = %v, want nil", err)
	}
	if err := CheckChown(s, 2000, -1, 1000, 1000); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckChown(other uid) without chownuid = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_CHOWN | PLEDGE_CHOWNUID)
	if err := CheckChown(s2, 2000, -1, 1000, 1000); err != nil {
		t.Errorf("CheckChown(other uid) with chownuid = %v, want nil", err)
	}
}

func TestCheckFcntl(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckFcntl(s, unix.F_GETFL); err != nil {
		t.Errorf("CheckFcntl(F_GETFL) = %v, want nil", err)
	}
	if err := CheckFcntl(s, unix.F_SETOWN); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckFcntl(F_SETOWN) without proc = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_PROC)
	if err := CheckFcntl(s2, unix.F_SETOWN); err != nil {
		t.Errorf("CheckFcntl(F_SETOWN) with proc = %v, want nil", err)
	}
}

func TestCheckKill(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckKill(s, 42, 42, 7); err != nil {
		t.Errorf("CheckKill(self) = %v, want nil", err)
	}
	if err := CheckKill(s, 0, 42, 7); err != nil {
		t.Errorf("CheckKill(pid 0) = %v, want nil", err)
	}
	if err := CheckKill(s, 99, 42, 7); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckKill(other pid) without proc = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_PROC)
	if err := CheckKill(s2, 99, 42, 7); err != nil {
		t.Errorf("CheckKill(other pid) with proc = %v, want nil", err)
	}
}

func TestCheckFlock(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckFlock(s); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckFlock() without flock = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_FLOCK)
	if err := CheckFlock(s2); err != nil {
		t.Errorf("CheckFlock() with flock = %v, want nil", err)
	}
}

func TestCheckAdjtime(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckAdjtime(s, false); err != nil {
		t.Errorf("CheckAdjtime(query) = %v, want nil", err)
	}
	if err := CheckAdjtime(s, true); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckAdjtime(set) without settime = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_STDIO | PLEDGE_SETTIME)
	if err := CheckAdjtime(s2, true); err != nil {
		t.Errorf("CheckAdjtime(set) with settime = %v, want nil", err)
	}
}

func TestCheckSendto(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_DNS)
	if err := CheckSendto(s, true); err != nil {
		t.Errorf("CheckSendto(dns socket) = %v, want nil", err)
	}
	if err := CheckSendto(s, false); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckSendto(non-dns) with only dns = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_INET)
	if err := CheckSendto(s2, false); err != nil {
		t.Errorf("CheckSendto() with inet = %v, want nil", err)
	}
}

func TestCheckProtExec(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckProtExec(s); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckProtExec() without protexec = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	s2.Reduce(PLEDGE_PROTEXEC)
	if err := CheckProtExec(s2); err != nil {
		t.Errorf("CheckProtExec() with protexec = %v, want nil", err)
	}
}

func TestCheckSocketDomain(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_UNIX)
	if err := CheckSocketDomain(s, unix.AF_INET); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckSocketDomain(AF_INET) without inet = %v, want ErrAuxDenied", err)
	}
	if err := CheckSocketDomain(s, unix.AF_UNIX); err != nil {
		t.Errorf("CheckSocketDomain(AF_UNIX) with unix = %v, want nil", err)
	}
	if err := CheckSocketDomain(s, unix.AF_NETLINK); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckSocketDomain(AF_NETLINK) = %v, want ErrAuxDenied", err)
	}
}

// TestCheckSocketDomain_YPActive reproduces the getpw/YP scenario: a
// process pledged only getpw, after touching /var/run/ypbind.lock and
// gaining PLEDGE_YPACTIVE, may still open an AF_INET socket.
func TestCheckSocketDomain_YPActive(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_GETPW)
	if err := CheckSocketDomain(s, unix.AF_INET); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckSocketDomain(AF_INET) without inet/ypactive = %v, want ErrAuxDenied", err)
	}

	s.SetYPActive()
	if err := CheckSocketDomain(s, unix.AF_INET); err != nil {
		t.Errorf("CheckSocketDomain(AF_INET) with ypactive = %v, want nil", err)
	}
	if err := CheckSocketDomain(s, unix.AF_INET6); err != nil {
		t.Errorf("CheckSocketDomain(AF_INET6) with ypactive = %v, want nil", err)
	}
	if err := CheckSocketDomain(s, unix.AF_UNIX); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckSocketDomain(AF_UNIX) with ypactive only = %v, want ErrAuxDenied", err)
	}
}

func TestCheckSwapctl(t *testing.T) {
	s := NewState()
	s.Reduce(PLEDGE_STDIO)
	if err := CheckSwapctl(s); !perrors.Is(err, perrors.ErrAuxDenied) {
		t.Errorf("CheckSwapctl() = %v, want ErrAuxDenied", err)
	}

	s2 := NewState()
	if err := CheckSwapctl(s2); err != nil {
		t.Errorf("CheckSwapctl() unpledged = %v, want nil", err)
	}
}
