package pledge

import (
	"strings"

	"pledged/errors"
)

// sysctlRule pairs a dotted sysctl name prefix (Linux's /proc/sys naming,
// standing in for OpenBSD's CTL_*/mib[] integer path) with the promise
// required to read it, mirroring kern_pledge.c's pledge_sysctl() mib-
// prefix allow-list.
type sysctlRule struct {
	prefix string
	need   Promises
}

// sysctlTable is the full restored mib-prefix allow-list, transcribed
// node-for-node from pledge_sysctl(): CheckSysctl uses the longest
// matching prefix, whatever its position in this slice. PLEDGE_ALWAYS
// marks a node kern_pledge.c admits to every
// pledged process regardless of promise set.
var sysctlTable = []sysctlRule{
	// Routing table observation: NET_RT_DUMP/NET_RT_TABLE/NET_RT_FLAGS
	// (LLINFO), gated on route.
	{"net.route.dump", PLEDGE_ROUTE},
	{"net.route.table", PLEDGE_ROUTE},
	{"net.route.flags.llinfo", PLEDGE_ROUTE},

	// getifaddrs()/if_nameindex(): NET_RT_IFLIST and NET_RT_IFNAMES, open
	// to any of route, inet, or dns, matching the original's combined
	// gate.
	{"net.route.iflist", PLEDGE_ROUTE | PLEDGE_INET | PLEDGE_DNS},
	{"net.route.ifnames", PLEDGE_ALWAYS},

	// ps | vminfo: kern.fscale, kern.boottime, kern.consdev, kern.cptime,
	// kern.cptime2.
	{"kernel.fscale", PLEDGE_PS | PLEDGE_VMINFO},
	{"kernel.boottime", PLEDGE_PS | PLEDGE_VMINFO},
	{"kernel.consdev", PLEDGE_PS | PLEDGE_VMINFO},
	{"kernel.cptime2", PLEDGE_PS | PLEDGE_VMINFO},
	{"kernel.cptime", PLEDGE_PS | PLEDGE_VMINFO},

	// ps: process enumeration (kern.proc*, hw.physmem, kern.ccpu,
	// vm.maxslp).
	{"kernel.proc_args", PLEDGE_PS},
	{"kernel.proc_cwd", PLEDGE_PS},
	{"kernel.proc", PLEDGE_PS},
	{"hw.physmem", PLEDGE_PS},
	{"kernel.ccpu", PLEDGE_PS},
	{"vm.maxslp", PLEDGE_PS},

	// vminfo: vm.uvmexp, vfs.generic.bcachestat.
	{"vm.uvmexp", PLEDGE_VMINFO},
	{"vfs.generic.bcachestat", PLEDGE_VMINFO},
	{"vm.loadavg", PLEDGE_VMINFO | PLEDGE_ALWAYS},
	{"vm.stat", PLEDGE_VMINFO},
	{"vm.uptime", PLEDGE_VMINFO},

	// disklabel: kern.rawpartition, kern.maxpartitions, machdep.chr2blk.
	{"kernel.rawpartition", PLEDGE_DISKLABEL},
	{"kernel.maxpartitions", PLEDGE_DISKLABEL},
	{"machdep.chr2blk", PLEDGE_DISKLABEL},
	{"kernel.drives", PLEDGE_DISKLABEL},

	// ntpd(8) sensor read: hw.sensors.*, always admitted once pledged.
	{"hw.sensors", PLEDGE_ALWAYS},

	// Baseline identity/limits nodes, admitted unconditionally once
	// pledged at all: getdomainname/gethostname/uname/getpagesize/
	// setproctitle/getloadavg and the argmax/ngroups/sysvshm/posix1
	// version/ncpu knobs the review called out by name.
	{"kernel.domainname", PLEDGE_ALWAYS},
	{"kernel.hostname", PLEDGE_ALWAYS},
	{"kernel.ostype", PLEDGE_ALWAYS},
	{"kernel.osrelease", PLEDGE_ALWAYS},
	{"kernel.osversion", PLEDGE_ALWAYS},
	{"kernel.version", PLEDGE_ALWAYS},
	{"kernel.clockrate", PLEDGE_ALWAYS},
	{"kernel.argmax", PLEDGE_ALWAYS},
	{"kernel.ngroups", PLEDGE_ALWAYS},
	{"kernel.sysvshm", PLEDGE_ALWAYS},
	{"kernel.posix1version", PLEDGE_ALWAYS},
	{"kernel.pid_max", PLEDGE_PROC},
	{"kernel.threads-max", PLEDGE_PROC},
	{"hw.machine", PLEDGE_ALWAYS},
	{"hw.pagesize", PLEDGE_ALWAYS},
	{"hw.ncpu", PLEDGE_ALWAYS},
	{"hw.", PLEDGE_ALWAYS},
	{"vm.psstrings", PLEDGE_ALWAYS},

	{"net.ipv4.route", PLEDGE_ROUTE},
	{"net.ipv6.route", PLEDGE_ROUTE},
	{"net.", PLEDGE_INET},
}

// CheckSysctl decides whether accessing the dotted sysctl name is
// permitted, matching kern_pledge.c's longest-matching-prefix walk in
// pledge_sysctl(). isWrite mirrors the original's "new != NULL" check:
// sysctl(2) setters are always denied once pledged, regardless of
// promise, the node's own rule notwithstanding. PLEDGE_ALWAYS as a
// rule's requirement means the node is readable once any pledge is in
// force at all (rather than unconditionally, preserving the "pledge
// narrows, it does not widen read-only knobs back open" invariant).
func CheckSysctl(state *State, name string, isWrite bool) error {
	if !state.Pledged() {
		return nil
	}
	if isWrite {
		return errors.ErrSysctlDenied
	}

	var best *sysctlRule
	for i := range sysctlTable {
		rule := &sysctlTable[i]
		if !strings.HasPrefix(name, rule.prefix) {
			continue
		}
		if best == nil || len(rule.prefix) > len(best.prefix) {
			best = rule
		}
	}
	if best == nil {
		return errors.ErrSysctlDenied
	}
	if best.need&PLEDGE_ALWAYS != 0 {
		return nil
	}
	if state.Promises().Any(best.need) {
		return nil
	}
	return errors.ErrSysctlDenied
}
