package pledge

import (
	"golang.org/x/sys/unix"

	"pledged/errors"
)

// alwaysAllowedSockopts matches kern_pledge.c's pledge_sockopt() entry
// check: SO_RCVBUF/SO_ERROR/SO_TIMESTAMP are permitted with no promise at
// all.
var alwaysAllowedSockopts = map[int]bool{
	unix.SO_RCVBUF:    true,
	unix.SO_ERROR:     true,
	unix.SO_TIMESTAMP: true,
}

// deniedSockopts are explicitly refused even with inet/unix held,
// matching SO_RTABLE's explicit EINVAL in pledge_sockopt().
var deniedSockopts = map[int]bool{
	unix.SO_RTABLE: true,
}

// genericSockSockopts are SOL_SOCKET-level options admitted once either
// inet or unix is held.
var genericSockSockopts = map[int]bool{
	unix.SO_REUSEADDR: true,
	unix.SO_REUSEPORT: true,
	unix.SO_KEEPALIVE: true,
	unix.SO_LINGER:    true,
	unix.SO_BROADCAST: true,
	unix.SO_SNDBUF:    true,
	unix.SO_SNDTIMEO:  true,
	unix.SO_RCVTIMEO:  true,
	unix.SO_TYPE:      true,
}

// dnsOnlySockopts need the dns promise; inet or unix alone does not admit
// them.
var dnsOnlySockopts = map[int]bool{
	unix.IPV6_RECVPKTINFO: true,
	unix.IPV6_USE_MIN_MTU: true,
}

// ypactiveOnlySockopts need PLEDGE_YPACTIVE specifically.
var ypactiveOnlySockopts = map[int]bool{
	unix.IP_PORTRANGE: true,
}

// inetOnlySockopts are IP/IPv6/TCP level options that need PLEDGE_INET
// specifically (not just unix), with multicast options additionally
// gated on PLEDGE_MCAST.
var inetOnlySockopts = map[int]bool{
	unix.IP_TOS:             false,
	unix.IP_TTL:             false,
	unix.IP_HDRINCL:         false,
	unix.TCP_NODELAY:        false,
	unix.TCP_MAXSEG:         false,
	unix.IPV6_V6ONLY:        false,
	unix.IPV6_UNICAST_HOPS:  false,
	unix.IP_ADD_MEMBERSHIP:  true, // true == multicast-gated
	unix.IP_DROP_MEMBERSHIP: true,
	unix.IPV6_JOIN_GROUP:    true,
	unix.IPV6_LEAVE_GROUP:   true,
}

// CheckSockopt decides whether a getsockopt/setsockopt level/option pair
// is permitted, matching kern_pledge.c's pledge_sockopt() ordering: the
// always-allowed baseline first, then a requirement for inet|unix|dns|
// ypactive to proceed at all, then option-specific promise checks.
func CheckSockopt(state *State, level, optname int) error {
	if !state.Pledged() {
		return nil
	}
	if alwaysAllowedSockopts[optname] {
		return nil
	}
	if deniedSockopts[optname] {
		return errors.ErrSockoptDenied
	}

	promises := state.Promises()
	if !promises.Any(PLEDGE_INET | PLEDGE_UNIX | PLEDGE_DNS | PLEDGE_YPACTIVE) {
		return errors.ErrSockoptDenied
	}

	if level == unix.SOL_SOCKET && genericSockSockopts[optname] {
		if promises.Any(PLEDGE_INET | PLEDGE_UNIX) {
			return nil
		}
		return errors.ErrSockoptDenied
	}

	if dnsOnlySockopts[optname] {
		if promises.Has(PLEDGE_DNS) {
			return nil
		}
		return errors.ErrSockoptDenied
	}

	if ypactiveOnlySockopts[optname] {
		if promises.Has(PLEDGE_YPACTIVE) {
			return nil
		}
		return errors.ErrSockoptDenied
	}

	if needsMcast, ok := inetOnlySockopts[optname]; ok {
		if !promises.Has(PLEDGE_INET) {
			return errors.ErrSockoptDenied
		}
		if needsMcast && !promises.Has(PLEDGE_MCAST) {
			return errors.ErrSockoptDenied
		}
		return nil
	}

	return errors.ErrSockoptDenied
}
