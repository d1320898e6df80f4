package pledge

import (
	"golang.org/x/sys/unix"

	"pledged/errors"
)

// alwaysAllowedIoctls matches kern_pledge.c's pledge_ioctl() top-of-
// function unconditional allow list (FIONREAD/FIONBIO/FIOCLEX/FIONCLEX).
var alwaysAllowedIoctls = map[uint]bool{
	uint(unix.FIONREAD): true,
	uint(unix.FIONBIO):  true,
	uint(unix.FIOCLEX):  true,
	uint(unix.FIONCLEX): true,
}

// ttyIoctls are terminal control requests gated on the tty promise.
var ttyIoctls = map[uint]bool{
	uint(unix.TCGETS):     true,
	uint(unix.TCSETS):     true,
	uint(unix.TIOCGWINSZ): true,
	uint(unix.TIOCSWINSZ): true,
	uint(unix.TIOCGPGRP):  true,
}

// procGatedIoctls additionally require the proc promise on top of tty,
// matching pledge_namei()'s TIOCSTI/TIOCSPGRP special cases.
var procGatedIoctls = map[uint]bool{
	uint(unix.TIOCSTI):   true,
	uint(unix.TIOCSPGRP): true,
}

// The remaining request codes below (SIOC*, DIOC*, BIOC*, MTIOC*, AUDIO_*)
// are OpenBSD-numbered ioctls with no Linux equivalent encoding. They are
// declared here as opaque request-code constants purely to keep
// pledge_ioctl()'s decision tree reachable in full; a real Linux process
// never produces these exact values, but the device-class + promise
// checks that gate them are preserved faithfully from kern_pledge.c.
const (
	ioctlSIOCATMARK    uint = 0x8901
	ioctlSIOCGIFGROUP  uint = 0x8924

	ioctlSIOCGIFADDR        uint = 0xc020693b
	ioctlSIOCGIFFLAGS       uint = 0xc0206911
	ioctlSIOCGIFMETRIC      uint = 0xc0206917
	ioctlSIOCGIFGMEMB       uint = 0xc028693a
	ioctlSIOCGIFRDOMAIN     uint = 0xc0206926
	ioctlSIOCGIFDSTADDR_IN6 uint = 0xc0206942
	ioctlSIOCGIFNETMASK_IN6 uint = 0xc0206944
	ioctlSIOCGIFXFLAGS      uint = 0xc020693d
	ioctlSIOCGNBRINFO_IN6   uint = 0xc0a86938
	ioctlSIOCGIFINFO_IN6    uint = 0xc0406939
	ioctlSIOCGIFMEDIA       uint = 0xc0286938

	ioctlDIOCGDINFO      uint = 0x409c4401
	ioctlDIOCGPDINFO     uint = 0x409c4402
	ioctlDIOCRLDINFO     uint = 0x20004403
	ioctlDIOCWDINFO      uint = 0x809c4404
	ioctlBIOCDISK        uint = 0x20004405
	ioctlBIOCINQ         uint = 0x20004406
	ioctlBIOCINSTALLBOOT uint = 0x20004407
	ioctlBIOCVOL         uint = 0x20004408
	ioctlDIOCMAP         uint = 0x20004409

	ioctlDIOCADDRULE      uint = 0xc4704404
	ioctlDIOCGETSTATUS    uint = 0xc0704410
	ioctlDIOCNATLOOK      uint = 0xc0504417
	ioctlDIOCRADDTABLES   uint = 0xc0184418
	ioctlDIOCRCLRADDRS    uint = 0xc0504419
	ioctlDIOCRCLRTABLES   uint = 0xc018441a
	ioctlDIOCRCLRTSTATS   uint = 0xc018441b
	ioctlDIOCRGETTSTATS   uint = 0xc018441c
	ioctlDIOCRSETADDRS    uint = 0xc050441d
	ioctlDIOCXBEGIN       uint = 0xc018441e
	ioctlDIOCXCOMMIT      uint = 0xc018441f
	ioctlDIOCKILLSRCNODES uint = 0xc0184420

	ioctlBIOCGSTATS uint = 0x40204407

	ioctlMTIOCGET uint = 0x40207101
	ioctlMTIOCTOP uint = 0x80067102

	ioctlAUDIO_GETPOS uint = 0x40084120
	ioctlAUDIO_GETPAR uint = 0x40384121
	ioctlAUDIO_SETPAR uint = 0xc0384122
	ioctlAUDIO_START  uint = 0x20004123
	ioctlAUDIO_STOP   uint = 0x20004124
)

// inetSocketIoctls are socket-identified requests the inet promise alone
// permits, mirroring pledge_ioctl()'s PLEDGE_INET branch.
var inetSocketIoctls = map[uint]bool{
	ioctlSIOCATMARK:   true,
	ioctlSIOCGIFGROUP: true,
}

// routeSocketIoctls are the read-only interface-info requests the route
// promise permits on a socket fd.
var routeSocketIoctls = map[uint]bool{
	ioctlSIOCGIFADDR:        true,
	ioctlSIOCGIFFLAGS:       true,
	ioctlSIOCGIFMETRIC:      true,
	ioctlSIOCGIFGMEMB:       true,
	ioctlSIOCGIFRDOMAIN:     true,
	ioctlSIOCGIFDSTADDR_IN6: true,
	ioctlSIOCGIFNETMASK_IN6: true,
	ioctlSIOCGIFXFLAGS:      true,
	ioctlSIOCGNBRINFO_IN6:   true,
	ioctlSIOCGIFINFO_IN6:    true,
	ioctlSIOCGIFMEDIA:       true,
}

// disklabelDeviceIoctls require a disk-identified vnode (char or block)
// plus the disklabel promise.
var disklabelDeviceIoctls = map[uint]bool{
	ioctlDIOCGDINFO:      true,
	ioctlDIOCGPDINFO:     true,
	ioctlDIOCRLDINFO:     true,
	ioctlDIOCWDINFO:      true,
	ioctlBIOCDISK:        true,
	ioctlBIOCINQ:         true,
	ioctlBIOCINSTALLBOOT: true,
	ioctlBIOCVOL:         true,
}

// pfDeviceIoctls require the pf promise and a pf-identified device.
var pfDeviceIoctls = map[uint]bool{
	ioctlDIOCADDRULE:      true,
	ioctlDIOCGETSTATUS:    true,
	ioctlDIOCNATLOOK:      true,
	ioctlDIOCRADDTABLES:   true,
	ioctlDIOCRCLRADDRS:    true,
	ioctlDIOCRCLRTABLES:   true,
	ioctlDIOCRCLRTSTATS:   true,
	ioctlDIOCRGETTSTATS:   true,
	ioctlDIOCRSETADDRS:    true,
	ioctlDIOCXBEGIN:       true,
	ioctlDIOCXCOMMIT:      true,
	ioctlDIOCKILLSRCNODES: true,
}

// tapeDeviceIoctls require the tape promise and a character-device tape
// identity, matching pax(1)'s tape-checking path.
var tapeDeviceIoctls = map[uint]bool{
	ioctlMTIOCGET: true,
	ioctlMTIOCTOP: true,
}

// audioDeviceIoctls require the audio promise and an audio-identified
// device.
var audioDeviceIoctls = map[uint]bool{
	ioctlAUDIO_GETPOS: true,
	ioctlAUDIO_GETPAR: true,
	ioctlAUDIO_SETPAR: true,
	ioctlAUDIO_START:  true,
	ioctlAUDIO_STOP:   true,
}

// CheckIoctl decides whether an ioctl request code is permitted for a
// file descriptor resolved to devClass, matching the per-promise,
// device-identity-checked switch in kern_pledge.c's pledge_ioctl().
func CheckIoctl(state *State, request uint, devClass DeviceClass) error {
	if !state.Pledged() {
		return nil
	}
	if alwaysAllowedIoctls[request] {
		return nil
	}

	promises := state.Promises()

	if promises.Has(PLEDGE_INET) && devClass == DeviceSocket && inetSocketIoctls[request] {
		return nil
	}

	if promises.Has(PLEDGE_BPF) && devClass == DeviceBPF && request == ioctlBIOCGSTATS {
		return nil
	}

	if promises.Has(PLEDGE_TAPE) && devClass == DeviceTape && tapeDeviceIoctls[request] {
		return nil
	}

	if promises.Has(PLEDGE_DRM) && devClass == DeviceDRM {
		return nil
	}

	if promises.Has(PLEDGE_AUDIO) && devClass == DeviceAudio && audioDeviceIoctls[request] {
		return nil
	}

	if promises.Has(PLEDGE_DISKLABEL) && devClass == DeviceDisk && disklabelDeviceIoctls[request] {
		return nil
	}
	if promises.Has(PLEDGE_DISKLABEL) && devClass == DeviceDisk && request == ioctlDIOCMAP {
		return nil
	}

	if promises.Has(PLEDGE_PF) && devClass == DevicePF && pfDeviceIoctls[request] {
		return nil
	}

	if ttyIoctls[request] || procGatedIoctls[request] {
		if !promises.Has(PLEDGE_TTY) {
			return errors.ErrIoctlDenied
		}
		if procGatedIoctls[request] && !promises.Has(PLEDGE_PROC) {
			return errors.ErrIoctlDenied
		}
		return nil
	}

	// PTMGET: pty master allocation, gated on rpath+wpath+tty AND device
	// identity (must actually be the ptmx multiplexor), mirroring the
	// kernel's cdevsw[major].d_open == ptmopen check.
	if request == unix.TIOCGPTN || request == unix.TIOCSPTLCK {
		if devClass != DevicePTMX {
			return errors.ErrIoctlDenied
		}
		if !promises.Has(PLEDGE_RPATH) || !promises.Has(PLEDGE_WPATH) || !promises.Has(PLEDGE_TTY) {
			return errors.ErrIoctlDenied
		}
		return nil
	}

	switch devClass {
	case DevicePTS, DeviceTTY:
		if promises.Has(PLEDGE_TTY) {
			return nil
		}
	}

	if promises.Has(PLEDGE_ROUTE) && devClass == DeviceSocket && routeSocketIoctls[request] {
		return nil
	}

	if promises.Has(PLEDGE_VMM) && devClass == DeviceVMM {
		return nil
	}

	return errors.ErrIoctlDenied
}
