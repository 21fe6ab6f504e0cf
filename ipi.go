// ipi.go - Inter-processor interrupts and remote fences

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import "runtime"

// SendIPI posts event to hart target and rings its doorbell. Disabled harts
// are silently skipped. The Or is sequentially consistent, so a target that
// observes the doorbell also observes the event bits.
func (m *Machine) SendIPI(target int, event uint32) {
	if m.table.Disabled(target) {
		return
	}
	other := m.table.Other(target)
	other.Post(event)
	other.Ring()
}

// SendIPIMany broadcasts event to every present hart selected by the hart
// mask stored at maskAddr in the caller's address space (0: all harts).
//
// IPI_SOFT is fire-and-forget. Any other event is a fence or halt and the
// caller waits until every target has taken its doorbell or parked. While
// waiting, the caller keeps taking its own doorbell so that two harts
// fencing each other both make progress; whatever it absorbed is rung again
// before returning.
//
// If the mask cannot be read the fault is redirected to the supervisor and
// nothing is sent.
func (m *Machine) SendIPIMany(h *Hart, maskAddr uint64, event uint32) TrapOutcome {
	mask := m.table.PresentMask()
	if maskAddr != 0 {
		sel, out, ok := m.loadUnprivileged(h, maskAddr, h.csr.Read(CSR_MEPC))
		if !ok {
			return out
		}
		mask &= sel
	}

	forEachHart(mask, func(id int) {
		m.SendIPI(id, event)
	})

	if event == IPI_SOFT {
		return TrapServiced
	}

	self := m.table.Self(h.id)
	var incoming uint32
	forEachHart(mask, func(id int) {
		other := m.table.Other(id)
		// A parked hart never takes its doorbell again.
		for other.Doorbell() != 0 && !m.harts[id].Parked() {
			incoming |= self.TakeDoorbell()
			if m.poweredOff() {
				return
			}
			runtime.Gosched()
		}
	})

	if incoming != 0 {
		self.doorbell.Store(incoming)
	}
	return TrapServiced
}

// poweredOff reports whether the machine has already been switched off by
// another hart; a fence wait has nobody left to wait for after that.
func (m *Machine) poweredOff() bool {
	select {
	case <-m.off:
		return true
	default:
		return false
	}
}
