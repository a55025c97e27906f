package httpcore

import "golang.org/x/sys/unix"

// readinessSets owns the two fd_set-equivalents and the high-watermark
// fd: handlers mutate readiness only through SetRead/SetWrite/ClearRead/
// ClearWrite. SetRead and SetWrite raise maxFD; ClearRead and ClearWrite
// do not lower it, so maxFD is the highest fd ever set.
type readinessSets struct {
	read  map[int]bool
	write map[int]bool
	maxFD int
}

func newReadinessSets() *readinessSets {
	return &readinessSets{read: make(map[int]bool), write: make(map[int]bool)}
}

func (rs *readinessSets) SetRead(fd int) {
	rs.read[fd] = true
	rs.bumpMax(fd)
}

func (rs *readinessSets) SetWrite(fd int) {
	rs.write[fd] = true
	rs.bumpMax(fd)
}

func (rs *readinessSets) ClearRead(fd int) {
	delete(rs.read, fd)
}

func (rs *readinessSets) ClearWrite(fd int) {
	delete(rs.write, fd)
}

func (rs *readinessSets) bumpMax(fd int) {
	if fd > rs.maxFD {
		rs.maxFD = fd
	}
}

// snapshot builds the unix.FdSet pair select(2) will mutate in place,
// plus the ascending list of fds to examine afterward.
func (rs *readinessSets) snapshot() (readSet, writeSet *unix.FdSet, fds []int) {
	readSet = &unix.FdSet{}
	writeSet = &unix.FdSet{}
	seen := make(map[int]bool)
	for fd := range rs.read {
		fdSetBit(readSet, fd)
		seen[fd] = true
	}
	for fd := range rs.write {
		fdSetBit(writeSet, fd)
		seen[fd] = true
	}
	fds = make([]int, 0, len(seen))
	for fd := range seen {
		fds = append(fds, fd)
	}
	sortInts(fds)
	return readSet, writeSet, fds
}

func fdSetBit(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
