package ring

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Segment is one shared-memory mapping holding a ring's sample array
// and its head/tail cells back to back. The supervisor creates these
// before spawning any worker; the owning receiver and the mixer attach
// to the same file by inherited descriptor (exec.Cmd.ExtraFiles), never
// by re-opening a named path, to avoid any race with unlink.
type Segment struct {
	file *os.File
	mem  []byte
}

// headTailBytes is the byte size of the two int64 index cells that
// follow the sample payload in a Segment.
const headTailBytes = 16

// CreateSegment allocates a new anonymous shared-memory-backed file
// sized for capacity float32 samples plus its head/tail cells, and
// returns both the open file (to be passed via ExtraFiles) and a ring
// Buffer already attached to it.
func CreateSegment(capacity int) (*Segment, *Buffer, error) {
	f, err := memfdOrTemp()
	if err != nil {
		return nil, nil, fmt.Errorf("ring: create segment: %w", err)
	}

	size := int64(capacity)*4 + headTailBytes
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("ring: truncate segment: %w", err)
	}

	seg, buf, err := attach(f, capacity)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return seg, buf, nil
}

// AttachSegment maps an already-open, already-sized file (typically
// inherited through exec.Cmd.ExtraFiles at a well-known fd) as a ring
// of the given capacity.
func AttachSegment(f *os.File, capacity int) (*Segment, *Buffer, error) {
	return attach(f, capacity)
}

func attach(f *os.File, capacity int) (*Segment, *Buffer, error) {
	size := capacity*4 + headTailBytes
	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("ring: mmap: %w", err)
	}

	samples := unsafe.Slice((*float32)(unsafe.Pointer(&mem[0])), capacity)
	headTail := unsafe.Slice((*int64)(unsafe.Pointer(&mem[capacity*4])), 2)

	seg := &Segment{file: f, mem: mem}
	buf := FromMemory(samples, headTail)
	return seg, buf, nil
}

// Close unmaps the segment and closes the backing file descriptor. It
// does not unlink any path — memfd-backed segments have none, and the
// fallback tmp file is removed immediately after creation.
func (s *Segment) Close() error {
	err := unix.Munmap(s.mem)
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// File returns the backing descriptor, for wiring into
// exec.Cmd.ExtraFiles when spawning a receiver or the mixer.
func (s *Segment) File() *os.File { return s.file }

// memfdOrTemp prefers an anonymous memfd (Linux) so the segment never
// touches the filesystem namespace; falls back to an unlinked temp file
// on platforms without memfd_create.
func memfdOrTemp() (*os.File, error) {
	fd, err := unix.MemfdCreate("sdrscan-ring", 0)
	if err == nil {
		return os.NewFile(uintptr(fd), "sdrscan-ring"), nil
	}

	f, err := os.CreateTemp("", "sdrscan-ring-*")
	if err != nil {
		return nil, err
	}
	// Unlink immediately: the fd stays valid for every process that
	// already has it open (us, and whoever we pass it to via
	// ExtraFiles), and no named path is left to leak.
	_ = os.Remove(f.Name())
	return f, nil
}
