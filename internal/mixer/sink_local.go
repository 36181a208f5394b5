package mixer

import (
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/kb9vy/sdrscan/internal/logging"
)

// localFramesPerBuffer is how many samples the drain goroutine pushes
// into the PortAudio stream per blocking write.
const localFramesPerBuffer = 1000

// localSink plays audio out the default system output device via
// PortAudio. Samples arrive from the mixer tick and are queued; a
// dedicated goroutine drains the queue into the blocking PortAudio
// stream, zero-filling on underrun rather than stalling the mixer. A
// dead stream is closed and reopened.
type localSink struct {
	log        *logging.Logger
	sampleRate float64

	mu    sync.Mutex
	queue []int16

	// outBuf is the buffer the stream is bound to; the drain goroutine
	// fills it before each blocking Write.
	outBuf []int16
	stream *portaudio.Stream

	stop chan struct{}
	done chan struct{}
}

func newLocalSink(sampleRate float64, log *logging.Logger) (*localSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	s := &localSink{
		log:        log,
		sampleRate: sampleRate,
		outBuf:     make([]int16, localFramesPerBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if err := s.open(); err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	go s.run()
	return s, nil
}

func (s *localSink) open() error {
	stream, err := portaudio.OpenDefaultStream(0, 1, s.sampleRate, len(s.outBuf), &s.outBuf)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return err
	}
	s.stream = stream
	return nil
}

func (s *localSink) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		s.mu.Lock()
		n := len(s.queue)
		if n > localFramesPerBuffer {
			n = localFramesPerBuffer
		}
		copy(s.outBuf, s.queue[:n])
		for i := n; i < localFramesPerBuffer; i++ {
			s.outBuf[i] = 0
		}
		s.queue = s.queue[n:]
		s.mu.Unlock()

		if err := s.stream.Write(); err != nil {
			s.log.Warn("local sink write failed, reopening stream", "err", err)
			_ = s.stream.Close()
			if err := s.open(); err != nil {
				s.log.Error("local sink reopen failed", "err", err)
				return
			}
		}
	}
}

func (s *localSink) Write(samples []int16) {
	s.mu.Lock()
	s.queue = append(s.queue, samples...)
	s.mu.Unlock()
}

func (s *localSink) Close() error {
	close(s.stop)
	<-s.done
	err := s.stream.Close()
	_ = portaudio.Terminate()
	return err
}
