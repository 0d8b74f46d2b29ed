package videobackend

import (
	"sync"
	"time"
)

const defaultPumpDepth = 8

// missedReadBackoff stops a dead producer from spinning the pump
// goroutine flat out between failed reads.
const missedReadBackoff = time.Millisecond * 5

// framePump decouples a backend's frame producer from grab calls. A
// single goroutine feeds captured frames into a bounded channel which
// behaves as a ring, the oldest buffered frame is dropped to make room
// when a consumer falls behind. Halting the pump wakes any blocked
// grab so a stop from another goroutine always bounds a waiting grab
// call.
type framePump struct {
	mu      sync.Mutex
	frames  chan []byte
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func newFramePump() *framePump {
	return &framePump{}
}

// start launches the pump goroutine around the given producer. The
// producer returns the next frame's bytes, or false when no frame was
// available this attempt. Starting an already running pump is a no-op.
func (p *framePump) start(read func() ([]byte, bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.frames = make(chan []byte, defaultPumpDepth)
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.running = true
	go p.run(read, p.frames, p.stop, p.done)
}

func (p *framePump) run(read func() ([]byte, bool), frames chan []byte, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, ok := read()
		if !ok {
			select {
			case <-stop:
				return
			case <-time.After(missedReadBackoff):
				continue
			}
		}

		select {
		case frames <- frame:
		case <-stop:
			return
		default:
			select {
			case <-frames:
			default:
			}
			select {
			case frames <- frame:
			case <-stop:
				return
			default:
			}
		}
	}
}

// halt signals the pump goroutine and waits for it to exit. Halting a
// pump which never started, or twice, is a no-op.
func (p *framePump) halt() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	done := p.done
	p.mu.Unlock()
	<-done
}

func (p *framePump) isRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// grabNext hands over the oldest buffered frame, preserving capture
// order. A false return means no frame, either the pump is stopped or
// nothing arrived in time.
func (p *framePump) grabNext(dst []byte, wait bool) bool {
	frames, stop, running := p.state()
	if !running {
		return false
	}
	if !wait {
		select {
		case f := <-frames:
			return copyFrame(dst, f)
		default:
			return false
		}
	}
	select {
	case f := <-frames:
		return copyFrame(dst, f)
	case <-stop:
		return false
	}
}

// grabNewest drains everything buffered and hands over only the most
// recently captured frame.
func (p *framePump) grabNewest(dst []byte, wait bool) bool {
	frames, stop, running := p.state()
	if !running {
		return false
	}

	var newest []byte
	for {
		select {
		case f := <-frames:
			newest = f
			continue
		default:
		}
		break
	}
	if newest != nil {
		return copyFrame(dst, newest)
	}
	if !wait {
		return false
	}
	select {
	case f := <-frames:
		return copyFrame(dst, f)
	case <-stop:
		return false
	}
}

func (p *framePump) state() (chan []byte, chan struct{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames, p.stop, p.running
}

func copyFrame(dst, src []byte) bool {
	if len(dst) < len(src) {
		return false
	}
	copy(dst, src)
	return true
}
