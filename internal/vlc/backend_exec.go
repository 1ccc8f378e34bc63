//go:build !(linux && arm64)

// Development backend: one VLC subprocess per displayed item, positioned
// with xdotool on Linux. No CGO required.
package vlc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"signage-player/internal/layout"
)

type execBackend struct {
	mu      sync.Mutex
	vlcPath string
	geom    geometry
	cur     *process
	log     *zap.Logger
}

func newBackend(log *zap.Logger) Backend {
	return &execBackend{log: log}
}

func (b *execBackend) Init(zone layout.Zone, screenW, screenH int) error {
	path, err := findVLC()
	if err != nil {
		return err
	}
	b.vlcPath = path
	b.geom = geometry{zone: zone, screenW: screenW, screenH: screenH}

	b.log.Info("subprocess backend",
		zap.String("vlc", path), zap.Int("screen_w", screenW), zap.Int("screen_h", screenH),
		zap.Bool("full_zone", zone.IsFull()))
	return nil
}

func (b *execBackend) Show(path string) error {
	_, err := b.start(stillArgs(runtime.GOOS, b.geom, path))
	return err
}

func (b *execBackend) Play(path string, autoplay bool) (Playback, error) {
	p, err := b.start(videoArgs(runtime.GOOS, b.geom, path, autoplay))
	if err != nil {
		return nil, err
	}
	p.paused = !autoplay
	return p, nil
}

func (b *execBackend) start(args []string) (*process, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cur != nil {
		b.cur.Stop()
		b.cur = nil
	}

	cmd := exec.Command(b.vlcPath, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" {
		cmd.Env = append(os.Environ(), "DISPLAY=:0")
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("vlc stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("vlc start failed: %w", err)
	}

	p := &process{
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
		ended: make(chan struct{}),
	}
	go p.wait()

	if runtime.GOOS == "linux" {
		go b.positionWindow(cmd.Process.Pid, p.done)
	}

	b.cur = p
	return p, nil
}

// positionWindow uses xdotool to place the VLC window over the zone.
// override-redirect removes the window from WM control entirely: no
// decorations, no taskbar entry, exact positioning.
func (b *execBackend) positionWindow(pid int, done <-chan struct{}) {
	r := b.geom.zone.Pixels(b.geom.screenW, b.geom.screenH)
	pidStr := strconv.Itoa(pid)
	wStr, hStr := strconv.Itoa(r.W), strconv.Itoa(r.H)
	xStr, yStr := strconv.Itoa(r.X), strconv.Itoa(r.Y)

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for attempt := 0; attempt < 50; attempt++ {
		select {
		case <-done:
			return
		case <-tick.C:
		}

		out, err := exec.Command("xdotool", "search", "--pid", pidStr).Output()
		if err != nil || strings.TrimSpace(string(out)) == "" {
			continue
		}

		lines := strings.Split(strings.TrimSpace(string(out)), "\n")
		windowID := lines[len(lines)-1]

		exec.Command("xdotool", "set_window", "--overrideredirect", "1", windowID).Run()
		exec.Command("xdotool", "windowsize", windowID, wStr, hStr).Run()
		exec.Command("xdotool", "windowmove", windowID, xStr, yStr).Run()
		exec.Command("xdotool", "windowraise", windowID).Run()

		b.log.Debug("window positioned",
			zap.String("window", windowID), zap.Int("x", r.X), zap.Int("y", r.Y),
			zap.Int("w", r.W), zap.Int("h", r.H))
		return
	}
	b.log.Warn("could not find window", zap.Int("pid", pid))
}

func (b *execBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cur != nil {
		b.cur.Stop()
		b.cur = nil
	}
}

func (b *execBackend) Release() {
	b.Stop()
}

// process is one VLC subprocess.
type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{} // closed when the process exits for any reason
	ended chan struct{} // closed when it exits on its own with status 0

	mu     sync.Mutex
	killed bool
	paused bool
}

func (p *process) wait() {
	err := p.cmd.Wait()
	p.mu.Lock()
	natural := !p.killed && err == nil
	p.mu.Unlock()
	if natural {
		close(p.ended)
	}
	close(p.done)
}

func (p *process) Ended() <-chan struct{} { return p.ended }

// SetPaused sends the rc "pause" toggle when the state differs.
func (p *process) SetPaused(paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.killed || p.paused == paused {
		return nil
	}
	if _, err := io.WriteString(p.stdin, "pause\n"); err != nil {
		return fmt.Errorf("vlc rc: %w", err)
	}
	p.paused = paused
	return nil
}

// Stop kills the process and waits for it to exit.
func (p *process) Stop() {
	p.mu.Lock()
	if p.killed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.killed = true
	p.stdin.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.mu.Unlock()
	<-p.done
}
