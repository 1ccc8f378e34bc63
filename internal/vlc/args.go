package vlc

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"signage-player/internal/layout"
)

// geometry is a zone placed on a concrete screen.
type geometry struct {
	zone    layout.Zone
	screenW int
	screenH int
}

// Flags shared by every subprocess invocation.
func baseArgs() []string {
	return []string{
		"--no-video-title-show", // No filename overlay
		"--no-osd",              // No on-screen display
		"--no-spu",              // No subtitles

		"--avcodec-hw=any",           // HW decode (V4L2 M2M on RPi5)
		"--avcodec-threads=0",        // Auto-detect cores
		"--avcodec-skiploopfilter=0", // Keep deblocking

		"--file-caching=5000",
		"--network-caching=3000",

		"--clock-jitter=0",
		"--deinterlace=0",

		"--quiet",
	}
}

// stillArgs holds one image on screen until the process is stopped.
func stillArgs(goos string, g geometry, path string) []string {
	args := append(baseArgs(), "--image-duration=-1", "--no-loop")
	args = append(args, platformArgs(goos, g)...)
	return append(args, path)
}

// videoArgs plays one file once and exits. The rc interface on stdin
// takes pause commands.
func videoArgs(goos string, g geometry, path string, autoplay bool) []string {
	args := append(baseArgs(), "--play-and-exit", "--no-loop",
		"--extraintf=rc", "--rc-fake-tty")
	if !autoplay {
		args = append(args, "--start-paused")
	}
	args = append(args, platformArgs(goos, g)...)
	return append(args, path)
}

// On Linux cvlc has no window flags; positioning is done with xdotool.
func platformArgs(goos string, g geometry) []string {
	switch goos {
	case "linux":
		return []string{"--aout=alsa"}
	case "windows":
		args := []string{
			"--no-video-deco",
			"--video-on-top",
			"--mouse-hide-timeout=0",
			"--no-qt-fs-controller",
			"--no-qt-name-in-title",
			"--no-qt-privacy-ask",
			"--vout=direct3d11",
		}
		return append(args, windowArgs(g)...)
	default:
		return windowArgs(g)
	}
}

func windowArgs(g geometry) []string {
	if g.zone.IsFull() {
		return []string{"--fullscreen"}
	}
	r := g.zone.Pixels(g.screenW, g.screenH)
	return []string{
		"--no-fullscreen",
		"--no-embedded-video",
		"--width=" + strconv.Itoa(r.W),
		"--height=" + strconv.Itoa(r.H),
		"--video-x=" + strconv.Itoa(r.X),
		"--video-y=" + strconv.Itoa(r.Y),
	}
}

// libvlcArgs configures the in-process libVLC instance on the RPi5.
func libvlcArgs(g geometry) []string {
	args := []string{
		// --- RPi5 Hardware Acceleration ---
		"--vout=mmal_vout",     // MMAL video output, bypasses the desktop compositor
		"--codec=mmal_decoder", // MMAL hardware decoder for H.264/HEVC
		"--no-xlib",            // Render via DRM/KMS directly

		"--no-osd",
		"--no-dbus",
		"--no-video-title-show",

		"--aout=alsa",

		"--file-caching=5000",
		"--network-caching=3000",
		"--clock-jitter=0",
		"--clock-synchro=0",

		"--no-drop-late-frames",
		"--no-skip-frames",
		"--avcodec-skiploopfilter=0",
		"--deinterlace=0",

		"--quiet",
	}
	return append(args, windowArgs(g)...)
}

func findVLC() (string, error) {
	// On Linux, prefer cvlc (VLC without the Qt GUI).
	if runtime.GOOS == "linux" {
		for _, name := range []string{"cvlc", "/usr/bin/cvlc"} {
			if path, err := exec.LookPath(name); err == nil {
				return path, nil
			}
		}
	}

	if path, err := exec.LookPath("vlc"); err == nil {
		return path, nil
	}

	var candidates []string
	switch runtime.GOOS {
	case "windows":
		candidates = []string{
			`C:\Program Files\VideoLAN\VLC\vlc.exe`,
			`C:\Program Files (x86)\VideoLAN\VLC\vlc.exe`,
		}
	case "darwin":
		candidates = []string{
			"/Applications/VLC.app/Contents/MacOS/VLC",
		}
	default:
		candidates = []string{
			"/usr/bin/vlc",
			"/snap/bin/vlc",
		}
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}

	return "", fmt.Errorf("VLC not found, install with: sudo apt install vlc")
}
