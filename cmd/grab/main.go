// Command grab connects to a camera, waits for the first frame, saves a
// snapshot and exits. Useful for smoke-testing camera credentials from
// scripts and cron jobs.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"camplayer/internal/camera"
	"camplayer/internal/config"
	"camplayer/internal/player"

	"github.com/joho/godotenv"
)

func main() {
	var (
		host    = flag.String("host", "", "camera host or IP (required unless -source test)")
		user    = flag.String("user", "admin", "camera username")
		secret  = flag.String("secret", "", "camera password")
		port    = flag.Int("port", 554, "camera RTSP port")
		path    = flag.String("path", "stream1", "stream path")
		res     = flag.String("res", "1080p", "resolution preset (1080p, 720p, 480p)")
		out     = flag.String("out", "grab.png", "output file (extension picks the format)")
		timeout = flag.Duration("timeout", player.DefaultConnectTimeout, "connect timeout")
		source  = flag.String("source", "gocv", "camera backend (gocv or test)")
	)
	flag.Parse()

	_ = godotenv.Load(".env")

	var opener camera.Opener = camera.GoCVOpener{}
	if *source == "test" {
		opener = camera.TestPatternOpener{}
	} else if *host == "" {
		log.Fatal("grab: -host is required")
	}

	width, height := config.ResolutionPreset(*res)
	conn := config.ConnectionConfig{
		Scheme: "rtsp",
		User:   *user,
		Secret: *secret,
		Host:   *host,
		Port:   *port,
		Path:   *path,
		Width:  width,
		Height: height,
	}
	if *source == "test" && conn.Host == "" {
		conn.Host = "test"
	}

	frames := player.NewFrameBuffer()
	session := player.NewStreamSession(opener, frames, *timeout)

	playerCfg := config.DefaultPlayer()
	playerCfg.ConnectTimeout = *timeout
	playerCfg.ViewportWidth = width
	playerCfg.ViewportHeight = height
	playerCfg.SnapshotDir = filepath.Dir(*out)
	controller := player.NewController(session, frames, conn, playerCfg)

	firstFrame := make(chan struct{}, 1)
	failed := make(chan string, 1)
	session.OnFirstFrame(func() {
		select {
		case firstFrame <- struct{}{}:
		default:
		}
	})
	session.OnError(func(msg string) {
		select {
		case failed <- msg:
		default:
		}
	})

	log.Printf("grab: connecting to %s", conn.MaskedURI())
	if err := controller.Start(); err != nil {
		log.Fatalf("grab: %v", err)
	}

	select {
	case <-firstFrame:
	case msg := <-failed:
		log.Fatalf("grab: %s", msg)
	case <-time.After(*timeout + 10*time.Second):
		session.Stop()
		log.Fatal("grab: no frame arrived in time")
	}

	if img := controller.Render(); img == nil {
		session.Stop()
		log.Fatal("grab: frame buffer empty after first frame")
	}

	saved, err := controller.Snapshot(filepath.Base(*out))
	session.Stop()
	if err != nil {
		log.Fatalf("grab: snapshot failed: %v", err)
	}

	log.Printf("grab: saved %s", saved)
	os.Exit(0)
}
