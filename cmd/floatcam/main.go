package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cjeanneret/FloatCam/internal/config"
	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/hw/camera"
	"github.com/cjeanneret/FloatCam/internal/hw/input"
	"github.com/cjeanneret/FloatCam/internal/logic/album"
	"github.com/cjeanneret/FloatCam/internal/logic/capture"
	"github.com/cjeanneret/FloatCam/internal/logic/geometry"
	"github.com/cjeanneret/FloatCam/internal/logic/message"
	"github.com/cjeanneret/FloatCam/internal/logic/mode"
	"github.com/cjeanneret/FloatCam/internal/logic/session"
	"github.com/cjeanneret/FloatCam/internal/photostore"
	"github.com/cjeanneret/FloatCam/internal/scene"
	"github.com/cjeanneret/FloatCam/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web remote on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	storageRoot := flag.String("storage", "", "override the photo storage directory")
	stdin := flag.Bool("stdin", true, "read input commands from standard input")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load .env failed: %v", err)
	}
	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := applyStorageOverride(cfg, *storageRoot); err != nil {
		log.Fatalf("invalid -storage: %v", err)
	}

	debug.Init(cfg.Defaults.DebugLevel)
	defer debug.Sync()
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", debug.Level())
	debug.Value("Storage root", cfg.Storage.Root)

	broadcaster := web.NewStatusBroadcaster()
	screen := web.NewScreen(broadcaster)

	a, err := newApp(cfg, screen, screen)
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}

	var srv *web.Server
	if port := webPort.port(); port > 0 {
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
		srv, err = web.NewServer(fmt.Sprintf(":%d", port), web.Deps{
			Broadcaster: broadcaster,
			Remote:      a.input,
			Screen:      screen,
			Mode:        a.arbiter.Current,
			Defaults:    runtimeConfig(cfg),
		})
		if err != nil {
			log.Fatalf("web server: %v", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.session.Run(ctx, cfg.TickInterval())
	})
	if srv != nil {
		g.Go(func() error { return srv.Run(ctx) })
	}

	if *stdin {
		// Not part of the group: a blocked read must not hold up shutdown.
		go func() {
			err := input.ReadCommands(ctx, os.Stdin, a.input, func(err error) {
				debug.Info("input: %v", err)
			})
			if err != nil {
				debug.Error(err)
			}
		}()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("floatcam: %v", err)
	}
	debug.Info("Bye")
}

// app is the fully wired feature set.
type app struct {
	input   *input.Queue
	arbiter *mode.Arbiter
	rig     *camera.Rig
	store   photostore.Store
	capture *capture.Service
	camera  *capture.Controller
	album   *album.Service
	toast   *message.Toast
	session *session.Session
}

// newApp builds every component from cfg. display shows the album and sink
// shows transient messages.
func newApp(cfg *config.Config, display album.Display, sink message.Sink) (*app, error) {
	debug.Step(1, "Loading scene")
	reg := scene.NewRegistry()
	if cfg.Scene.File != "" {
		var err error
		if reg, err = scene.Load(cfg.Scene.File); err != nil {
			return nil, err
		}
	}
	debug.Value("Scene objects", len(reg.Objects()))

	debug.Step(2, "Preparing storage")
	store := photostore.New(cfg.Storage.Root)
	if err := store.Ensure(); err != nil {
		return nil, err
	}

	debug.Step(3, "Initializing camera rig")
	rig := camera.NewRig(camera.RigConfig{
		Pose: geometry.Pose{
			Position: geometry.Vec3{X: cfg.Camera.Position.X, Y: cfg.Camera.Position.Y, Z: cfg.Camera.Position.Z},
			YawDeg:   cfg.Camera.YawDeg,
			PitchDeg: cfg.Camera.PitchDeg,
		},
		FOVDeg:       cfg.InitialFOVDeg(),
		MinFOVDeg:    cfg.Camera.MinFOVDeg,
		MaxFOVDeg:    cfg.Camera.MaxFOVDeg,
		ZoomSpeedDeg: cfg.Camera.ZoomSpeedDeg,
		Near:         cfg.Camera.NearClip,
		Far:          cfg.Camera.FarClip,
		Aspect:       cfg.Aspect(),
	})
	if cfg.Lens != nil {
		debug.Value("Lens", cfg.Lens.Name)
	}
	debug.Value("Initial FOV", rig.FOV())
	debug.PrintStruct("Camera config", cfg.Camera)
	surface := camera.NewSoftwareSurface(cfg.Render.WidthPx, cfg.Render.HeightPx, rig, reg)

	debug.Step(4, "Wiring features")
	a := &app{
		input:   input.NewQueue(),
		arbiter: mode.NewArbiter(),
		rig:     rig,
		store:   store,
	}
	a.toast = message.NewToast(sink, cfg.MessageDuration(), nil)
	a.capture = capture.NewService(a.arbiter, rig, surface, reg, store)
	a.camera = capture.NewController(a.capture, a.input, a.toast, nil)
	albumCfg := album.Config{
		Cooldown:     cfg.InputCooldown(),
		Threshold:    cfg.Album.PageThreshold,
		TextureMaxPx: cfg.Album.TextureMaxPx,
	}
	debug.PrintStruct("Album config", albumCfg)
	a.album = album.New(store, a.arbiter, a.input, display, a.toast, albumCfg)
	a.session = session.New(a.input, a.capture, a.camera, a.album, a.toast)
	return a, nil
}

// runtimeConfig is what GET /config reports.
func runtimeConfig(cfg *config.Config) web.RuntimeConfig {
	return web.RuntimeConfig{
		FOVDeg:          cfg.InitialFOVDeg(),
		HFOVDeg:         geometry.HorizontalFOV(cfg.InitialFOVDeg(), cfg.Aspect()),
		MinFOVDeg:       cfg.Camera.MinFOVDeg,
		MaxFOVDeg:       cfg.Camera.MaxFOVDeg,
		ZoomSpeedDeg:    cfg.Camera.ZoomSpeedDeg,
		PageThreshold:   cfg.Album.PageThreshold,
		InputCooldownMs: cfg.Album.InputCooldownMs,
		MessageMs:       cfg.Messages.DisplayMs,
		StorageRoot:     cfg.Storage.Root,
	}
}

// applyStorageOverride replaces the storage root when dir is non-empty.
// The flag takes precedence over both the file and FLOATCAM_STORAGE_ROOT.
func applyStorageOverride(cfg *config.Config, dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	if strings.ContainsRune(dir, 0) {
		return fmt.Errorf("storage path contains a NUL byte")
	}
	cfg.Storage.Root = filepath.Clean(dir)
	return nil
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
