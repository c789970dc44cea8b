// Command boxscan reads a box label from a network camera and prints what
// is inside the box.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/vbonduro/storagescout/internal/config"
	"github.com/vbonduro/storagescout/internal/db"
	"github.com/vbonduro/storagescout/internal/logging"
	"github.com/vbonduro/storagescout/internal/scan"
	"github.com/vbonduro/storagescout/internal/scan/qr"
	"github.com/vbonduro/storagescout/internal/scan/snapshot"
	"github.com/vbonduro/storagescout/internal/service"
	"github.com/vbonduro/storagescout/internal/store"
	"github.com/vbonduro/storagescout/internal/vision"
)

func main() {
	cfg := config.Load()

	cameraURL := flag.String("camera", cfg.CameraSnapshotURL, "snapshot URL of the camera")
	owner := flag.String("owner", cfg.DefaultOwner, "inventory owner")
	dbPath := flag.String("db", cfg.DBPath, "path to the inventory database")
	flag.Parse()

	if *cameraURL == "" {
		log.Fatal("no camera: pass -camera or set CAMERA_SNAPSHOT_URL")
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, "text", cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	err = run(cfg, *cameraURL, *owner, *dbPath, logger)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "boxscan:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, cameraURL, owner, dbPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	inv := service.NewInventoryService(store.NewItemStore(database), store.NewLabelStore(database), vision.Disabled{}, logger)
	scanner := service.NewScanner(inv, snapshot.NewCamera(cameraURL, logger), qr.NewDecoder(), scan.Options{
		Interval:     cfg.ScanInterval,
		MaxWidth:     cfg.ScanMaxWidth,
		SuccessDelay: cfg.ScanSuccessDelay,
		RetryDelay:   cfg.ScanRetryDelay,
		Facing:       scan.Facing(cfg.CameraFacing),
		Observer:     progress{w: os.Stderr},
	}, logger)

	fmt.Fprintln(os.Stderr, "point the camera at a box label, Ctrl-C to stop")
	box, err := scanner.ScanBox(ctx, owner)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}

	return printBox(os.Stdout, box)
}

func printBox(w io.Writer, box *service.BoxDetail) error {
	title := box.Label
	if title == "" {
		title = "Box Contents"
	}
	fmt.Fprintf(w, "%s (%s)\n", title, box.ID)
	if box.Location != "" {
		fmt.Fprintf(w, "location: %s\n", box.Location)
	}
	if len(box.Items) == 0 {
		fmt.Fprintln(w, "no items")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLOCATION\tADDED")
	for _, it := range box.Items {
		added := ""
		if !it.CreatedAt.IsZero() {
			added = it.CreatedAt.Local().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Name, it.Location, added)
	}
	return tw.Flush()
}

// progress reports scan state changes on the terminal.
type progress struct {
	w io.Writer
}

func (p progress) ObserveTransition(to scan.Status) {
	switch to.State {
	case scan.StateScanning:
		fmt.Fprintln(p.w, "scanning...")
	case scan.StateError:
		if to.Error == scan.ErrorInvalidFormat {
			fmt.Fprintln(p.w, "that code is not a box label, retrying")
		}
	case scan.StateSuccess:
		fmt.Fprintln(p.w, "found box", to.BoxID)
	}
}

func (progress) ObserveFrame(bool)   {}
func (progress) ObserveOutcome(bool) {}
