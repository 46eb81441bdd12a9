// Command reprocess re-runs background removal over every stored item image.
// Useful after tuning the matte or restoring the upload dir from a backup.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardrobeapp/wardrobe/internal/config"
	"github.com/wardrobeapp/wardrobe/internal/imaging"
	"github.com/wardrobeapp/wardrobe/internal/observability"
	"github.com/wardrobeapp/wardrobe/internal/repo/postgres"
	"github.com/wardrobeapp/wardrobe/internal/storage"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list image paths without touching files")
	flag.Parse()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBURL)

	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	defer pool.Close()

	files, err := storage.NewStore(cfg.UploadDir, observability.NewLogger(cfg.Env))

	if err != nil {
		log.Fatalf("upload dir setup failed: %v", err)
	}

	itemsRepo := postgres.NewItemsRepo(pool, nil)

	paths, err := itemsRepo.AllImagePaths(ctx)

	if err != nil {
		log.Fatalf("listing image paths failed: %v", err)
	}

	log.Printf("reprocessing %d images", len(paths))

	var failed int

	for _, p := range paths {
		if ctx.Err() != nil {
			log.Println("interrupted")
			break
		}

		disk, err := files.DiskPath(p)

		if err != nil {
			log.Printf("skipping %s: %v", p, err)
			failed++
			continue
		}

		if *dryRun {
			log.Println(disk)
			continue
		}

		if err := imaging.RemoveBackground(disk); err != nil {
			log.Printf("reprocess %s failed: %v", p, err)
			failed++
		}
	}

	log.Printf("done, %d failures", failed)
}
