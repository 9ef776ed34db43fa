package main

import (
	"context"
	"flag"
	"os"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/routes"
	"github.com/blogicum/blogicum/storage"
	"github.com/blogicum/blogicum/storage/gormstore"
	"github.com/blogicum/blogicum/storage/inmemory"
	"github.com/blogicum/blogicum/utils"
)

func main() {
	storageFlag := flag.String("storage", "", "storage backend: mysql, postgres or memory (overrides config)")
	seedFlag := flag.Bool("seed", true, "fill the memory backend with demo content")
	flag.Parse()

	if *storageFlag != "" {
		_ = os.Setenv("STORAGE", *storageFlag)
	}
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	var store storage.Storage
	switch cfg.Storage {
	case "memory":
		mem := inmemory.New()
		if *seedFlag {
			if err := seedDemo(context.Background(), mem); err != nil {
				utils.Sugar.Fatalf("seed demo data: %v", err)
			}
		}
		store = mem
		utils.Sugar.Warn("using in-memory storage, data is lost on restart")
	default:
		db, err := gormstore.Open(cfg)
		if err != nil {
			utils.Sugar.Fatalf("open %s storage: %v", cfg.Storage, err)
		}
		defer db.Close()
		store = db
	}

	r, err := routes.SetupRouter(cfg, store, routes.Options{})
	if err != nil {
		utils.Sugar.Fatalf("setup router: %v", err)
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
