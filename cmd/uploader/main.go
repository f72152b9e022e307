// Command uploader is the mobile companion's upload agent. It keeps a
// durable local queue of files and pushes them to the server whenever
// connectivity allows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"focusnotebook/internal/uploader"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	queue, err := uploader.Open(queuePath())
	if err != nil {
		log.WithError(err).Fatal("failed to open upload queue")
	}
	defer queue.Close()

	switch os.Args[1] {
	case "add":
		cmdAdd(log, queue, os.Args[2:])
	case "run":
		cmdRun(log, queue)
	case "status":
		cmdStatus(log, queue)
	case "prune":
		cmdPrune(log, queue)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: uploader <command>

commands:
  add <file>...   queue files for upload
  run             upload queued files until interrupted
  status          show queue counts and items
  prune           drop completed items

environment:
  SERVER_URL      server base URL (default http://localhost:3001)
  ACCESS_TOKEN    bearer token for the upload endpoint (required for run)
  UPLOADER_DB     queue database path (default ~/.focusnotebook/uploader.db)`)
}

func queuePath() string {
	if path := os.Getenv("UPLOADER_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "uploader.db"
	}
	dir := filepath.Join(home, ".focusnotebook")
	os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "uploader.db")
}

func cmdAdd(log *logrus.Logger, queue *uploader.Queue, paths []string) {
	if len(paths) == 0 {
		log.Fatal("add requires at least one file")
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			log.WithField("path", path).WithError(err).Error("skipping unreadable file")
			continue
		}
		item, err := queue.Enqueue(path)
		if err != nil {
			log.WithField("path", path).WithError(err).Error("failed to enqueue")
			continue
		}
		log.WithFields(logrus.Fields{"id": item.ID, "path": item.Path}).Info("queued")
	}
}

func cmdRun(log *logrus.Logger, queue *uploader.Queue) {
	serverURL := os.Getenv("SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:3001"
	}
	token := os.Getenv("ACCESS_TOKEN")
	if token == "" {
		log.Fatal("ACCESS_TOKEN is required to upload")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	worker := uploader.NewWorker(queue, serverURL, token, 5*time.Second, log)
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		log.WithError(err).Fatal("worker stopped")
	}
}

func cmdStatus(log *logrus.Logger, queue *uploader.Queue) {
	stats, err := queue.Stats()
	if err != nil {
		log.WithError(err).Fatal("failed to read queue stats")
	}

	fmt.Printf("pending: %d  uploading: %d  failed: %d  paused: %d  completed: %d\n",
		stats[uploader.StatusPending],
		stats[uploader.StatusUploading],
		stats[uploader.StatusFailed],
		stats[uploader.StatusPaused],
		stats[uploader.StatusCompleted])

	items, err := queue.List()
	if err != nil {
		log.WithError(err).Fatal("failed to list queue")
	}
	for _, item := range items {
		line := fmt.Sprintf("%4d  %-10s  %s", item.ID, item.Status, item.Path)
		if item.LastError != "" {
			line += "  (" + item.LastError + ")"
		}
		fmt.Println(line)
	}
}

func cmdPrune(log *logrus.Logger, queue *uploader.Queue) {
	n, err := queue.Prune()
	if err != nil {
		log.WithError(err).Fatal("failed to prune queue")
	}
	log.WithField("removed", n).Info("pruned completed items")
}
