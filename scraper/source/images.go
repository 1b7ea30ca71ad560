package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"leomaster/models"
	"leomaster/utils"
)

const maxParallelDownloads = 4

// ImageDownloader stores masterclass images under the names the gallery
// cards link to: <uid>.jpeg and <uid>_preview.jpeg.
type ImageDownloader struct {
	dir     string
	client  *http.Client
	limiter *utils.RateLimiter
	logger  zerolog.Logger
}

// NewImageDownloader creates a downloader writing into dir. A nil client
// means http.DefaultClient.
func NewImageDownloader(dir string, client *http.Client, limiter *utils.RateLimiter, logger zerolog.Logger) *ImageDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &ImageDownloader{dir: dir, client: client, limiter: limiter, logger: logger}
}

type imageJob struct {
	uid  string
	url  string
	path string
}

// Download fetches every image not already on disk. It returns how many
// files were written; failed images are joined into the error and do not
// stop the others.
func (d *ImageDownloader) Download(ctx context.Context, items []models.Masterclass) (int, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create media dir: %w", err)
	}

	var jobs []imageJob
	var errs []error
	for _, mc := range items {
		if mc.UID == "" || filepath.Base(mc.UID) != mc.UID || mc.UID == ".." {
			if mc.ImageURL != "" || mc.PreviewImageURL != "" {
				errs = append(errs, fmt.Errorf("uid %q is not a file name", mc.UID))
			}
			continue
		}
		if mc.ImageURL != "" {
			jobs = append(jobs, imageJob{uid: mc.UID, url: mc.ImageURL, path: filepath.Join(d.dir, mc.UID+".jpeg")})
		}
		if mc.PreviewImageURL != "" {
			jobs = append(jobs, imageJob{uid: mc.UID, url: mc.PreviewImageURL, path: filepath.Join(d.dir, mc.UID+"_preview.jpeg")})
		}
	}

	var (
		mu      sync.Mutex
		written int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)
	for _, job := range jobs {
		if _, err := os.Stat(job.path); err == nil {
			continue
		}
		g.Go(func() error {
			err := d.fetch(gctx, job)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.logger.Warn().Err(err).Str("uid", job.uid).Str("url", job.url).Msg("image download failed")
				errs = append(errs, fmt.Errorf("%s: %w", job.uid, err))
				return nil
			}
			written++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return written, err
	}

	d.logger.Info().Int("written", written).Int("failed", len(errs)).Msg("images downloaded")
	return written, errors.Join(errs...)
}

func (d *ImageDownloader) fetch(ctx context.Context, job imageJob) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.url, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), job.path)
}
