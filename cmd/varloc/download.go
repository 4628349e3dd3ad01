package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/varloc/varloc/internal/config"
)

const goldenPathBaseURL = "https://hgdownload.soe.ucsc.edu/goldenPath"

// localFileURLs returns the transcript table and genome sequence URLs for
// a genome build.
func localFileURLs(genome string) (tableURL, fastaURL string) {
	tableURL = fmt.Sprintf("%s/%s/database/refGene.txt.gz", goldenPathBaseURL, genome)
	fastaURL = fmt.Sprintf("%s/%s/bigZips/%s.fa.gz", goldenPathBaseURL, genome, genome)
	return
}

func newDownloadCmd() *cobra.Command {
	var tableOnly bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the transcript table and genome sequence for the local fast path",
		Long: `Download the reference transcript table (refGene) and the genome
sequence for the configured build. With these files in the cache the
resolver converts coding variants locally instead of calling out.`,
		Example: `  varloc download
  varloc download --genome hg38
  varloc download --table-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			return runDownload(cfg, tableOnly)
		},
	}

	cmd.Flags().BoolVar(&tableOnly, "table-only", false, "only download the transcript table (skip the genome sequence)")

	return cmd
}

func runDownload(cfg *config.Config, tableOnly bool) error {
	destDir := filepath.Join(cfg.CacheDir, cfg.Genome)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", destDir, err)
	}

	tableURL, fastaURL := localFileURLs(cfg.Genome)

	fmt.Printf("Downloading %s reference files...\n", cfg.Genome)
	fmt.Printf("Destination: %s\n\n", destDir)

	if err := downloadFile(tableURL, filepath.Join(destDir, "refGene.txt.gz")); err != nil {
		return fmt.Errorf("download transcript table: %w", err)
	}

	if !tableOnly {
		if err := downloadFile(fastaURL, filepath.Join(destDir, filepath.Base(fastaURL))); err != nil {
			return fmt.Errorf("download genome sequence: %w", err)
		}
	}

	fmt.Printf("\nDownload complete!\n")
	fmt.Printf("To resolve variants, run:\n")
	fmt.Printf("  varloc resolve \"NM_006446.4:c.1198T>G\"\n")

	return nil
}

// downloadFile downloads a file from URL to the destination path with progress.
func downloadFile(url, destPath string) error {
	// Already-downloaded files are kept, consistent with the rest of the
	// cache's write-if-absent behavior.
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{
		Timeout: 30 * time.Minute, // Long timeout for large files
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	var downloaded int64
	pw := &progressWriter{
		total:      resp.ContentLength,
		downloaded: &downloaded,
		lastPrint:  time.Now(),
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("    Done: %s\n", formatSize(downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(*pw.downloaded) / float64(pw.total) * 100
			fmt.Printf("\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(*pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Printf("\r    Progress: %s  ", formatSize(*pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
