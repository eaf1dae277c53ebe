package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/fetch"
)

var (
	fetchYear    int
	fetchDest    string
	fetchUseFTP  bool
	fetchExtract bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a national FARS crash data release",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dest := fetchDest
		if dest == "" {
			dest = cfg.Fetch.TempDir
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return eris.Wrap(err, "create dest dir")
		}

		zipPath := filepath.Join(dest, fmt.Sprintf("FARS%dNationalCSV.zip", fetchYear))
		timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second

		var (
			written int64
			err     error
		)
		if fetchUseFTP {
			url, urlErr := fetch.MirrorURL(fetchYear)
			if urlErr != nil {
				return urlErr
			}
			d := fetch.NewFTPDownloader(fetch.FTPOptions{Timeout: timeout})
			written, err = d.DownloadToFile(ctx, url, zipPath)
		} else {
			url, urlErr := fetch.ArchiveURL(fetchYear)
			if urlErr != nil {
				return urlErr
			}
			d := fetch.NewHTTPDownloader(fetch.HTTPOptions{
				UserAgent:    cfg.Fetch.UserAgent,
				Timeout:      timeout,
				MaxRetries:   cfg.Fetch.MaxRetries,
				RateLimiters: fetch.DefaultRateLimiters(),
			})
			written, err = d.DownloadToFile(ctx, url, zipPath)
		}
		if err != nil {
			return eris.Wrapf(err, "download release %d", fetchYear)
		}

		zap.L().Info("release downloaded",
			zap.Int("year", fetchYear),
			zap.String("path", zipPath),
			zap.Int64("bytes", written),
		)

		if !fetchExtract {
			fmt.Println(zipPath)
			return nil
		}

		csvPath, err := fetch.ExtractAccidentCSV(zipPath, dest)
		if err != nil {
			return err
		}
		zap.L().Info("accident file extracted", zap.String("path", csvPath))
		fmt.Println(csvPath)
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchYear, "year", 0, "data year to download (required)")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "destination directory (default from config)")
	fetchCmd.Flags().BoolVar(&fetchUseFTP, "ftp", false, "use the FTP mirror instead of HTTPS")
	fetchCmd.Flags().BoolVar(&fetchExtract, "extract", true, "extract the accident CSV after download")
	_ = fetchCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(fetchCmd)
}
