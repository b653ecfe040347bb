package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shortontech/devprint/internal/browser"
	"github.com/shortontech/devprint/internal/fingerprint"
	httpx "github.com/shortontech/devprint/internal/http"
	"github.com/shortontech/devprint/pkg/config"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		submitURL string
		outPath   string
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Fingerprint a headless browser and print or submit the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fp, err := captureBrowser(ctx, a.cfg.Capture)
			if err != nil {
				return err
			}
			if err := writeJSONFile(cmd.OutOrStdout(), outPath, fp); err != nil {
				return err
			}
			if submitURL == "" {
				return nil
			}
			resp, err := submitCapture(ctx, http.DefaultClient, submitURL, a.cfg.Server.HMACSecret, fp)
			if err != nil {
				return err
			}
			log.Info().
				Str("id", resp.ID).
				Str("hash", resp.Hash).
				Bool("hash_verified", resp.HashVerified).
				Int("matches", len(resp.Matches)).
				Msg("capture submitted")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&submitURL, "submit", "", "POST the capture to this /fingerprint/capture URL")
	f.StringVarP(&outPath, "out", "o", "", "write the fingerprint to a file instead of stdout")
	f.String("capture.url", "about:blank", "page to load before probing")
	f.Bool("capture.headless", true, "run the browser headless")
	f.String("capture.browser_bin", "", "browser binary; empty downloads a managed Chromium")
	f.Duration("capture.audio_timeout", time.Second, "audio probe deadline")
	f.String("server.hmac_secret", "", "sign submitted captures with this secret")
	return cmd
}

func captureBrowser(ctx context.Context, cfg config.CaptureConfig) (fingerprint.DeviceFingerprint, error) {
	b, err := browser.Launch(ctx, cfg)
	if err != nil {
		return fingerprint.DeviceFingerprint{}, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("close browser")
		}
	}()

	eng := fingerprint.NewEngine(b.Sources(), fingerprint.Options{AudioTimeout: cfg.AudioTimeout})
	fp, err := eng.Generate(ctx)
	if err != nil {
		return fingerprint.DeviceFingerprint{}, err
	}
	log.Ctx(ctx).Debug().Str("hash", fp.Hash).Int("confidence", fp.Confidence).Msg("fingerprint generated")
	return fp, nil
}

// writeJSONFile writes v as indented JSON to path, or to w when path is empty.
func writeJSONFile(w io.Writer, path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "" {
		_, err = w.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// submitCapture posts fp to a devprint server and decodes its verdict. The
// body is signed when secret is set.
func submitCapture(ctx context.Context, client *http.Client, url, secret string, fp fingerprint.DeviceFingerprint) (httpx.CaptureResponse, error) {
	var out httpx.CaptureResponse
	summary := fingerprint.Summarize(fp.Components.Browser.UserAgent)
	body, err := json.Marshal(httpx.CaptureRequest{Fingerprint: fp, DeviceInfo: &summary})
	if err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(httpx.HMACHeader, httpx.Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return out, fmt.Errorf("submit capture: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return out, fmt.Errorf("submit capture: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode capture response: %w", err)
	}
	return out, nil
}
