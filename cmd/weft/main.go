// Weft - Chronological Feed Injection for Federated Timelines
// Copyright 2026 Weft Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/weftworks/weft

// Package main is the weft command line front end.
//
// Weft blends ranked or curated candidate items into a chronological
// timeline. The command reads one blend request as JSON from stdin (or
// a file given with -in) and writes the merged timeline as JSON to
// stdout. It exists for batch jobs and for poking at strategy settings
// without embedding the library.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (WEFT_STRATEGY, WEFT_WEIGHT_AUTHOR, ...)
//   - Config file (config.yaml, or WEFT_CONFIG_PATH)
//   - Built-in defaults
//
// # Example Usage
//
//	export WEFT_STRATEGY=after_n
//	export WEFT_INJECT_AFTER_N=4
//	weft < request.json > timeline.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/feed"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/internal/pipeline"
)

// blendRequest is the JSON shape the command accepts.
type blendRequest struct {
	UserID   string             `json:"user_id"`
	Real     []feed.Item        `json:"real"`
	Pool     []feed.Item        `json:"pool"`
	Profile  feed.SignalProfile `json:"profile"`
	Tracking string             `json:"tracking"`
	Inject   *bool              `json:"inject,omitempty"`
}

// blendResponse is the JSON shape the command emits.
type blendResponse struct {
	RequestID string      `json:"request_id"`
	Mode      string      `json:"mode"`
	ColdStart bool        `json:"cold_start"`
	Injected  int         `json:"injected"`
	Shortfall int         `json:"shortfall"`
	Items     []feed.Item `json:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "weft: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	inPath := flag.String("in", "", "read the blend request from this file instead of stdin")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.Logging)

	engine, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	req, err := readRequest(*inPath)
	if err != nil {
		return err
	}

	inject := true
	if req.Inject != nil {
		inject = *req.Inject
	}

	resp, err := engine.Blend(context.Background(), pipeline.Request{
		UserID:   req.UserID,
		Real:     req.Real,
		Pool:     req.Pool,
		Profile:  req.Profile,
		Tracking: feed.ParseTrackingLevel(req.Tracking),
		Inject:   inject,
	})
	if err != nil {
		return fmt.Errorf("blend: %w", err)
	}

	return writeResponse(os.Stdout, resp, *pretty)
}

func readRequest(path string) (blendRequest, error) {
	var req blendRequest

	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func writeResponse(w io.Writer, resp pipeline.Response, pretty bool) error {
	out := blendResponse{
		RequestID: resp.RequestID,
		Mode:      resp.Mode.String(),
		ColdStart: resp.ColdStart,
		Injected:  resp.Injected,
		Shortfall: resp.Shortfall,
		Items:     resp.Items,
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
