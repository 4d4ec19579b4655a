/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gangsheet/internal/config"
	"gangsheet/internal/crash"
	"gangsheet/internal/history"
	applog "gangsheet/internal/log"
	"gangsheet/internal/preset"
	"gangsheet/internal/session"
	"gangsheet/internal/ui"
	"gangsheet/internal/version"
)

// errUsage makes main print the usage text and exit with status 2.
var errUsage = errors.New("usage")

func usage() {
	fmt.Println("Gang Sheet Designer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gangsheet version|-v|--version              Show version")
	fmt.Println("  gangsheet compose [flags] <image>...         Lay images out on a sheet and export at 300 DPI")
	fmt.Println("  gangsheet presets [list]                     List sheet presets")
	fmt.Println("  gangsheet presets install <pack.json>        Validate and install a preset pack")
	fmt.Println("  gangsheet history [-n N] [-prune N]          Show or prune the export history")
	fmt.Println("  gangsheet config [path|init]                 Show the config path or write the defaults")
	fmt.Println("  gangsheet ui                                 Launch desktop UI (build with -tags fyne for full UI)")
	fmt.Println()
	fmt.Println("Run 'gangsheet compose -h' for compose flags.")
}

func main() {
	applog.Init(applog.FromEnv())
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	defer func() {
		crash.Recover(&crash.Info{Fields: func() []crash.Field {
			return []crash.Field{{Key: "command", Value: cmd}, {Key: "args", Value: strconv.Itoa(len(os.Args))}}
		}})
	}()

	cfg, err := config.Load()
	if err != nil {
		applog.WithComponent("cli").Warn("config not loaded, using defaults", slog.Any("err", err))
	}
	applog.Init(cfg.Logging.Options())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	l.Debug("start", slog.String("cmd", cmd), slog.Int("args", len(os.Args)))

	var args []string
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}
	switch cmd {
	case "version", "--version", "-v":
		fmt.Println("Gang Sheet Designer")
		fmt.Println(version.String())
		return
	case "compose":
		err = runCompose(cfg, args, os.Stdout)
	case "presets":
		err = runPresets(args, os.Stdout)
	case "history":
		err = runHistory(cfg, args, os.Stdout)
	case "config":
		err = runConfig(cfg, args, os.Stdout)
	case "ui":
		err = runUI(cfg)
	default:
		usage()
		return
	}
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		usage()
		os.Exit(2)
	default:
		l.Error(cmd+" failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// openHistory opens the export history when it is enabled. A nil store with
// a nil error means history is off.
func openHistory(cfg config.AppConfig) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func loadPresets() (preset.Pack, error) {
	dir, err := config.PresetDir()
	if err != nil {
		return preset.Builtin(), err
	}
	return preset.LoadDir(dir)
}

func runPresets(args []string, out io.Writer) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		pack, err := loadPresets()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tLABEL\tWIDTH (in)\tHEIGHT (in)\t")
		for _, s := range pack.Sheets {
			mark := ""
			if s.Name == pack.DefaultSheet {
				mark = " (default)"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%g\t%g\t\n", s.Name, mark, s.Label, s.WidthIn, s.HeightIn)
		}
		return tw.Flush()
	case "install":
		if len(args) < 2 {
			fmt.Fprintln(out, "presets install requires <pack.json>")
			return errUsage
		}
		dir, err := config.PresetDir()
		if err != nil {
			return err
		}
		dst, err := preset.Install(dir, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Installed", dst)
		return nil
	default:
		return errUsage
	}
}

func runHistory(cfg config.AppConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	n := fs.Int("n", 20, "number of entries to show")
	prune := fs.Int("prune", -1, "keep only the newest N entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.History.Enabled = true
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if *prune >= 0 {
		removed, err := store.Prune(ctx, *prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d entries.\n", removed)
	}
	entries, err := store.Recent(ctx, *n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No exports recorded.")
		return nil
	}
	return printHistory(out, entries)
}

func printHistory(out io.Writer, entries []history.Entry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tFORMAT\tSHEET\tPIXELS\tOBJECTS\tLOW DPI\tPATH\t")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%gx%g in\t%dx%d\t%d\t%d\t%s\t\n",
			e.At.Local().Format("2006-01-02 15:04:05"), e.Format, e.WidthIn, e.HeightIn,
			e.WidthPx, e.HeightPx, e.Objects, e.LowDPI, e.Path)
	}
	return tw.Flush()
}

func runConfig(cfg config.AppConfig, args []string, out io.Writer) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	sub := "path"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "path":
		fmt.Fprintln(out, path)
		return nil
	case "init":
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintln(out, "Wrote", path)
		return nil
	default:
		return errUsage
	}
}

func runUI(cfg config.AppConfig) error {
	l := applog.WithComponent("cli")
	pack, err := loadPresets()
	if err != nil {
		l.Warn("preset packs not loaded", slog.Any("err", err))
	}
	store, err := openHistory(cfg)
	if err != nil {
		l.Warn("export history disabled", slog.Any("err", err))
		store = nil
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}
	return ui.Run(session.Options{Config: &cfg, Presets: &pack, History: store})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
