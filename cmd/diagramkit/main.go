package main

import (
	"fmt"
	"os"

	"diagramkit/internal/canvas"
	"diagramkit/internal/config"
	applog "diagramkit/internal/log"
	"diagramkit/internal/scene"
	"diagramkit/internal/solver"
	"diagramkit/internal/version"
)

func main() {
	// Minimal CLI entry point: version banner, scene validation and a demo
	// run that builds a scene and settles its constraints.
	args := os.Args
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.String())
			return
		case "check":
			requireArg(args, "check <scene.json>")
			if err := checkScene(args[2]); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Println("scene is valid")
			return
		case "run":
			requireArg(args, "run <scene.json>")
			if err := runScene(args[2]); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("diagramkit — constraint-based diagram geometry engine")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println("Usage: diagramkit [version|check <scene.json>|run <scene.json>]")
}

func requireArg(args []string, usage string) {
	if len(args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: diagramkit %s\n", usage)
		os.Exit(2)
	}
}

func checkScene(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = scene.Load(data)
	return err
}

func runScene(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := scene.Load(data)
	if err != nil {
		return err
	}

	cv := canvas.NewWithOptions(canvas.Options{
		Solver: solver.Options{
			IterationBudget: cfg.Solver.IterationBudget,
			RequeueLimit:    cfg.Solver.RequeueLimit,
		},
	})
	items, err := scene.Build(s, cv)
	if err != nil {
		return err
	}
	if err := cv.Update(); err != nil {
		return err
	}

	fmt.Printf("scene %q: %d item(s)\n", s.Name, len(items))
	for _, it := range cv.Items() {
		a, b, c, d, e, f := it.MatrixI2C().Values()
		fmt.Printf("  %s  i2c=(%g %g %g %g %g %g)  handles=%d\n",
			it.ID(), a, b, c, d, e, f, len(it.Handles()))
	}
	return nil
}
