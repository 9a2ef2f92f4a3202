// Command viatest scores one anchor of a PCB image against seed vias and
// prints the similarity breakdown. It is meant for tuning thresholds.
package main

import (
	"flag"
	"fmt"
	"os"

	"pcb-viacv/internal/app"
	"pcb-viacv/internal/config"
	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/internal/via"
	"pcb-viacv/pkg/geometry"
)

type seedList []string

func (s *seedList) String() string     { return fmt.Sprint(*s) }
func (s *seedList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	imagePath := flag.String("image", "", "Path to PCB image (TIFF, PNG, JPEG or BMP)")
	maskPath := flag.String("mask", "", "Path to tabu mask")
	noMask := flag.Bool("no-mask", false, "Run without a tabu mask")
	x := flag.Int("x", 0, "Anchor x")
	y := flag.Int("y", 0, "Anchor y")
	outer := flag.Int("outer", 28, "Via copper diameter in pixels")
	inner := flag.Int("inner", 18, "Via hole diameter in pixels")
	var seeds seedList
	flag.Var(&seeds, "seed", "Seed via anchor as x,y (repeatable)")
	flag.Parse()

	if *imagePath == "" || len(seeds) == 0 || (*maskPath == "") == !*noMask {
		fmt.Println("Usage: viatest -image <path> (-mask <path> | -no-mask) -seed x,y [-seed x,y ...] -x <x> -y <y>")
		os.Exit(1)
	}

	raster, err := pcbimage.LoadRaster(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded image: %dx%d pixels\n", raster.Width(), raster.Height())

	var mask *pcbimage.Mask
	if *noMask {
		fmt.Println("Running without a mask, no pixel is forbidden")
	} else {
		if mask, err = pcbimage.LoadMask(*maskPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load mask: %v\n", err)
			os.Exit(1)
		}
	}

	anchors, err := config.ParseSeeds(seeds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	params := via.DefaultParams().WithDiameters(*outer, *inner)
	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  Diameters: %d/%d px  Smear: %d  Center weight: %d  Top-k: %d\n",
		params.OuterDiameter, params.InnerDiameter, params.SmearRadius, params.CenterWeight, params.TopK)
	fmt.Printf("  Threshold: %d (min score %d)\n\n", params.SimilarityThreshold, params.MinScore())

	report, err := via.ScoreAnchor(raster, mask, anchors, geometry.Pt(*x, *y), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
		os.Exit(1)
	}
	app.PrintReport(os.Stdout, report, params)
}
