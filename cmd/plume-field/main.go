package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/plume"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/severity"
)

func main() {
	// Command line flags
	var (
		rate      = flag.Float64("rate", 0.05, "Emission rate in kg/s")
		windSpeed = flag.Float64("wind", 3.0, "Wind speed in m/s")
		class     = flag.String("class", "D", "Pasquill-Gifford stability class (A-F)")
		height    = flag.Float64("height", 5.0, "Source height in meters")
		domain    = flag.Float64("domain", 3000.0, "Downwind domain extent in meters")
		gridSize  = flag.Int("grid", 50, "Grid cells per axis")
		zHeight   = flag.Float64("z", 0.0, "Receptor height in meters")
		csvOutput = flag.String("csv", "", "Optional CSV output file path")
	)
	flag.Parse()

	stability := plume.ParseStabilityClass(*class)
	model := plume.NewModel(*rate, 0, 0, *height, stability)

	fmt.Printf("Gaussian Plume Field\n")
	fmt.Printf("====================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Emission Rate: %.4f kg/s (%.1f kg/hr)\n", model.Q(), model.QKgHr())
	fmt.Printf("  Wind Speed: %.1f m/s\n", *windSpeed)
	fmt.Printf("  Stability Class: %v\n", stability)
	fmt.Printf("  Source Height: %.1f m\n", *height)
	fmt.Printf("  Receptor Height: %.1f m\n", *zHeight)
	fmt.Printf("  Severity: %v\n\n", severity.Classify(model.QKgHr()))

	X, Y, C := model.Grid(*gridSize, *domain, *windSpeed, *zHeight)

	displayCenterline(model, *windSpeed, *domain, *zHeight)
	displayPeak(X, Y, C)

	// Optionally export to CSV
	if *csvOutput != "" {
		if err := exportCSV(*csvOutput, X, Y, C); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nField exported to: %s\n", *csvOutput)
	}
}

func displayCenterline(model *plume.Model, windSpeed, domain, zHeight float64) {
	fmt.Printf("Centerline Profile\n")
	fmt.Printf("==================\n\n")
	fmt.Printf("%8s | %9s | %9s | %14s\n", "x (m)", "σy (m)", "σz (m)", "C (µg/m³)")
	fmt.Printf("---------+-----------+-----------+---------------\n")

	for _, x := range []float64{100, 250, 500, 1000, 1500, 2000, 3000, 5000} {
		if x > domain {
			break
		}
		xKm := x / 1000.0
		c := model.Concentration(x, 0, zHeight, windSpeed)
		fmt.Printf("%8.0f | %9.1f | %9.1f | %14.4g\n",
			x, model.Class.SigmaY(xKm), model.Class.SigmaZ(xKm), c*1e9)
	}
	fmt.Println()
}

func displayPeak(X, Y, C *mat.Dense) {
	rows, cols := C.Dims()
	peak := 0.0
	pi, pj := 0, 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := C.At(i, j); v > peak {
				peak = v
				pi, pj = i, j
			}
		}
	}

	fmt.Printf("Field Peak\n")
	fmt.Printf("==========\n\n")
	fmt.Printf("  Concentration: %.4g kg/m³ (%.4g µg/m³)\n", peak, peak*1e9)
	fmt.Printf("  Location: x = %.0f m, y = %.0f m\n", X.At(pi, pj), Y.At(pi, pj))
}

func exportCSV(filename string, X, Y, C *mat.Dense) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{"x_m", "y_m", "concentration_kg_m3"}
	if err := writer.Write(header); err != nil {
		return err
	}

	// Write data
	rows, cols := C.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record := []string{
				fmt.Sprintf("%.1f", X.At(i, j)),
				fmt.Sprintf("%.1f", Y.At(i, j)),
				fmt.Sprintf("%.6g", C.At(i, j)),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	return nil
}
