package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gosprack/pkg/analysis"
	"github.com/philipparndt/gosprack/pkg/modelio"
)

var (
	infoBands   int
	infoLongest int
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about a model",
	Long:  "Show dimensions, triangle count, surface area, edge statistics and the triangle distribution over height bands.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().IntVarP(&infoBands, "bands", "b", 8, "Number of height bands in the profile")
	infoCmd.Flags().IntVarP(&infoLongest, "longest", "l", 0, "Show the N longest edges")
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	root, err := modelio.Load(cmd.Context(), filename)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	result := analysis.AnalyzeScene(root)

	fmt.Println("Model Information")
	fmt.Println("=================")
	if root.Name != "" {
		fmt.Printf("Name: %s\n", root.Name)
	}
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Format: %s\n\n", modelio.DetectFormat(filename, nil))

	fmt.Println("Model Statistics:")
	fmt.Printf("  Meshes: %d\n", result.MeshCount)
	fmt.Printf("  Materials: %d\n", result.MaterialCount)
	fmt.Printf("  Triangles: %d\n", result.TriangleCount)
	fmt.Printf("  Edges: %d\n", result.EdgeCount)
	fmt.Printf("  Surface Area: %s\n\n", analysis.FormatMeasurement(result.SurfaceArea, "square units"))

	if result.TriangleCount == 0 {
		return nil
	}

	fmt.Println("Bounding Box:")
	fmt.Printf("  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Printf("  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Printf("  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Println("Dimensions:")
	fmt.Printf("  Width (X): %.6f units\n", result.Dimensions.X)
	fmt.Printf("  Height (Y): %.6f units\n", result.Dimensions.Y)
	fmt.Printf("  Depth (Z): %.6f units\n", result.Dimensions.Z)
	fmt.Printf("  Diagonal: %.6f units\n", result.BoundingBox.Diagonal())
	fmt.Printf("  Volume: %.6f cubic units\n\n", result.Volume)

	fmt.Println("Edge Lengths:")
	fmt.Printf("  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Printf("  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Printf("  Average: %.6f units\n", result.AvgEdgeLength)

	if profile := analysis.HeightProfile(root.WorldTriangles(), infoBands); len(profile) > 0 {
		peak := 0
		for _, n := range profile {
			peak = max(peak, n)
		}
		fmt.Println("\nHeight Profile (top to bottom):")
		for i := len(profile) - 1; i >= 0; i-- {
			bar := 0
			if peak > 0 {
				bar = profile[i] * 40 / peak
			}
			lo := float64(i) * 100 / float64(len(profile))
			hi := float64(i+1) * 100 / float64(len(profile))
			fmt.Printf("  %5.1f%% - %5.1f%%  %-40s %d\n", lo, hi, strings.Repeat("#", bar), profile[i])
		}
	}

	if infoLongest > 0 {
		edges := analysis.FindLongestEdges(result, infoLongest)
		fmt.Printf("\nTop %d Longest Edges:\n", len(edges))
		fmt.Printf("  %-6s %-35s %-35s %-15s\n", "Index", "Start", "End", "Length")
		for i, e := range edges {
			fmt.Printf("  %-6d %-35s %-35s %.6f\n", i+1, analysis.FormatVector(e.Start), analysis.FormatVector(e.End), e.Length)
		}
	}
	return nil
}
