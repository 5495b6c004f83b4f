package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gosprack/internal/project"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Inspect and transfer .sprack projects",
}

var projectInspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the contents of a .sprack bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectInspect,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects in the configured store",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectPushCmd = &cobra.Command{
	Use:   "push [file] [name]",
	Short: "Upload a .sprack bundle to the store",
	Long:  "Validate a local bundle and save it to the configured store. The name defaults to the bundle's project name.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runProjectPush,
}

var projectPullCmd = &cobra.Command{
	Use:   "pull [name] [file]",
	Short: "Download a project from the store",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runProjectPull,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectInspectCmd, projectListCmd, projectPushCmd, projectPullCmd)
}

func readBundle(path string) (*project.File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return project.Decode(r)
}

func runProjectInspect(cmd *cobra.Command, args []string) error {
	f, err := readBundle(args[0])
	if err != nil {
		return err
	}

	fmt.Println("Sprack Project")
	fmt.Println("==============")
	fmt.Printf("Name: %s\n", f.ProjectName)
	fmt.Printf("File: %s\n", args[0])
	fmt.Printf("Layer Size: %dx%d\n", f.LayerWidth, f.LayerHeight)
	fmt.Printf("Model: %d bytes GLB\n", len(f.GLB))
	if err := f.Validate(); err != nil {
		fmt.Printf("Valid: no (%v)\n", err)
	} else {
		fmt.Println("Valid: yes")
	}

	fmt.Printf("\nLayers (%d, bottom to top):\n", len(f.Layers))
	fmt.Printf("  %-6s %-38s %-20s %10s %10s %8s\n", "Index", "ID", "Name", "Height", "Thickness", "PNG")
	for i, l := range f.Layers {
		size := "-"
		if data, err := project.ParseDataURL(l.CanvasDataURL); err == nil {
			size = fmt.Sprintf("%d", len(data))
		}
		fmt.Printf("  %-6d %-38s %-20s %9.2f%% %9.2f%% %8s\n", i, l.ID, l.Name, l.Height, l.Thickness, size)
	}
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	a, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("No projects in %s store\n", a.Store.Driver())
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runProjectPush(cmd *cobra.Command, args []string) error {
	f, err := readBundle(args[0])
	if err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	name := f.ProjectName
	if len(args) > 1 {
		name = args[1]
	}

	a, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := project.Save(cmd.Context(), a.Store, name, f)
	if err != nil {
		return err
	}
	fmt.Printf("Pushed %s to %s store (%d bytes, etag %s)\n", info.Key, a.Store.Driver(), info.Size, info.ETag)
	return nil
}

func runProjectPull(cmd *cobra.Command, args []string) error {
	a, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := project.Load(cmd.Context(), a.Store, args[0])
	if err != nil {
		return err
	}
	out := args[0] + project.Extension
	if len(args) > 1 {
		out = args[1]
	}
	data, err := project.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Pulled %s into %s (%d layers)\n", args[0], out, len(f.Layers))
	return nil
}
