package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saishshinde15/context-engineering/internal/engine"
	"github.com/saishshinde15/context-engineering/internal/notes"
)

var (
	topK         int
	noteCategory string
	newSession   bool
)

var selectCmd = &cobra.Command{
	Use:   "select [query]",
	Short: "Show which capabilities would be disclosed for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		query := strings.Join(args, " ")
		k := resolveTopK(topK, cfg.TopK)

		selected, err := e.SelectForQuery(query, k)
		if err != nil {
			return err
		}

		fmt.Printf("Selected capabilities for %q (top_k=%d):\n", query, k)
		for _, s := range selected {
			tag := "MATCHED"
			if s.AlwaysLoaded {
				tag = "ALWAYS"
			}
			fmt.Printf("  [%s] %-24s %s\n", tag, s.Descriptor.ID, s.Descriptor.Description)
			if len(s.Descriptor.Examples) > 0 {
				fmt.Printf("           example: %s\n", s.Descriptor.Examples[0])
			}
		}
		return nil
	},
}

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Work with the persistent scratchpad",
}

var noteWriteCmd = &cobra.Command{
	Use:   "write [content]",
	Short: "Append a note to the scratchpad",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if newSession {
			id, err := e.StartSession()
			if err != nil {
				return err
			}
			fmt.Println("Started session", id)
		}

		out, err := e.Registry().Execute(context.Background(), engine.CapScratchpadWrite,
			map[string]any{
				"notes":    strings.Join(args, " "),
				"category": noteCategory,
			})
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var noteReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Read scratchpad notes, optionally from a single category",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		callArgs := map[string]any{"reasoning": "operator inspection via CLI"}
		if noteCategory != "" {
			callArgs["category"] = noteCategory
		}
		out, err := e.Registry().Execute(context.Background(), engine.CapScratchpadRead, callArgs)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var noteResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the scratchpad for a fresh session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := e.StartSession()
		if err != nil {
			return err
		}
		fmt.Println("Scratchpad cleared, session", id)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run [code]",
	Short: "Execute code in the sandbox and print its captured output",
	Long: `Executes Go code in the isolated interpreter. Pass the code as an
argument, or use - to read it from stdin. Failures are reported as
results, mirroring what an agent would see.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		code := args[0]
		if code == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			code = string(data)
		}

		out, err := e.Registry().Execute(context.Background(), engine.CapRunCode,
			map[string]any{"code": code})
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show the user preference text",
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs := notes.NewPreferences(cfg.PreferencePath)
		text, found, err := prefs.Read()
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("no preferences found")
			return nil
		}
		fmt.Println(text)
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List every registered capability",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		for _, d := range e.Registry().Catalog() {
			kind := "deferred"
			if d.Mandatory {
				kind = "mandatory"
			}
			fmt.Printf("%-24s %-10s %s\n", d.ID, kind, d.Description)
		}
		return nil
	},
}

// resolveTopK maps the flag sentinel -1 to the configured default.
// Every other value passes through unchanged, so an explicitly bad
// top-k is rejected by selection instead of silently corrected.
func resolveTopK(flag, configured int) int {
	if flag == -1 {
		return configured
	}
	return flag
}

func init() {
	selectCmd.Flags().IntVarP(&topK, "top-k", "k", -1,
		"max deferred capabilities to disclose (default: configured top_k)")

	noteWriteCmd.Flags().StringVarP(&noteCategory, "category", "c", engine.DefaultCategory,
		"scratchpad category")
	noteWriteCmd.Flags().BoolVar(&newSession, "new-session", false,
		"reset the scratchpad before writing")
	noteReadCmd.Flags().StringVarP(&noteCategory, "category", "c", "",
		"read a single category instead of everything")

	noteCmd.AddCommand(noteWriteCmd)
	noteCmd.AddCommand(noteReadCmd)
	noteCmd.AddCommand(noteResetCmd)
}
